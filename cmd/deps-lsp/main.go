package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/matzehuels/deps-lsp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, cli.ErrTransport) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
