package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/deps-lsp/pkg/httputil"
)

// newCacheCmd builds the cache command family. The registry metadata
// cache lives in process memory for the lifetime of one server session,
// so "info" documents the bounds and "clear" explains that restarting the
// server (or the editor) is the way to drop it.
func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the registry metadata cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show cache configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(),
				"cache: in-memory, per server session\nsize bound: %d MiB\nrevalidation: ETag / Last-Modified conditional requests\n",
				httputil.DefaultMaxBytes>>20)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Explain how to clear the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(),
				"the cache is held in memory by the running server; restart the language server to clear it")
			return nil
		},
	})

	return cmd
}
