// Package cli implements the deps-lsp command-line interface.
//
// The root command starts the language server on stdio; that is the whole
// external surface an editor needs. A small cache command family reports
// the metadata-cache configuration for troubleshooting.
package cli

import (
	"errors"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/matzehuels/deps-lsp/internal/lsp"
	"github.com/matzehuels/deps-lsp/pkg/buildinfo"
)

// ErrTransport marks a failure of the LSP stdio transport, so main can
// exit with the documented code 2 instead of the generic 1.
var ErrTransport = errors.New("transport error")

// Execute runs the deps-lsp CLI and returns an error if the server fails.
//
// The server reads LSP framing from stdin and writes responses to stdout,
// so every log line goes to stderr. --stdio is accepted for editors that
// pass it by convention; stdio is the only transport either way.
func Execute() error {
	var (
		stdio   bool
		verbose bool
	)

	root := &cobra.Command{
		Use:          "deps-lsp",
		Short:        "Language server for dependency manifests",
		Long:         `deps-lsp provides completion, hover, inlay hints, diagnostics, and update code actions for Cargo.toml, package.json, pyproject.toml, go.mod, and Gemfile, backed by the upstream package registries.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(os.Stderr, level)

			// Route the transport's own logging to stderr as well;
			// stdout belongs to the protocol.
			commonlog.Configure(0, nil)

			logger.Info("starting deps-lsp", "version", buildinfo.Version)
			server := lsp.NewServer(logger)
			if err := server.RunStdio(); err != nil {
				return fmt.Errorf("%w: %v", ErrTransport, err)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.Flags().BoolVar(&stdio, "stdio", false, "communicate over stdio (the default and only transport)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newCacheCmd())

	return root.Execute()
}
