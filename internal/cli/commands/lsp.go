package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dplint/dplint/internal/analyzer/driver"
	"github.com/dplint/dplint/internal/lsp"
	"github.com/dplint/dplint/internal/tooling"
)

// NewLSPCommand creates the LSP command
func NewLSPCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the dplint Language Server Protocol (LSP) server.

The server checks open documents as you type and provides:
  • Diagnostics for every rule
  • Hover explanations of reported rules
  • Go-to-definition and find references for types and members
  • Document and workspace symbols

The LSP server communicates via JSON-RPC over stdin/stdout.
It is typically started automatically by your editor/IDE.`,
		Args: cobra.NoArgs,
		RunE: runLSP,
	}
}

func runLSP(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	logger := e.logger.Named("lsp")
	defer func() { _ = logger.Sync() }()

	opts, err := e.cfg.DriverOptions(logger)
	if err != nil {
		return err
	}
	d, err := driver.New(opts...)
	if err != nil {
		return fmt.Errorf("creating driver: %w", err)
	}

	api, err := tooling.NewAPIWithConfig(&tooling.Config{Driver: d, Logger: logger})
	if err != nil {
		return fmt.Errorf("creating tooling API: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting language server", zap.String("version", lsp.Version), zap.String("root", e.root))
	return lsp.NewServer(api, logger).Run(ctx)
}
