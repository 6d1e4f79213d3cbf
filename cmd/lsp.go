// Copyright © 2024 The ELPS authors

package cmd

import (
	"fmt"
	"log/slog"

	"github.com/luthersystems/pyrefcheck/lint"
	"github.com/luthersystems/pyrefcheck/lsp"
	"github.com/spf13/cobra"
)

// LSPCommand creates the "lsp" cobra command. cfgFile points at the
// root's --config value.
func LSPCommand(cfgFile *string) *cobra.Command {
	var (
		stdio bool
		port  int
	)

	cmd := &cobra.Command{
		Use:   "lsp [flags]",
		Short: "Start the pyrefcheck Language Server Protocol server",
		Long: `Start an LSP server that reports potentially undefined references in
Python files as diagnostics while you edit.

Settings (allow_import_star, timeout) are read from pyproject.toml and the
environment the same way as for a check run.

Transport modes:
  --stdio      Use stdin/stdout for LSP communication (default)
  --port N     Listen for an LSP client on TCP port N

Examples:
  pyrefcheck lsp                     Start with stdio transport
  pyrefcheck lsp --port 7998         Start with TCP on port 7998`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *cfgFile)
			if err != nil {
				return usageError(err)
			}
			setupLogging(cmd.ErrOrStderr(), cfg.Verbose)

			srv := lsp.New(
				lsp.WithLinter(&lint.Linter{AllowImportStar: cfg.AllowImportStar}),
				lsp.WithTimeout(cfg.Timeout),
				lsp.WithLogger(slog.Default()),
			)

			if !stdio && port > 0 {
				addr := fmt.Sprintf("localhost:%d", port)
				slog.Info("LSP server listening", "addr", addr)
				if err := srv.RunTCP(addr); err != nil {
					return &exitError{code: ExitWarnings, err: fmt.Errorf("lsp server: %w", err)}
				}
				return nil
			}
			if err := srv.RunStdio(); err != nil {
				return &exitError{code: ExitWarnings, err: fmt.Errorf("lsp server: %w", err)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&stdio, "stdio", false,
		"Use stdin/stdout for LSP communication (default behavior)")
	cmd.Flags().IntVar(&port, "port", 0,
		"TCP port for LSP server (use instead of --stdio)")

	return cmd
}
