// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jeranaias/docchat-tui/internal/server"
)

type devServerOptions struct {
	addr       string
	noDocument bool
}

// newDevServerCmd runs the local stand-in service. Point --base-url at it to
// try the client without a backend.
func newDevServerCmd(root *rootOptions) *cobra.Command {
	opts := &devServerOptions{}
	cmd := &cobra.Command{
		Use:    "dev-server",
		Short:  "Serve scripted echo answers on the chat service protocol",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDevServer(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().BoolVar(&opts.noDocument, "no-document", false, "report that no document is loaded")
	return cmd
}

func runDevServer(cmd *cobra.Command, root *rootOptions, opts *devServerOptions) error {
	level := zapcore.InfoLevel
	if root.verbose {
		level = zapcore.DebugLevel
	}
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(level)
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("dev-server logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	srv := server.New(server.Config{
		Addr:       opts.addr,
		Logger:     logger,
		NoDocument: opts.noDocument,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", opts.addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errc
}
