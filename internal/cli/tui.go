// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/locale"
	"github.com/jeranaias/docchat-tui/internal/ui/chat"
)

// errNoTerminal is returned when the TUI is started without a terminal.
var errNoTerminal = errors.New("the full-screen client needs a terminal; use 'docchat ask' or 'docchat chat' instead")

// runTUI opens the full-screen client.
func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errNoTerminal
	}

	fwd := chat.NewForwarder()
	confirmer := chat.NewDialogConfirmer()
	a, err := wireApp(opts, wireOptions{
		Confirmer: confirmer,
		Observer:  fwd.ExchangeEvent,
	})
	if err != nil {
		return err
	}
	defer a.close()
	a.store.OnChange(fwd.StoreChanged)

	// The file may not exist yet; edits are picked up once it does, as long
	// as its directory exists.
	watcher, err := config.Watch(a.configPath, 0, fwd.ConfigChanged, fwd.ConfigError)
	if err != nil {
		a.logger.Debug("config watch disabled", zap.Error(err))
	} else {
		defer watcher.Close()
	}

	m := chat.New(chat.Options{
		Controller: a.ctrl,
		Store:      a.store,
		Confirmer:  confirmer,
		Health:     a.client,
		Texts:      a.texts,
		Theme:      a.cfg.UI.Theme,
		ShowStats:  a.cfg.UI.ShowStats,
		Logger:     a.logger.Named("tui"),
		Context:    cmd.Context(),
		OnConfig: func(cfg *config.Config) {
			a.manager.SetTexts(locale.New(cfg.UI.Language))
		},
	})

	a.logger.Info("tui started", zap.String("base_url", a.client.BaseURL()))
	return chat.Run(cmd.Context(), m, fwd)
}
