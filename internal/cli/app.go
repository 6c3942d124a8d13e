// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/exchange"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/locale"
	"github.com/jeranaias/docchat-tui/internal/logging"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/storage"
)

// shutdownTimeout bounds the wait for in-flight exchanges on exit.
const shutdownTimeout = 5 * time.Second

// rootOptions holds the persistent flags.
type rootOptions struct {
	configPath string
	baseURL    string
	verbose    bool
}

// app is the component graph shared by every command.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *zap.Logger
	texts      *locale.Localizer
	client     *api.Client
	store      *storage.ConversationStore
	manager    *exchange.Manager
	ctrl       *session.Controller
}

// wireOptions are the per-command hooks into the graph.
type wireOptions struct {
	Confirmer session.Confirmer
	Observer  exchange.Observer
}

// resolveConfigPath returns --config or the default location.
func (o *rootOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return config.ConfigPathTOML()
}

// loadConfig reads the config file and applies flag overrides. An explicit
// --config must exist; the default location may be absent.
func (o *rootOptions) loadConfig() (*config.Config, string, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return nil, "", err
	}

	var cfg *config.Config
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}

	if o.baseURL != "" {
		cfg.API.BaseURL = o.baseURL
		if err := cfg.Validate(); err != nil {
			return nil, path, fmt.Errorf("--base-url: %w", err)
		}
	}
	return cfg, path, nil
}

// wireApp builds the component graph from the config.
func wireApp(o *rootOptions, w wireOptions) (*app, error) {
	cfg, path, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logFile, err := cfg.LogFile()
	if err != nil {
		logFile = ""
	}
	logger, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    logFile,
		Verbose: o.verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	exporter, err := export.ForFormat(cfg.Export.Format)
	if err != nil {
		return nil, fmt.Errorf("wire exporter: %w", err)
	}

	texts := locale.New(cfg.UI.Language)
	client := api.NewClient(&api.ClientConfig{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.RequestTimeout(),
		StreamTimeout:     cfg.StreamTimeout(),
		RequestsPerMinute: cfg.API.RequestsPerMinute,
	}, logger.Named("api"))

	store := storage.NewConversationStore()
	manager := exchange.NewManager(exchange.Config{
		Store:     store,
		Transport: client,
		Texts:     texts,
		Logger:    logger.Named("exchange"),
		Observer:  w.Observer,
		Exporter:  exporter,
	})
	ctrl := session.NewController(session.Config{
		Store:     store,
		Exchanges: manager,
		Policies: &session.Policies{
			SingleFreshConversation: cfg.UI.SingleFreshConversation,
			KeepLastConversation:    cfg.UI.KeepLastConversation,
		},
		Confirmer: w.Confirmer,
		Export:    &export.Options{OutputDir: cfg.Export.OutputDir},
		Logger:    logger.Named("session"),
	})

	logger.Debug("app wired",
		zap.String("config", path),
		zap.String("base_url", client.BaseURL()),
		zap.String("language", texts.Tag().String()))

	return &app{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		texts:      texts,
		client:     client,
		store:      store,
		manager:    manager,
		ctrl:       ctrl,
	}, nil
}

// close cancels what is still in flight and flushes the log.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.manager.Shutdown(ctx); err != nil {
		a.logger.Warn("exchanges still running at exit", zap.Error(err))
	}
	_ = a.logger.Sync()
}
