// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for docchat.
//
// Configuration is TOML, with sensible defaults, environment variable
// overrides, and validation that reports every problem at once.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - APIConfig: chat service address, timeouts and pacing
//   - UIConfig: language, theme and conversation policies
//   - Watcher: reloads the file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DOCCHAT_*)
//   - the --config flag, or ~/.docchat/config.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Follow edits:
//
//	w, err := config.Watch(path, 0, func(cfg *config.Config) { ... }, nil)
//	defer w.Close()
package config
