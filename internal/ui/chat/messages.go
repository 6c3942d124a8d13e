// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/exchange"
	"github.com/jeranaias/docchat-tui/internal/storage"
)

// =============================================================================
// BACKGROUND NOTIFICATIONS
// =============================================================================

// StoreChangedMsg reports that the conversation store was mutated.
type StoreChangedMsg struct {
	Change storage.Change
}

// ExchangeEventMsg reports an exchange state transition.
type ExchangeEventMsg struct {
	Event exchange.Event
}

// ConfigChangedMsg carries a config reloaded from disk.
type ConfigChangedMsg struct {
	Config *config.Config
}

// ConfigErrorMsg reports a config file that failed to reload.
type ConfigErrorMsg struct {
	Err error
}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// healthMsg is the result of a health check.
type healthMsg struct {
	Status *api.HealthStatus
	Err    error
}

// healthTickMsg schedules the next health check.
type healthTickMsg struct{}

// exportDoneMsg is the result of an export.
type exportDoneMsg struct {
	Path string
	Err  error
}

// copyDoneMsg is the result of a clipboard copy.
type copyDoneMsg struct {
	Err error
}
