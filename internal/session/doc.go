// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session wires user intents to the conversation store.
//
// The Controller is the thin layer between a front end (TUI or CLI) and
// the store: it applies the presentation policies that are not store
// invariants, such as keeping a single fresh conversation or refusing to
// delete the last one.
//
// # Key Types
//
//   - Controller: new/select/rename/pin/delete/reset/export intents
//   - Policies: optional behavior toggles
//   - Confirmer: external confirmation step for deletion
//
// # Usage
//
//	ctrl := session.NewController(session.Config{
//	    Store:     store,
//	    Exchanges: manager,
//	})
//	id := ctrl.EnsureOne()
//	if _, err := ctrl.New(); errors.Is(err, session.ErrFreshExists) {
//	    // existing empty conversation was selected instead
//	}
package session
