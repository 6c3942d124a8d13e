// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable widgets of the docchat TUI: the
// conversation sidebar, the delete confirmation dialog, toast notifications
// and the status bar. Components render with a *styles.Theme and hold no
// conversation state of their own beyond the snapshot they were given.
package components
