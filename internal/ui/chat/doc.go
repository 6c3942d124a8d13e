// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen Bubble Tea interface of docchat.
//
// The model never mutates conversations itself. Every intent goes through a
// *session.Controller, and the model redraws from store snapshots when the
// store or an exchange reports a change. Those reports arrive on other
// goroutines; a Forwarder queues them and hands them to the tea.Program.
//
// Layout (full width):
//
//	+-------------+--------------------------------+
//	| sidebar     | messages (viewport)            |
//	|             |                                |
//	|             +--------------------------------+
//	|             | input (textarea)               |
//	+-------------+--------------------------------+
//	| status bar                                   |
//	+----------------------------------------------+
//
// Below 80 columns the sidebar is hidden.
package chat
