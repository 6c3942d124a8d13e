// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the docchat command tree.
//
// Running docchat without a subcommand opens the full-screen TUI. The other
// commands work on a plain terminal or a pipe:
//
//	docchat ask QUESTION...      one-shot answers, questions run concurrently
//	docchat chat                 line-mode REPL with input history
//	docchat health               backend health check
//	docchat config show|path|init|get|set|keys
//	docchat version
//	docchat dev-server           local echo service speaking the same protocol (hidden)
//
// Persistent flags:
//
//	--config PATH    config file (default ~/.docchat/config.toml)
//	--base-url URL   override api.base_url
//	--verbose        debug logging
//
// Every command wires the same components: a conversation store, an
// exchange manager over the HTTP client, and a session controller. Output
// uses colors and markdown rendering only when stdout is a terminal and
// NO_COLOR is unset.
package cli
