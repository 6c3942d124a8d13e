// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the docchat TUI.

All colors use Lip Gloss AdaptiveColor so one palette serves light and dark
terminals; NewTheme fixes which side is used ("dark", "light", or "auto" to
ask the terminal).

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	md := styles.NewMarkdown(theme.GlamourStyle())
	rendered := md.Render(answer, width)

Status messages always carry an ASCII indicator next to their color:

	styles.RenderError("Service unreachable") // "[X] Service unreachable"
*/
package styles
