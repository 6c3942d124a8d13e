// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// CONFIRM DIALOG
// =============================================================================

// ConfirmResult is sent when the user answers the dialog.
type ConfirmResult struct {
	// Target identifies what was being confirmed, as passed to Show.
	Target   string
	Accepted bool
}

// Confirm is a modal yes/no dialog.
type Confirm struct {
	theme   *styles.Theme
	visible bool
	prompt  string
	target  string
	width   int
	height  int
}

// NewConfirm creates a hidden dialog.
func NewConfirm(theme *styles.Theme) *Confirm {
	return &Confirm{theme: theme}
}

// SetTheme swaps the theme used for rendering.
func (c *Confirm) SetTheme(theme *styles.Theme) {
	c.theme = theme
}

// Show displays the dialog for target.
func (c *Confirm) Show(target, prompt string) {
	c.target = target
	c.prompt = prompt
	c.visible = true
}

// Hide hides the dialog without answering.
func (c *Confirm) Hide() {
	c.visible = false
	c.target = ""
}

// IsVisible returns whether the dialog is visible.
func (c *Confirm) IsVisible() bool {
	return c.visible
}

// SetSize updates the area the dialog is centered in.
func (c *Confirm) SetSize(width, height int) {
	c.width = width
	c.height = height
}

// Update handles key events while visible. handled is false when the dialog
// is hidden so the caller can route the message elsewhere.
func (c *Confirm) Update(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	if !c.visible {
		return nil, false
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}

	var accepted bool
	switch key.String() {
	case "y", "Y", "s", "S", "enter":
		accepted = true
	case "n", "N", "esc", "ctrl+c":
		accepted = false
	default:
		return nil, true
	}

	result := ConfirmResult{Target: c.target, Accepted: accepted}
	c.Hide()
	return func() tea.Msg { return result }, true
}

// View renders the dialog centered in its area, or "" when hidden.
func (c *Confirm) View() string {
	if !c.visible {
		return ""
	}
	box := c.theme.Dialog.Render(c.prompt)
	if c.width <= 0 || c.height <= 0 {
		return box
	}
	return lipgloss.Place(c.width, c.height, lipgloss.Center, lipgloss.Center, box)
}
