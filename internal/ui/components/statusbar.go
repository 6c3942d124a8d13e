// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// HealthState is the backend state shown at the left of the status bar.
type HealthState int

const (
	HealthUnknown HealthState = iota
	HealthOK
	HealthNoDocument
	HealthDown
)

// StatusBar is the single line at the bottom of the screen: backend health
// on the left, then a toast or the key hint, then exchange statistics on
// the right.
type StatusBar struct {
	theme *styles.Theme
	width int

	health     HealthState
	healthText string
	stats      string
	hint       string
}

// NewStatusBar creates an empty status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// SetTheme swaps the theme used for rendering.
func (s *StatusBar) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// SetWidth sets the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetHealth sets the backend state and its label.
func (s *StatusBar) SetHealth(state HealthState, text string) {
	s.health = state
	s.healthText = text
}

// SetStats sets the right-hand statistics text.
func (s *StatusBar) SetStats(stats string) {
	s.stats = stats
}

// SetHint sets the key hint shown when no toast is visible.
func (s *StatusBar) SetHint(hint string) {
	s.hint = hint
}

// View renders the bar. message, when not empty, replaces the hint.
func (s *StatusBar) View(message string) string {
	left := ""
	switch s.health {
	case HealthOK:
		left = s.theme.StatusOK.Render(s.healthText)
	case HealthNoDocument:
		left = s.theme.StatusWarning.Render(s.healthText)
	case HealthDown:
		left = s.theme.StatusError.Render(s.healthText)
	}

	middle := message
	if middle == "" {
		middle = s.theme.Help.Render(s.hint)
	}

	line := left
	if left != "" {
		line += "  "
	}
	line += middle

	// Statistics are dropped before the hint when space runs out; the final
	// MaxWidth clips whatever is left.
	inner := s.width - 2
	if gap := inner - lipgloss.Width(line) - lipgloss.Width(s.stats); s.stats != "" && gap > 0 {
		line += strings.Repeat(" ", gap) + s.stats
	}
	if s.width <= 0 {
		return s.theme.StatusBar.Render(line)
	}
	return s.theme.StatusBar.Width(s.width).MaxWidth(s.width).MaxHeight(1).Render(line)
}
