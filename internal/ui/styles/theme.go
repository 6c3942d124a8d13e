// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
)

// SidebarWidth is the width of the conversation list in the full layout.
const SidebarWidth = 28

// Theme holds all the styled components for the application.
type Theme struct {
	Name   string
	IsDark bool

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar       lipgloss.Style
	SidebarTitle  lipgloss.Style
	SidebarItem   lipgloss.Style
	SidebarActive lipgloss.Style
	SidebarMuted  lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	ErrorText      lipgloss.Style
	SourcesTitle   lipgloss.Style
	SourceItem     lipgloss.Style
	Welcome        lipgloss.Style

	// ==========================================================================
	// INPUT & STATUS
	// ==========================================================================

	InputBorder   lipgloss.Style
	StatusBar     lipgloss.Style
	StatusOK      lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	Help          lipgloss.Style
	Dialog        lipgloss.Style
}

// NewTheme creates the named theme. Unknown names fall back to auto, which
// asks the terminal for its background color.
func NewTheme(name string) *Theme {
	name = strings.ToLower(strings.TrimSpace(name))
	t := &Theme{Name: name}
	switch name {
	case ThemeDark:
		t.IsDark = true
	case ThemeLight:
		t.IsDark = false
	default:
		t.Name = ThemeAuto
		t.IsDark = termenv.HasDarkBackground()
	}
	lipgloss.SetHasDarkBackground(t.IsDark)
	t.initStyles()
	return t
}

// GlamourStyle returns the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

func (t *Theme) initStyles() {
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SidebarTitle = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true).
		MarginBottom(1)

	t.SidebarItem = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.SidebarActive = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Background(SelectionBg).
		Bold(true)

	t.SidebarMuted = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Purple).
		Bold(true)

	t.UserText = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(2)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose).
		PaddingLeft(2)

	t.SourcesTitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true).
		PaddingLeft(2)

	t.SourceItem = lipgloss.NewStyle().
		Foreground(TextMuted).
		PaddingLeft(4)

	t.Welcome = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(1, 2)

	t.InputBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Background(SurfaceDim).
		Padding(0, 1)

	t.StatusOK = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusWarning = lipgloss.NewStyle().Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose)

	t.Help = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Dialog = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Amber).
		Padding(1, 2)
}

// SetSize records the terminal size.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the layout for the current width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 80 {
		return LayoutCompact
	}
	return LayoutFull
}

// LayoutMode selects which panes are shown.
type LayoutMode int

const (
	// LayoutFull shows the sidebar next to the message pane.
	LayoutFull LayoutMode = iota
	// LayoutCompact hides the sidebar on narrow terminals.
	LayoutCompact
)
