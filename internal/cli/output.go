// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TERMINAL
// =============================================================================

const (
	fallbackWidth = 80
	minWrapWidth  = 40
)

// fileTerminal reports whether v is an *os.File attached to a terminal. The
// buffers and pipes commands write to under test never are.
func fileTerminal(v any) (*os.File, bool) {
	f, ok := v.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, false
	}
	return f, true
}

func isTerminal(v any) bool {
	_, ok := fileTerminal(v)
	return ok
}

// wrapWidth is the column count to wrap output for w at.
func wrapWidth(w io.Writer) int {
	f, ok := fileTerminal(w)
	if !ok {
		return fallbackWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	switch {
	case err != nil || width <= 0:
		return fallbackWidth
	case width < minWrapWidth:
		return minWrapWidth
	}
	return width
}

var colorOnce = sync.OnceValue(func() bool {
	// https://no-color.org/ takes precedence over FORCE_COLOR.
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return isTerminal(os.Stdout)
})

// useColor reports whether styled output should be produced.
func useColor() bool { return colorOnce() }

// =============================================================================
// STYLES
// =============================================================================

// palette groups the styles the line-mode commands print with.
type palette struct {
	title lipgloss.Style // question headers, section titles
	label lipgloss.Style // fixed-width field names
	ok    lipgloss.Style
	fail  lipgloss.Style
	warn  lipgloss.Style // cancellations, degraded health
	dim   lipgloss.Style // excerpts and hints
}

var styles = newPalette()

func newPalette() palette {
	profile := termenv.Ascii
	if useColor() {
		profile = termenv.ColorProfile()
	}
	lipgloss.SetColorProfile(profile)

	return palette{
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12),
		ok:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		fail:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		warn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}
