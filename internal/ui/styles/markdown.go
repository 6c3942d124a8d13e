// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// Markdown renders assistant answers for the terminal. Renderers are built
// lazily per wrap width; a width change rebuilds it. Safe for concurrent use.
type Markdown struct {
	style string

	mu       sync.Mutex
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdown creates a renderer using a glamour standard style name such
// as "dark", "light" or "ascii".
func NewMarkdown(style string) *Markdown {
	return &Markdown{style: style}
}

// Render renders content wrapped at width. It returns content unchanged if
// rendering fails.
func (m *Markdown) Render(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return content
	}
	r := m.rendererFor(width)
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (m *Markdown) rendererFor(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.renderer != nil && m.width == width {
		return m.renderer
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
		glamour.WithColorProfile(lipgloss.ColorProfile()),
	)
	if err != nil {
		return nil
	}
	m.renderer, m.width = r, width
	return r
}
