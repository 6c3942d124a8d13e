// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// =============================================================================
// SIDEBAR
// =============================================================================

// Sidebar renders the conversation list, pinned conversations first.
type Sidebar struct {
	theme  *styles.Theme
	title  string
	width  int
	height int

	items    []model.Conversation
	activeID string
	offset   int // first visible row
}

// NewSidebar creates a sidebar with the given title.
func NewSidebar(theme *styles.Theme, title string) *Sidebar {
	return &Sidebar{theme: theme, title: title, width: styles.SidebarWidth}
}

// SetTheme swaps the theme used for rendering.
func (s *Sidebar) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// SetTitle sets the heading above the list.
func (s *Sidebar) SetTitle(title string) {
	s.title = title
}

// SetSize updates the sidebar dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.scrollToActive()
}

// SetItems replaces the displayed conversations. items must already be in
// display order.
func (s *Sidebar) SetItems(items []model.Conversation, activeID string) {
	s.items = items
	s.activeID = activeID
	s.scrollToActive()
}

// Items returns the displayed conversations.
func (s *Sidebar) Items() []model.Conversation {
	return s.items
}

// Neighbor returns the id of the conversation delta rows away from the
// active one, clamped to the list. It returns "" for an empty list.
func (s *Sidebar) Neighbor(delta int) string {
	if len(s.items) == 0 {
		return ""
	}
	idx := s.indexOf(s.activeID)
	if idx < 0 {
		return s.items[0].ID
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(s.items) {
		idx = len(s.items) - 1
	}
	return s.items[idx].ID
}

func (s *Sidebar) indexOf(id string) int {
	for i, c := range s.items {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// visibleRows is the number of list rows that fit under the title.
func (s *Sidebar) visibleRows() int {
	rows := s.height - 2
	if rows < 1 {
		return len(s.items)
	}
	return rows
}

func (s *Sidebar) scrollToActive() {
	idx := s.indexOf(s.activeID)
	rows := s.visibleRows()
	if idx < 0 || rows <= 0 {
		s.offset = 0
		return
	}
	if idx < s.offset {
		s.offset = idx
	}
	if idx >= s.offset+rows {
		s.offset = idx - rows + 1
	}
	if max := len(s.items) - rows; s.offset > max {
		s.offset = max
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	inner := s.width - 3 // border and padding
	if inner < 4 {
		inner = 4
	}

	var b strings.Builder
	b.WriteString(s.theme.SidebarTitle.Render(util.TruncateWidth(s.title, inner)))
	b.WriteString("\n")

	end := s.offset + s.visibleRows()
	if end > len(s.items) {
		end = len(s.items)
	}
	for i := s.offset; i < end; i++ {
		b.WriteString(s.renderRow(s.items[i], inner))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	style := s.theme.Sidebar.Width(s.width - 1) // right border
	if s.height > 0 {
		style = style.Height(s.height)
	}
	return style.Render(b.String())
}

// renderRow renders one conversation as "<marker> <name>" padded to width.
func (s *Sidebar) renderRow(conv model.Conversation, width int) string {
	marker := " "
	switch {
	case conv.Busy:
		marker = styles.StatusIndicators.Busy
	case conv.IsPinned:
		marker = styles.StatusIndicators.Pinned
	}
	label := util.PadWidth(marker+" "+util.SingleLine(conv.DisplayName()), width)

	if conv.ID == s.activeID {
		return s.theme.SidebarActive.Render(label)
	}
	if conv.IsFresh() {
		return s.theme.SidebarMuted.Render(label)
	}
	return s.theme.SidebarItem.Render(label)
}
