// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/docchat-tui/internal/locale"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// excerptWidth bounds the excerpt shown next to a cited page.
const excerptWidth = 80

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the whole screen. Its height equals the terminal height.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	status := m.status.View(m.toasts.Render())

	var body string
	if m.confirm.IsVisible() {
		body = m.confirm.View()
	} else {
		main := lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), m.renderInput())
		if m.theme.GetLayoutMode() == styles.LayoutFull {
			body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
		} else {
			body = main
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, status)
}

func (m *Model) renderInput() string {
	box := m.theme.InputBorder.Width(m.mainWidth() - 2)
	if m.renaming {
		return box.Height(inputLines).Render(m.rename.View())
	}
	return box.Render(m.input.View())
}

// =============================================================================
// MESSAGE PANE
// =============================================================================

// renderConversation rebuilds the viewport content from the active
// conversation. The view follows new output while it is scrolled to the
// bottom; toBottom forces it there.
func (m *Model) renderConversation(toBottom bool) {
	conv, err := m.store.Get(m.activeID)
	if err != nil || conv.IsFresh() {
		m.viewport.SetContent(m.renderWelcome())
		m.viewport.GotoTop()
		return
	}

	var b strings.Builder
	for i, msg := range conv.Messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		streaming := conv.Busy && i == len(conv.Messages)-1 && msg.Role == model.RoleAssistant
		b.WriteString(m.renderMessage(msg, streaming))
	}

	follow := toBottom || m.viewport.AtBottom()
	m.viewport.SetContent(b.String())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderWelcome() string {
	title := m.theme.SidebarTitle.Render(m.texts.Text(locale.WelcomeTitle))
	return m.theme.Welcome.Render(title + "\n" + m.texts.Text(locale.WelcomeBody))
}

// renderMessage renders one message with its role label. A streaming reply
// is shown as plain wrapped text; markdown is rendered once it is final.
func (m *Model) renderMessage(msg model.Message, streaming bool) string {
	width := m.contentWidth()

	if msg.Role == model.RoleUser {
		label := m.theme.UserLabel.Render(m.texts.Text(locale.RoleUser))
		return label + "\n" + m.theme.UserText.Width(width).Render(msg.Content)
	}

	label := m.theme.AssistantLabel.Render(m.texts.Text(locale.RoleAssistant))
	if streaming {
		if msg.Content == "" {
			return label + "\n  " + m.spinner.View() + " " + m.texts.Text(locale.Typing)
		}
		return label + "\n" + m.theme.UserText.Width(width).Render(msg.Content) + " " + m.spinner.View()
	}

	out := label + "\n" + m.renderMarkdown(msg, width)
	if sources := m.renderSources(msg); sources != "" {
		out += "\n" + sources
	}
	return out
}

// renderMarkdown renders a finished reply, reusing the cached output while
// the content and width are unchanged.
func (m *Model) renderMarkdown(msg model.Message, width int) string {
	if cached, ok := m.rendered[msg.ID]; ok && cached.content == msg.Content && cached.width == width {
		return cached.out
	}
	out := m.markdown.Render(msg.Content, width)
	m.rendered[msg.ID] = renderedMessage{content: msg.Content, width: width, out: out}
	return out
}

// renderSources lists the sources the answer actually cites.
func (m *Model) renderSources(msg model.Message) string {
	cited := m.extractor.FilterSources(msg.Content, msg.Sources)
	if len(cited) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.SourcesTitle.Render(m.texts.Text(locale.SourcesLabel)))
	for _, src := range cited {
		line := m.texts.Text(locale.PageLabel, src.PageNumber)
		if excerpt := util.SingleLine(src.Excerpt); excerpt != "" {
			line = fmt.Sprintf("%s: %s", line, util.TruncateRunes(excerpt, excerptWidth))
		}
		b.WriteString("\n")
		b.WriteString(m.theme.SourceItem.Render(line))
	}
	return b.String()
}
