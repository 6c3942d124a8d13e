// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/docchat-tui/internal/exchange"
	"github.com/jeranaias/docchat-tui/internal/locale"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/ui/components"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// =============================================================================
// UPDATE
// =============================================================================

// Update handles incoming messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case components.ConfirmResult:
		return m, m.handleConfirm(msg)

	case components.ToastExpiredMsg:
		m.toasts.Remove(msg.ID)
		return m, nil

	case StoreChangedMsg:
		m.refresh()
		return m, nil

	case ExchangeEventMsg:
		return m, m.handleExchangeEvent(msg.Event)

	case spinner.TickMsg:
		if !m.anyBusy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.renderConversation(false)
		return m, cmd

	case healthMsg:
		m.applyHealth(msg)
		return m, tea.Tick(healthInterval, func(time.Time) tea.Msg { return healthTickMsg{} })

	case healthTickMsg:
		return m, m.checkHealth()

	case exportDoneMsg:
		if msg.Err != nil {
			return m, m.toasts.AddError(msg.Err.Error())
		}
		return m, m.toasts.AddSuccess(m.texts.Text(locale.Exported, msg.Path))

	case copyDoneMsg:
		if msg.Err != nil {
			return m, m.toasts.AddError(msg.Err.Error())
		}
		return m, m.toasts.AddSuccess(m.texts.Text(locale.Copied))

	case ConfigChangedMsg:
		m.applyConfig(msg)
		return m, nil

	case ConfigErrorMsg:
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		return m, m.toasts.AddError(msg.Err.Error())
	}

	// Everything else (cursor blink, paste) belongs to the focused input.
	var cmd tea.Cmd
	if m.renaming {
		m.rename, cmd = m.rename.Update(msg)
	} else {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if cmd, handled := m.confirm.Update(msg); handled {
		return cmd
	}
	if m.renaming {
		return m.handleRenameKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Send):
		return m.send()

	case key.Matches(msg, m.keys.Cancel):
		if m.ctrl.Cancel(m.activeID) {
			return m.toasts.AddStatus(m.texts.Text(locale.Cancelled))
		}
		return nil

	case key.Matches(msg, m.keys.New):
		m.saveDraft()
		_, err := m.ctrl.New()
		m.refresh()
		if errors.Is(err, session.ErrFreshExists) {
			return m.toasts.AddStatus(m.texts.Text(locale.FreshExists))
		}
		return m.errorToast(err)

	case key.Matches(msg, m.keys.Pin):
		pinned, err := m.ctrl.TogglePin(m.activeID)
		if err != nil {
			return m.errorToast(err)
		}
		m.refresh()
		if pinned {
			return m.toasts.AddStatus(m.texts.Text(locale.Pinned))
		}
		return m.toasts.AddStatus(m.texts.Text(locale.Unpinned))

	case key.Matches(msg, m.keys.Rename):
		conv, err := m.store.Get(m.activeID)
		if err != nil {
			return m.errorToast(err)
		}
		m.renaming = true
		m.input.Blur()
		m.rename.SetValue(conv.Name)
		m.rename.CursorEnd()
		return m.rename.Focus()

	case key.Matches(msg, m.keys.Delete):
		if !m.ctrl.CanDelete(m.activeID) {
			return m.toasts.AddStatus(m.texts.Text(locale.LastConversation))
		}
		conv, err := m.store.Get(m.activeID)
		if err != nil {
			return m.errorToast(err)
		}
		m.confirm.Show(conv.ID, m.texts.Text(locale.ConfirmDelete, conv.DisplayName()))
		return nil

	case key.Matches(msg, m.keys.Export):
		id := m.activeID
		return func() tea.Msg {
			path, err := m.ctrl.Export(id)
			return exportDoneMsg{Path: path, Err: err}
		}

	case key.Matches(msg, m.keys.Reset):
		if err := m.ctrl.Reset(m.activeID); err != nil {
			return m.errorToast(err)
		}
		m.input.Reset()
		m.status.SetStats("")
		m.refresh()
		return nil

	case key.Matches(msg, m.keys.Copy):
		return m.copyLastAnswer()

	case key.Matches(msg, m.keys.Next):
		return m.selectConversation(m.sidebar.Neighbor(1))

	case key.Matches(msg, m.keys.Prev):
		return m.selectConversation(m.sidebar.Neighbor(-1))

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		name := m.rename.Value()
		m.endRename()
		if _, err := m.ctrl.Rename(m.activeID, name); err != nil {
			return m.errorToast(err)
		}
		m.refresh()
		return nil
	case tea.KeyEsc:
		m.endRename()
		return nil
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return cmd
}

func (m *Model) endRename() {
	m.renaming = false
	m.rename.Blur()
	m.rename.Reset()
	m.input.Focus()
}

func (m *Model) handleConfirm(res components.ConfirmResult) tea.Cmd {
	if !res.Accepted {
		return nil
	}
	m.confirmer.Approve(res.Target)
	err := m.ctrl.Delete(res.Target)
	m.refresh()
	if errors.Is(err, session.ErrLastConversation) {
		return m.toasts.AddStatus(m.texts.Text(locale.LastConversation))
	}
	return m.errorToast(err)
}

// =============================================================================
// INTENTS
// =============================================================================

// send starts an exchange with the input text on the active conversation.
func (m *Model) send() tea.Cmd {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	_, err := m.ctrl.Send(m.ctx, m.activeID, text)
	switch {
	case errors.Is(err, exchange.ErrBusy):
		return m.toasts.AddStatus(m.texts.Text(locale.Busy))
	case err != nil:
		return m.errorToast(err)
	}

	m.input.Reset()
	m.status.SetStats("")
	m.refresh()
	m.renderConversation(true)
	return m.startSpinner()
}

// selectConversation switches the message pane to id, keeping each
// conversation's unsent input as its draft.
func (m *Model) selectConversation(id string) tea.Cmd {
	if id == "" || id == m.activeID {
		return nil
	}
	m.saveDraft()
	if err := m.ctrl.Select(id); err != nil {
		return m.errorToast(err)
	}
	m.refresh()
	return nil
}

func (m *Model) saveDraft() {
	if m.activeID == "" {
		return
	}
	conv, err := m.store.Get(m.activeID)
	if err != nil || conv.Draft == m.input.Value() {
		return
	}
	_ = m.store.SetDraft(m.activeID, m.input.Value())
}

func (m *Model) copyLastAnswer() tea.Cmd {
	conv, err := m.store.Get(m.activeID)
	if err != nil {
		return m.errorToast(err)
	}
	msg, ok := conv.LastAssistantMessage()
	if !ok || msg.Content == "" {
		return nil
	}
	content := msg.Content
	return func() tea.Msg {
		return copyDoneMsg{Err: writeClipboard(content)}
	}
}

func (m *Model) errorToast(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	m.logger.Debug("intent failed", zap.String("conversation_id", m.activeID), zap.Error(err))
	return m.toasts.AddError(err.Error())
}

// =============================================================================
// BACKGROUND EVENTS
// =============================================================================

func (m *Model) handleExchangeEvent(ev exchange.Event) tea.Cmd {
	if ev.Outcome != nil && ev.ConversationID == m.activeID && m.showStats &&
		ev.Outcome.State == exchange.StateCompleted {
		m.status.SetStats(ev.Outcome.Stats.Format())
	}
	m.refresh()
	if ev.Outcome == nil {
		return m.startSpinner()
	}
	return nil
}

func (m *Model) startSpinner() tea.Cmd {
	if m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) anyBusy() bool {
	for _, conv := range m.sidebar.Items() {
		if conv.Busy {
			return true
		}
	}
	return false
}

func (m *Model) checkHealth() tea.Cmd {
	if m.health == nil {
		return nil
	}
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, healthTimeout)
		defer cancel()
		status, err := m.health.Health(ctx)
		return healthMsg{Status: status, Err: err}
	}
}

func (m *Model) applyHealth(msg healthMsg) {
	switch {
	case msg.Err != nil || msg.Status == nil:
		m.status.SetHealth(components.HealthDown, m.texts.Text(locale.HealthDown))
	case msg.Status.Healthy():
		m.status.SetHealth(components.HealthOK, m.texts.Text(locale.HealthOK))
	default:
		m.status.SetHealth(components.HealthNoDocument, m.texts.Text(locale.HealthNoDocument))
	}
}

// applyConfig applies the settings that can change while running: language,
// theme and statistics display.
func (m *Model) applyConfig(msg ConfigChangedMsg) {
	cfg := msg.Config
	if cfg == nil {
		return
	}
	if locale.New(cfg.UI.Language).Tag() != m.texts.Tag() {
		m.texts = locale.New(cfg.UI.Language)
		m.applyTexts()
	}
	m.applyTheme(cfg.UI.Theme)
	m.showStats = cfg.UI.ShowStats
	if !m.showStats {
		m.status.SetStats("")
	}
	if m.ready {
		m.resize(m.width, m.height)
	}
	m.refresh()

	m.logger.Info("config reloaded",
		zap.String("language", m.texts.Tag().String()),
		zap.String("theme", m.theme.Name))
	if m.onConfig != nil {
		m.onConfig(cfg)
	}
}

// =============================================================================
// REFRESH
// =============================================================================

// refresh re-reads the store into the sidebar and message pane. When the
// active conversation changed, the input switches to its draft.
func (m *Model) refresh() {
	prev := m.activeID
	m.activeID = m.store.ActiveID()
	m.sidebar.SetItems(m.store.ListSorted(), m.activeID)

	switched := prev != m.activeID
	if switched {
		m.input.Reset()
		if conv, err := m.store.Get(m.activeID); err == nil {
			m.input.SetValue(conv.Draft)
		}
		m.status.SetStats("")
		m.pruneRendered()
	}
	m.renderConversation(switched)
}

// pruneRendered drops cached renders of messages no longer in any
// conversation.
func (m *Model) pruneRendered() {
	live := make(map[string]struct{})
	for _, conv := range m.store.List() {
		for _, msg := range conv.Messages {
			if msg.Role == model.RoleAssistant {
				live[msg.ID] = struct{}{}
			}
		}
	}
	for id := range m.rendered {
		if _, ok := live[id]; !ok {
			delete(m.rendered, id)
		}
	}
}
