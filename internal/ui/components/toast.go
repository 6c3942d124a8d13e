// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastKindStatus is an informational toast
	ToastKindStatus ToastKind = iota
	// ToastKindError is an error toast
	ToastKindError
	// ToastKindWarning is a warning toast
	ToastKindWarning
	// ToastKindSuccess is a success toast
	ToastKindSuccess
)

// DefaultToastDuration is the auto-dismiss duration for status toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts.
const ErrorToastDuration = 8 * time.Second

// Toast is a non-blocking notification shown in the status line.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the toast should be dismissed at now.
func (t Toast) IsExpired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// ToastExpiredMsg is delivered when a toast's duration has passed.
type ToastExpiredMsg struct {
	ID int
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toasts, newest first. It is owned by the
// Bubble Tea update loop and is not safe for concurrent use.
type ToastManager struct {
	toasts    []Toast
	nextID    int
	maxToasts int
	now       func() time.Time
}

// NewToastManager creates an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, maxToasts: 3, now: time.Now}
}

// Add shows a toast and returns the command that expires it.
func (m *ToastManager) Add(kind ToastKind, message string) tea.Cmd {
	d := DefaultToastDuration
	if kind == ToastKindError {
		d = ErrorToastDuration
	}
	t := Toast{
		ID:        m.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: m.now(),
		Duration:  d,
	}
	m.nextID++

	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}

	id := t.ID
	return tea.Tick(d, func(time.Time) tea.Msg { return ToastExpiredMsg{ID: id} })
}

// AddError is a convenience method to add an error toast.
func (m *ToastManager) AddError(message string) tea.Cmd {
	return m.Add(ToastKindError, message)
}

// AddStatus is a convenience method to add a status toast.
func (m *ToastManager) AddStatus(message string) tea.Cmd {
	return m.Add(ToastKindStatus, message)
}

// AddSuccess is a convenience method to add a success toast.
func (m *ToastManager) AddSuccess(message string) tea.Cmd {
	return m.Add(ToastKindSuccess, message)
}

// Remove removes a toast by ID.
func (m *ToastManager) Remove(id int) {
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// Current returns the newest toast, if any.
func (m *ToastManager) Current() (Toast, bool) {
	if len(m.toasts) == 0 {
		return Toast{}, false
	}
	return m.toasts[0], true
}

// Len returns the number of visible toasts.
func (m *ToastManager) Len() int {
	return len(m.toasts)
}

// Render renders the newest toast with its indicator.
func (m *ToastManager) Render() string {
	t, ok := m.Current()
	if !ok {
		return ""
	}
	switch t.Kind {
	case ToastKindError:
		return styles.RenderError(t.Message)
	case ToastKindWarning:
		return styles.RenderWarning(t.Message)
	case ToastKindSuccess:
		return styles.RenderSuccess(t.Message)
	default:
		return styles.RenderInfo(t.Message)
	}
}
