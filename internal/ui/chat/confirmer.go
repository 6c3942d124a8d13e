// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// DialogConfirmer is the session.Confirmer of the TUI. The dialog runs
// asynchronously inside the Bubble Tea loop, so the model records the
// user's answer with Approve before calling Delete, and ConfirmDelete
// consumes that answer.
type DialogConfirmer struct {
	mu       sync.Mutex
	approved string
}

// NewDialogConfirmer creates a confirmer with nothing approved.
func NewDialogConfirmer() *DialogConfirmer {
	return &DialogConfirmer{}
}

// Approve allows exactly one deletion of id.
func (c *DialogConfirmer) Approve(id string) {
	c.mu.Lock()
	c.approved = id
	c.mu.Unlock()
}

// ConfirmDelete reports whether conv was approved, and clears the approval.
func (c *DialogConfirmer) ConfirmDelete(conv model.Conversation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.approved != "" && c.approved == conv.ID
	c.approved = ""
	return ok
}
