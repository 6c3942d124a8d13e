// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// DefaultName is shown for a conversation whose name is empty.
const DefaultName = "New Conversation"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds one chat thread with its metadata.
//
// A Conversation value is a snapshot. The store hands out copies and never
// shares its own message slice.
type Conversation struct {
	// Identity
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	IsPinned  bool      `json:"is_pinned"`

	// Messages in send order.
	Messages []Message `json:"messages"`

	// Busy is true while an exchange is in flight for this conversation.
	Busy bool `json:"-"`

	// Draft is the pending, unsent input for this conversation.
	Draft string `json:"-"`
}

// Clone creates a deep copy of the conversation.
func (c Conversation) Clone() Conversation {
	c.Messages = CloneMessages(c.Messages)
	return c
}

// IsFresh returns true if nothing has been sent in the conversation yet.
func (c Conversation) IsFresh() bool {
	return len(c.Messages) == 0
}

// MessageCount returns the number of messages.
func (c Conversation) MessageCount() int {
	return len(c.Messages)
}

// LastMessage returns the most recent message and whether one exists.
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// LastAssistantMessage returns the most recent assistant message.
func (c Conversation) LastAssistantMessage() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// DisplayName returns the conversation name or a default.
func (c Conversation) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return DefaultName
}

// Preview returns a short preview of the conversation.
func (c Conversation) Preview(maxLen int) string {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleUser {
			return c.Messages[i].Preview(maxLen)
		}
	}
	return "Empty conversation"
}
