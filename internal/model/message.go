// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/docchat-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// =============================================================================
// SOURCE REFERENCE
// =============================================================================

// SourceRef is a page of the grounding document the backend used for an answer.
type SourceRef struct {
	PageNumber int    `json:"page_number"`
	Excerpt    string `json:"excerpt,omitempty"`
	Document   string `json:"document,omitempty"`
}

// Valid reports whether the reference points at a real page.
func (s SourceRef) Valid() bool {
	return s.PageNumber >= 1
}

// CloneSources returns an independent copy of a source list.
// A nil input yields an empty, non-nil slice.
func CloneSources(src []SourceRef) []SourceRef {
	out := make([]SourceRef, len(src))
	copy(out, src)
	return out
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content is append-only while an assistant reply is streaming.
	Content string `json:"content"`

	// Sources is only populated on assistant messages.
	Sources []SourceRef `json:"sources"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Sources:   []SourceRef{},
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewPlaceholder creates the empty assistant message inserted before any
// response content has arrived.
func NewPlaceholder() Message {
	return NewMessage(RoleAssistant, "")
}

// NewAssistantMessage creates a finished assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	m.Sources = CloneSources(m.Sources)
	return m
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// Preview returns a one-line preview of the message content, truncated to
// maxLen runes.
func (m Message) Preview(maxLen int) string {
	return util.TruncateRunes(util.SingleLine(m.Content), maxLen)
}

// CloneMessages returns a deep copy of a message list.
func CloneMessages(msgs []Message) []Message {
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
