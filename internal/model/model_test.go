// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewUserMessage(t *testing.T) {
	msg := NewUserMessage("Hello")

	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "Hello", msg.Content)
	assert.NotEmpty(t, msg.ID)
	assert.NotNil(t, msg.Sources)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestNewPlaceholder(t *testing.T) {
	msg := NewPlaceholder()

	assert.Equal(t, RoleAssistant, msg.Role)
	assert.True(t, msg.IsEmpty())
	assert.Empty(t, msg.Sources)
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewUserMessage("x").ID
		require.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestMessage_CloneIsDeep(t *testing.T) {
	msg := NewAssistantMessage("answer")
	msg.Sources = []SourceRef{{PageNumber: 1, Excerpt: "a"}}

	clone := msg.Clone()
	clone.Sources[0].Excerpt = "changed"

	assert.Equal(t, "a", msg.Sources[0].Excerpt)
}

func TestMessage_Preview(t *testing.T) {
	tests := []struct {
		name    string
		content string
		max     int
		want    string
	}{
		{"short", "hi", 10, "hi"},
		{"truncated", "hello world", 8, "hello..."},
		{"unicode", "héllo wörld", 8, "héllo..."},
		{"tiny limit", "hello", 2, "he"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewUserMessage(tc.content)
			assert.Equal(t, tc.want, m.Preview(tc.max))
		})
	}
}

func TestSourceRef_Valid(t *testing.T) {
	assert.True(t, SourceRef{PageNumber: 1}.Valid())
	assert.False(t, SourceRef{PageNumber: 0}.Valid())
	assert.False(t, SourceRef{PageNumber: -3}.Valid())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAssistant.Valid())
	assert.False(t, Role("system").Valid())
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversation_CloneIsDeep(t *testing.T) {
	conv := Conversation{ID: "session-1", Messages: []Message{NewUserMessage("q")}}

	clone := conv.Clone()
	clone.Messages[0].Content = "changed"
	clone.Messages = append(clone.Messages, NewPlaceholder())

	assert.Equal(t, "q", conv.Messages[0].Content)
	assert.Len(t, conv.Messages, 1)
}

func TestConversation_Accessors(t *testing.T) {
	conv := Conversation{}
	assert.True(t, conv.IsFresh())
	assert.Equal(t, DefaultName, conv.DisplayName())
	assert.Equal(t, "Empty conversation", conv.Preview(20))

	_, ok := conv.LastMessage()
	assert.False(t, ok)

	conv.Name = "Chat 1"
	conv.Messages = []Message{
		NewUserMessage("first question"),
		NewAssistantMessage("first answer"),
		NewUserMessage("second question"),
	}

	assert.False(t, conv.IsFresh())
	assert.Equal(t, 3, conv.MessageCount())
	assert.Equal(t, "Chat 1", conv.DisplayName())
	assert.Equal(t, "second question", conv.Preview(50))

	last, ok := conv.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "second question", last.Content)

	reply, ok := conv.LastAssistantMessage()
	require.True(t, ok)
	assert.Equal(t, "first answer", reply.Content)
}
