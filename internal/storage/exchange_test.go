// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat-tui/internal/model"
)

func TestBeginExchange(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	require.NoError(t, s.SetDraft(id, "What does section 4 say?"))

	ticket, err := s.BeginExchange(id, "What does section 4 say?")
	require.NoError(t, err)
	assert.Equal(t, id, ticket.ConversationID)
	assert.Equal(t, id, ticket.SessionKey)
	assert.Equal(t, 0, ticket.Base)
	assert.Equal(t, 1, ticket.Placeholder)

	conv, _ := s.Get(id)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, model.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "What does section 4 say?", conv.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, "", conv.Messages[1].Content)
	assert.True(t, conv.Busy)
	assert.Equal(t, "", conv.Draft)

	_, err = s.BeginExchange(id, "again")
	assert.ErrorIs(t, err, ErrBusy)

	_, err = s.BeginExchange("session-missing", "x")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestExchange_StreamAndComplete(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	ticket, err := s.BeginExchange(id, "q")
	require.NoError(t, err)

	require.NoError(t, s.AppendContent(ticket, "Chapter 2 "))
	require.NoError(t, s.AppendContent(ticket, ""))
	require.NoError(t, s.AppendContent(ticket, "covers pricing [Page 4]"))
	require.NoError(t, s.SetSources(ticket, []model.SourceRef{{PageNumber: 4}}))
	require.NoError(t, s.CompleteExchange(ticket))

	conv, _ := s.Get(id)
	assert.False(t, conv.Busy)
	assert.Equal(t, "Chapter 2 covers pricing [Page 4]", conv.Messages[1].Content)
	assert.Equal(t, []model.SourceRef{{PageNumber: 4}}, conv.Messages[1].Sources)
}

func TestExchange_CancelRestoresPriorMessages(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	first, err := s.BeginExchange(id, "first question")
	require.NoError(t, err)
	require.NoError(t, s.AppendContent(first, "first answer"))
	require.NoError(t, s.CompleteExchange(first))

	before, _ := s.Get(id)

	second, err := s.BeginExchange(id, "second question")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Base)
	require.NoError(t, s.AppendContent(second, "partial"))
	require.NoError(t, s.CancelExchange(second))

	after, _ := s.Get(id)
	assert.Equal(t, before.Messages, after.Messages)
	assert.False(t, after.Busy)
}

func TestExchange_Fail(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	ticket, err := s.BeginExchange(id, "q")
	require.NoError(t, err)
	require.NoError(t, s.SetSources(ticket, []model.SourceRef{{PageNumber: 2}}))
	require.NoError(t, s.AppendContent(ticket, "half an ans"))

	require.NoError(t, s.FailExchange(ticket, "Network error."))

	conv, _ := s.Get(id)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "q", conv.Messages[0].Content)
	assert.Equal(t, "Network error.", conv.Messages[1].Content)
	assert.Empty(t, conv.Messages[1].Sources)
	assert.False(t, conv.Busy)
}

func TestExchange_StaleAfterDelete(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	ticket, err := s.BeginExchange(id, "q")
	require.NoError(t, err)
	require.NoError(t, s.Delete(id))

	assert.ErrorIs(t, s.AppendContent(ticket, "late"), ErrStaleTicket)
	assert.ErrorIs(t, s.AppendContent(ticket, ""), ErrStaleTicket, "an empty fragment still checks the ticket")
	assert.ErrorIs(t, s.SetSources(ticket, nil), ErrStaleTicket)
	assert.ErrorIs(t, s.CompleteExchange(ticket), ErrStaleTicket)
}

func TestExchange_StaleAfterClear(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	ticket, err := s.BeginExchange(id, "q")
	require.NoError(t, err)
	require.NoError(t, s.Clear(id))

	conv, _ := s.Get(id)
	assert.False(t, conv.Busy, "clear releases the busy flag")

	// A new exchange may start while the old one winds down.
	next, err := s.BeginExchange(id, "fresh question")
	require.NoError(t, err)
	assert.Equal(t, id+"-r1", next.SessionKey)

	assert.ErrorIs(t, s.AppendContent(ticket, "late"), ErrStaleTicket)
	assert.ErrorIs(t, s.CancelExchange(ticket), ErrStaleTicket)

	conv, _ = s.Get(id)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "fresh question", conv.Messages[0].Content)
	assert.True(t, conv.Busy, "stale ticket must not release the new exchange")
}

func TestExchange_ReplacedPlaceholderReleasesBusy(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	ticket, err := s.BeginExchange(id, "q")
	require.NoError(t, err)

	require.NoError(t, s.ReplaceMessages(id, []model.Message{model.NewUserMessage("imported")}))
	assert.ErrorIs(t, s.AppendContent(ticket, "x"), ErrStaleTicket)
	assert.ErrorIs(t, s.CompleteExchange(ticket), ErrStaleTicket)

	conv, _ := s.Get(id)
	assert.False(t, conv.Busy)
	assert.Equal(t, "imported", conv.Messages[0].Content)
}

func TestExchange_ConversationsAreIndependent(t *testing.T) {
	s := NewConversationStore()
	a := s.Create()
	b := s.Create()

	ta, err := s.BeginExchange(a, "question a")
	require.NoError(t, err)
	tb, err := s.BeginExchange(b, "question b")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.AppendContent(ta, "A"))
		require.NoError(t, s.AppendContent(tb, "B"))
	}
	require.NoError(t, s.CompleteExchange(ta))
	require.NoError(t, s.CancelExchange(tb))

	convA, _ := s.Get(a)
	convB, _ := s.Get(b)
	assert.Equal(t, "AAA", convA.Messages[1].Content)
	assert.Empty(t, convB.Messages)
}
