// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// newFrozenStore returns a store whose clock never advances, so every id
// relies on the sequence fallback.
func newFrozenStore() *ConversationStore {
	s := NewConversationStore()
	frozen := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }
	return s
}

func names(convs []model.Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.Name
	}
	return out
}

// =============================================================================
// CREATE / SELECT
// =============================================================================

func TestCreate_FirstConversation(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()

	assert.True(t, strings.HasPrefix(id, "session-"))
	assert.Equal(t, id, s.ActiveID())

	conv, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Chat 1", conv.Name)
	assert.False(t, conv.IsPinned)
	assert.True(t, conv.IsFresh())
	assert.NotNil(t, conv.Messages)
}

func TestCreate_GapFillingNames(t *testing.T) {
	s := NewConversationStore()
	s.Create()
	second := s.Create()
	s.Create()
	require.NoError(t, s.Delete(second))
	require.Equal(t, []string{"Chat 1", "Chat 3"}, names(s.List()))

	s.Create()
	s.Create()
	assert.Equal(t, []string{"Chat 1", "Chat 3", "Chat 2", "Chat 4"}, names(s.List()))
}

func TestCreate_RenamedConversationsFreeTheirNumber(t *testing.T) {
	s := NewConversationStore()
	first := s.Create()
	_, err := s.Rename(first, "Quarterly report")
	require.NoError(t, err)

	s.Create()
	assert.Equal(t, []string{"Quarterly report", "Chat 1"}, names(s.List()))
}

func TestParseChatNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
		ok   bool
	}{
		{"Chat 1", 1, true},
		{"Chat 42", 42, true},
		{"Chat 0", 0, false},
		{"Chat -1", 0, false},
		{"Chat 01", 0, false},
		{"Chat", 0, false},
		{"chat 2", 0, false},
		{"Chat 2 notes", 0, false},
	}

	for _, tt := range tests {
		n, ok := parseChatNumber(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, n, tt.name)
	}
}

func TestCreate_IDsUniqueWithFrozenClock(t *testing.T) {
	s := newFrozenStore()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := s.Create()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestCreate_ConcurrentIDsUnique(t *testing.T) {
	s := NewConversationStore()
	const workers = 8
	const perWorker = 50

	ids := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- s.Create()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, workers*perWorker, s.Len())
}

func TestSelect(t *testing.T) {
	s := NewConversationStore()
	a := s.Create()
	s.Create()

	require.NoError(t, s.Select(a))
	assert.Equal(t, a, s.ActiveID())

	err := s.Select("session-missing")
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.Equal(t, a, s.ActiveID())
}

func TestActive_EmptyStore(t *testing.T) {
	s := NewConversationStore()
	_, ok := s.Active()
	assert.False(t, ok)
	assert.Equal(t, "", s.ActiveID())
}

// =============================================================================
// RENAME / PIN
// =============================================================================

func TestRename(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()

	changed, err := s.Rename(id, "  Contract review  ")
	require.NoError(t, err)
	assert.True(t, changed)

	conv, _ := s.Get(id)
	assert.Equal(t, "Contract review", conv.Name)

	changed, err = s.Rename(id, "   ")
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.Rename(id, "Contract review")
	require.NoError(t, err)
	assert.False(t, changed)

	conv, _ = s.Get(id)
	assert.Equal(t, "Contract review", conv.Name)

	_, err = s.Rename("session-missing", "x")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestTogglePin(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()

	pinned, err := s.TogglePin(id)
	require.NoError(t, err)
	assert.True(t, pinned)

	pinned, err = s.TogglePin(id)
	require.NoError(t, err)
	assert.False(t, pinned)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_ActiveMovesToFirstRemaining(t *testing.T) {
	s := NewConversationStore()
	a := s.Create()
	b := s.Create()
	c := s.Create()

	require.NoError(t, s.Select(b))
	require.NoError(t, s.Delete(b))
	assert.Equal(t, a, s.ActiveID())

	require.NoError(t, s.Select(c))
	require.NoError(t, s.Delete(a))
	assert.Equal(t, c, s.ActiveID(), "deleting an inactive conversation keeps the pointer")
}

func TestDelete_LastConversation(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()

	require.NoError(t, s.Delete(id))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, "", s.ActiveID())

	err := s.Delete(id)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

// =============================================================================
// LIST / SEARCH
// =============================================================================

func TestListSorted_PinnedFirstThenCreationOrder(t *testing.T) {
	s := newFrozenStore()
	s.Create()
	b := s.Create()
	s.Create()
	d := s.Create()

	_, err := s.TogglePin(d)
	require.NoError(t, err)
	_, err = s.TogglePin(b)
	require.NoError(t, err)

	assert.Equal(t, []string{"Chat 2", "Chat 4", "Chat 1", "Chat 3"}, names(s.ListSorted()))
}

func TestListSorted_ReturnsCopies(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	require.NoError(t, s.ReplaceMessages(id, []model.Message{model.NewUserMessage("hi")}))

	list := s.ListSorted()
	list[0].Messages[0].Content = "tampered"
	list[0].Name = "tampered"

	conv, _ := s.Get(id)
	assert.Equal(t, "hi", conv.Messages[0].Content)
	assert.Equal(t, "Chat 1", conv.Name)
}

func TestSearch_UnicodeNormalization(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	_, _ = s.Rename(id, "Caf\u00e9 menu") // precomposed

	assert.Len(t, s.Search("cafe\u0301"), 1, "decomposed query matches precomposed name")
}

func TestSearch(t *testing.T) {
	s := NewConversationStore()
	a := s.Create()
	b := s.Create()
	_, _ = s.Rename(a, "Lease agreement")
	require.NoError(t, s.ReplaceMessages(b, []model.Message{model.NewUserMessage("What is the TERMINATION clause?")}))

	assert.Equal(t, []string{"Lease agreement"}, names(s.Search("lease")))
	assert.Equal(t, []string{"Chat 2"}, names(s.Search("termination")))
	assert.Len(t, s.Search(""), 2)
	assert.Equal(t, []string{"Lease agreement"}, names(s.Search("LEASE")))
	assert.Empty(t, s.Search("nothing like this"))
}

// =============================================================================
// MESSAGES / DRAFT / CLEAR
// =============================================================================

func TestReplaceMessages_OnlyTouchesTarget(t *testing.T) {
	s := NewConversationStore()
	a := s.Create()
	b := s.Create()
	require.NoError(t, s.ReplaceMessages(b, []model.Message{model.NewUserMessage("keep me")}))
	before, _ := s.Get(b)

	msgs := []model.Message{model.NewUserMessage("one"), model.NewAssistantMessage("two")}
	require.NoError(t, s.ReplaceMessages(a, msgs))
	msgs[0].Content = "mutated after call"

	convA, _ := s.Get(a)
	assert.Equal(t, "one", convA.Messages[0].Content)

	after, _ := s.Get(b)
	assert.Equal(t, before, after)
}

func TestSetDraftAndClear(t *testing.T) {
	s := NewConversationStore()
	id := s.Create()
	require.NoError(t, s.SetDraft(id, "half typed"))
	require.NoError(t, s.ReplaceMessages(id, []model.Message{model.NewUserMessage("q")}))

	key, err := s.SessionKey(id)
	require.NoError(t, err)
	assert.Equal(t, id, key)

	require.NoError(t, s.Clear(id))
	conv, _ := s.Get(id)
	assert.Empty(t, conv.Messages)
	assert.Equal(t, "", conv.Draft)

	key, err = s.SessionKey(id)
	require.NoError(t, err)
	assert.Equal(t, id+"-r1", key)
}

// =============================================================================
// OBSERVER
// =============================================================================

func TestOnChange(t *testing.T) {
	s := NewConversationStore()

	var mu sync.Mutex
	var got []Change
	s.OnChange(func(ch Change) {
		// The store must be readable from inside the observer.
		_ = s.Len()
		mu.Lock()
		got = append(got, ch)
		mu.Unlock()
	})

	a := s.Create()
	b := s.Create()
	_, _ = s.Rename(a, "Named")
	_, _ = s.Rename(a, "Named") // no-op
	require.NoError(t, s.Delete(b))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Change{
		{ConversationID: a, Kind: ChangeCreated},
		{ConversationID: b, Kind: ChangeCreated},
		{ConversationID: a, Kind: ChangeRenamed},
		{ConversationID: b, Kind: ChangeDeleted},
		{ConversationID: a, Kind: ChangeSelected},
	}, got)
}

func TestConversationError(t *testing.T) {
	err := withID(ErrConversationNotFound, "session-9")
	assert.True(t, errors.Is(err, ErrConversationNotFound))
	assert.False(t, errors.Is(err, ErrBusy))
	assert.Equal(t, "conversation not found: session-9", err.Error())
	assert.Equal(t, "exchange ticket is stale", ErrStaleTicket.Error())

	var convErr *ConversationError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "session-9", convErr.ID)
}

func TestChangeKind_String(t *testing.T) {
	assert.Equal(t, "created", ChangeCreated.String())
	assert.Equal(t, "busy", ChangeBusy.String())
	assert.Equal(t, "unknown", ChangeKind(0).String())
}
