// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat-tui/internal/exchange"
	"github.com/jeranaias/docchat-tui/internal/export"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/storage"
)

// fakeExchanges records intents and delegates state changes to the store.
type fakeExchanges struct {
	store     *storage.ConversationStore
	cancelled []string
	reset     []string
}

func (f *fakeExchanges) Start(ctx context.Context, convID, input string) (*exchange.Handle, error) {
	return nil, exchange.ErrShutdown
}

func (f *fakeExchanges) Cancel(convID string) bool {
	f.cancelled = append(f.cancelled, convID)
	return false
}

func (f *fakeExchanges) Reset(convID string) error {
	f.reset = append(f.reset, convID)
	return f.store.Clear(convID)
}

func (f *fakeExchanges) Export(convID string) (*export.Artifact, error) {
	conv, err := f.store.Get(convID)
	if err != nil {
		return nil, err
	}
	return export.NewMarkdownExporter().Export(conv)
}

func newController(t *testing.T, cfg Config) (*Controller, *storage.ConversationStore, *fakeExchanges) {
	t.Helper()
	store := storage.NewConversationStore()
	fake := &fakeExchanges{store: store}
	cfg.Store = store
	cfg.Exchanges = fake
	return NewController(cfg), store, fake
}

func addMessage(t *testing.T, store *storage.ConversationStore, id string) {
	t.Helper()
	require.NoError(t, store.ReplaceMessages(id, []model.Message{model.NewUserMessage("hello")}))
}

// =============================================================================
// ENSURE / NEW
// =============================================================================

func TestEnsureOne(t *testing.T) {
	c, store, _ := newController(t, Config{})

	id := c.EnsureOne()
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, id, store.ActiveID())

	assert.Equal(t, id, c.EnsureOne(), "a second call creates nothing")
	assert.Equal(t, 1, store.Len())
}

func TestNew_SingleFreshSelectsExisting(t *testing.T) {
	c, store, _ := newController(t, Config{})
	first := c.EnsureOne()
	second := store.Create()
	addMessage(t, store, second)
	require.NoError(t, store.Select(second))

	assert.False(t, c.CanCreate())
	id, err := c.New()
	assert.ErrorIs(t, err, ErrFreshExists)
	assert.Equal(t, first, id)
	assert.Equal(t, first, store.ActiveID())
	assert.Equal(t, 2, store.Len())

	addMessage(t, store, first)
	assert.True(t, c.CanCreate())
	id, err = c.New()
	require.NoError(t, err)
	assert.Equal(t, id, store.ActiveID())
	assert.Equal(t, 3, store.Len())
}

func TestNew_PolicyOff(t *testing.T) {
	c, store, _ := newController(t, Config{Policies: &Policies{}})
	c.EnsureOne()

	_, err := c.New()
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
	assert.True(t, c.CanCreate())
}

// =============================================================================
// DELETE
// =============================================================================

func TestDelete_KeepLast(t *testing.T) {
	c, store, fake := newController(t, Config{})
	id := c.EnsureOne()

	assert.False(t, c.CanDelete(id))
	assert.ErrorIs(t, c.Delete(id), ErrLastConversation)
	assert.Equal(t, 1, store.Len())
	assert.Empty(t, fake.cancelled)
}

func TestDelete_CancelsExchangeFirst(t *testing.T) {
	c, store, fake := newController(t, Config{})
	a := c.EnsureOne()
	b := store.Create()

	assert.True(t, c.CanDelete(a))
	require.NoError(t, c.Delete(a))
	assert.Equal(t, []string{a}, fake.cancelled)
	assert.Equal(t, b, store.ActiveID())

	assert.ErrorIs(t, c.Delete(a), storage.ErrConversationNotFound)
	assert.False(t, c.CanDelete(a))
}

func TestDelete_Confirmer(t *testing.T) {
	var asked []string
	answer := false
	c, store, _ := newController(t, Config{Confirmer: ConfirmFunc(func(conv model.Conversation) bool {
		asked = append(asked, conv.Name)
		return answer
	})})
	c.EnsureOne()
	b := store.Create()

	assert.ErrorIs(t, c.Delete(b), ErrDeleteDeclined)
	assert.Equal(t, 2, store.Len())

	answer = true
	require.NoError(t, c.Delete(b))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, []string{"Chat 2", "Chat 2"}, asked)
}

func TestDelete_LastWithPolicyOff(t *testing.T) {
	c, store, _ := newController(t, Config{Policies: &Policies{}})
	id := c.EnsureOne()

	require.NoError(t, c.Delete(id))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, "", store.ActiveID())
}

// =============================================================================
// RENAME / PIN / RESET / EXPORT
// =============================================================================

func TestRenameAndPin(t *testing.T) {
	c, store, _ := newController(t, Config{})
	id := c.EnsureOne()

	changed, err := c.Rename(id, "Lease")
	require.NoError(t, err)
	assert.True(t, changed)

	pinned, err := c.TogglePin(id)
	require.NoError(t, err)
	assert.True(t, pinned)

	conv, _ := store.Get(id)
	assert.Equal(t, "Lease", conv.Name)
	assert.True(t, conv.IsPinned)
}

func TestReset(t *testing.T) {
	c, store, fake := newController(t, Config{})
	id := c.EnsureOne()
	addMessage(t, store, id)

	require.NoError(t, c.Reset(id))
	assert.Equal(t, []string{id}, fake.reset)
	conv, _ := store.Get(id)
	assert.Empty(t, conv.Messages)
}

func TestExport_WritesArtifact(t *testing.T) {
	dir := t.TempDir()
	c, store, _ := newController(t, Config{Export: &export.Options{OutputDir: dir}})
	id := c.EnsureOne()
	addMessage(t, store, id)

	path, err := c.Export(id)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Chat_1_export.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "**You:**\nhello\n\n---\n\n", string(data))

	_, err = c.Export("session-missing")
	assert.ErrorIs(t, err, storage.ErrConversationNotFound)
}

func TestSend_Delegates(t *testing.T) {
	c, _, _ := newController(t, Config{})
	_, err := c.Send(context.Background(), c.EnsureOne(), "q")
	assert.ErrorIs(t, err, exchange.ErrShutdown)
}
