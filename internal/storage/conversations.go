// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// =============================================================================
// CHANGE NOTIFICATIONS
// =============================================================================

// ChangeKind says what a mutation did.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota + 1
	ChangeSelected
	ChangeRenamed
	ChangePinned
	ChangeDeleted
	ChangeMessages // message list or message content changed
	ChangeDraft
	ChangeCleared
	ChangeBusy // busy flag flipped without other changes
)

// String returns the string representation of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeCreated:
		return "created"
	case ChangeSelected:
		return "selected"
	case ChangeRenamed:
		return "renamed"
	case ChangePinned:
		return "pinned"
	case ChangeDeleted:
		return "deleted"
	case ChangeMessages:
		return "messages"
	case ChangeDraft:
		return "draft"
	case ChangeCleared:
		return "cleared"
	case ChangeBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// Change is delivered to the observer after a mutation has been applied.
type Change struct {
	ConversationID string
	Kind           ChangeKind
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// idPrefix is the prefix of every conversation id.
const idPrefix = "session-"

// chatNamePrefix is the prefix of generated conversation names.
const chatNamePrefix = "Chat "

// entry is the store's private record for one conversation.
type entry struct {
	conv  model.Conversation
	seq   int64  // numeric part of the id; strictly increasing
	epoch uint64 // bumped by Clear; invalidates outstanding tickets
}

// ConversationStore holds conversations in creation order together with the
// active pointer. It is safe for concurrent use.
type ConversationStore struct {
	mu       sync.Mutex
	entries  []*entry // creation order
	index    map[string]*entry
	activeID string
	lastSeq  int64

	onChange func(Change)

	// now is the clock used for ids and timestamps; replaced in tests.
	now func() time.Time
}

// NewConversationStore creates an empty store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		index: make(map[string]*entry),
		now:   time.Now,
	}
}

// OnChange installs the observer called after every mutation. The observer
// runs on the mutating goroutine with no store lock held, so it may read the
// store. Passing nil removes it.
func (s *ConversationStore) OnChange(fn func(Change)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// notify delivers changes to the observer. Must be called without the lock.
func (s *ConversationStore) notify(changes ...Change) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn == nil {
		return
	}
	for _, ch := range changes {
		fn(ch)
	}
}

// =============================================================================
// LIFECYCLE OPERATIONS
// =============================================================================

// Create appends a new empty, unpinned conversation, makes it active and
// returns its id. The name is "Chat N" for the lowest N not already taken.
func (s *ConversationStore) Create() string {
	s.mu.Lock()
	now := s.now()
	seq := now.UnixNano()
	if seq <= s.lastSeq {
		seq = s.lastSeq + 1
	}
	s.lastSeq = seq

	e := &entry{
		conv: model.Conversation{
			ID:        idPrefix + strconv.FormatInt(seq, 10),
			Name:      s.nextChatNameLocked(),
			CreatedAt: now,
			Messages:  []model.Message{},
		},
		seq: seq,
	}
	s.entries = append(s.entries, e)
	s.index[e.conv.ID] = e
	s.activeID = e.conv.ID
	id := e.conv.ID
	s.mu.Unlock()

	s.notify(Change{ConversationID: id, Kind: ChangeCreated})
	return id
}

// nextChatNameLocked finds the lowest free "Chat N" name (must hold lock).
func (s *ConversationStore) nextChatNameLocked() string {
	used := make(map[int]bool, len(s.entries))
	for _, e := range s.entries {
		if n, ok := parseChatNumber(e.conv.Name); ok {
			used[n] = true
		}
	}
	n := 1
	for used[n] {
		n++
	}
	return chatNamePrefix + strconv.Itoa(n)
}

// parseChatNumber extracts N from a canonical "Chat N" name.
func parseChatNumber(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, chatNamePrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 || strconv.Itoa(n) != rest {
		return 0, false
	}
	return n, true
}

// Select makes id the active conversation.
func (s *ConversationStore) Select(id string) error {
	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return withID(ErrConversationNotFound, id)
	}
	changed := s.activeID != id
	s.activeID = id
	s.mu.Unlock()

	if changed {
		s.notify(Change{ConversationID: id, Kind: ChangeSelected})
	}
	return nil
}

// Rename sets the name of id. A name that is blank after trimming, or equal
// to the current name, leaves the conversation unchanged. The boolean
// reports whether the name changed.
func (s *ConversationStore) Rename(id, name string) (bool, error) {
	name = strings.TrimSpace(name)

	s.mu.Lock()
	e, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false, withID(ErrConversationNotFound, id)
	}
	if name == "" || name == e.conv.Name {
		s.mu.Unlock()
		return false, nil
	}
	e.conv.Name = name
	s.mu.Unlock()

	s.notify(Change{ConversationID: id, Kind: ChangeRenamed})
	return true, nil
}

// TogglePin flips the pinned flag of id and returns the new value.
func (s *ConversationStore) TogglePin(id string) (bool, error) {
	s.mu.Lock()
	e, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false, withID(ErrConversationNotFound, id)
	}
	e.conv.IsPinned = !e.conv.IsPinned
	pinned := e.conv.IsPinned
	s.mu.Unlock()

	s.notify(Change{ConversationID: id, Kind: ChangePinned})
	return pinned, nil
}

// Delete removes id. If it was active, the first remaining conversation in
// creation order becomes active, or none if the store is now empty.
// Outstanding tickets for id become stale.
func (s *ConversationStore) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.index[id]; !ok {
		s.mu.Unlock()
		return withID(ErrConversationNotFound, id)
	}
	delete(s.index, id)
	for i, e := range s.entries {
		if e.conv.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}

	changes := []Change{{ConversationID: id, Kind: ChangeDeleted}}
	if s.activeID == id {
		s.activeID = ""
		if len(s.entries) > 0 {
			s.activeID = s.entries[0].conv.ID
			changes = append(changes, Change{ConversationID: s.activeID, Kind: ChangeSelected})
		}
	}
	s.mu.Unlock()

	s.notify(changes...)
	return nil
}

// ReplaceMessages swaps the whole message list of id. Other conversations
// are not touched.
func (s *ConversationStore) ReplaceMessages(id string, messages []model.Message) error {
	s.mu.Lock()
	e, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return withID(ErrConversationNotFound, id)
	}
	e.conv.Messages = model.CloneMessages(messages)
	s.mu.Unlock()

	s.notify(Change{ConversationID: id, Kind: ChangeMessages})
	return nil
}

// SetDraft stores the pending input text of id.
func (s *ConversationStore) SetDraft(id, text string) error {
	s.mu.Lock()
	e, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return withID(ErrConversationNotFound, id)
	}
	if e.conv.Draft == text {
		s.mu.Unlock()
		return nil
	}
	e.conv.Draft = text
	s.mu.Unlock()

	s.notify(Change{ConversationID: id, Kind: ChangeDraft})
	return nil
}

// Clear empties the messages and draft of id and releases its busy flag.
// Outstanding tickets for id become stale.
func (s *ConversationStore) Clear(id string) error {
	s.mu.Lock()
	e, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return withID(ErrConversationNotFound, id)
	}
	e.conv.Messages = []model.Message{}
	e.conv.Draft = ""
	e.conv.Busy = false
	e.epoch++
	s.mu.Unlock()

	s.notify(Change{ConversationID: id, Kind: ChangeCleared})
	return nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Get returns a copy of conversation id.
func (s *ConversationStore) Get(id string) (model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[id]
	if !ok {
		return model.Conversation{}, withID(ErrConversationNotFound, id)
	}
	return e.conv.Clone(), nil
}

// Active returns a copy of the active conversation. The boolean is false
// when the store is empty.
func (s *ConversationStore) Active() (model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[s.activeID]
	if !ok {
		return model.Conversation{}, false
	}
	return e.conv.Clone(), true
}

// ActiveID returns the id of the active conversation, or "" if none.
func (s *ConversationStore) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Len returns the number of conversations.
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// List returns copies of all conversations in creation order.
func (s *ConversationStore) List() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Conversation, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.conv.Clone()
	}
	return out
}

// ListSorted returns copies of all conversations, pinned first. Within each
// group conversations are ordered by the sequence in their id, ties broken by
// creation time.
func (s *ConversationStore) ListSorted() []model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	sorted := make([]*entry, len(s.entries))
	copy(sorted, s.entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.conv.IsPinned != b.conv.IsPinned {
			return a.conv.IsPinned
		}
		if a.seq != b.seq {
			return a.seq < b.seq
		}
		return a.conv.CreatedAt.Before(b.conv.CreatedAt)
	})

	out := make([]model.Conversation, len(sorted))
	for i, e := range sorted {
		out[i] = e.conv.Clone()
	}
	return out
}

// Search finds conversations whose name or message content contains query,
// case-insensitively. Results follow ListSorted order. A blank query matches
// everything.
func (s *ConversationStore) Search(query string) []model.Conversation {
	query = fold(strings.TrimSpace(query))
	all := s.ListSorted()
	if query == "" {
		return all
	}

	var results []model.Conversation
	for _, conv := range all {
		if matches(conv, query) {
			results = append(results, conv)
		}
	}
	return results
}

func matches(conv model.Conversation, query string) bool {
	if strings.Contains(fold(conv.DisplayName()), query) {
		return true
	}
	for _, msg := range conv.Messages {
		if strings.Contains(fold(msg.Content), query) {
			return true
		}
	}
	return false
}

// fold normalizes text for matching so composed and decomposed accents
// compare equal.
func fold(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}
