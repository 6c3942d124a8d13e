// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strconv"
	"strings"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// =============================================================================
// EXCHANGE TICKETS
// =============================================================================

// Ticket addresses the assistant placeholder of one in-flight exchange.
type Ticket struct {
	ConversationID string

	// SessionKey is the conversation id sent to the backend. It changes
	// after Clear so the backend starts a fresh history.
	SessionKey string

	// Base is the message count before the exchange began. Cancelling
	// truncates back to it.
	Base int

	// Placeholder is the index of the assistant message being streamed.
	Placeholder int

	// PlaceholderID is the message id of the placeholder.
	PlaceholderID string

	epoch uint64
}

// sessionKey derives the backend conversation id for an epoch.
func sessionKey(id string, epoch uint64) string {
	if epoch == 0 {
		return id
	}
	return id + "-r" + strconv.FormatUint(epoch, 10)
}

// BeginExchange starts an exchange on id: it appends the user message and an
// empty assistant placeholder, clears the draft and marks the conversation
// busy, all in one step. It fails with ErrBusy if an exchange is already in
// flight. Callers reject blank input before calling.
func (s *ConversationStore) BeginExchange(id, text string) (Ticket, error) {
	s.mu.Lock()
	e, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return Ticket{}, withID(ErrConversationNotFound, id)
	}
	if e.conv.Busy {
		s.mu.Unlock()
		return Ticket{}, withID(ErrBusy, id)
	}

	base := len(e.conv.Messages)
	placeholder := model.NewPlaceholder()
	e.conv.Messages = append(e.conv.Messages, model.NewUserMessage(text), placeholder)
	e.conv.Draft = ""
	e.conv.Busy = true

	ticket := Ticket{
		ConversationID: id,
		SessionKey:     sessionKey(id, e.epoch),
		Base:           base,
		Placeholder:    base + 1,
		PlaceholderID:  placeholder.ID,
		epoch:          e.epoch,
	}
	s.mu.Unlock()

	s.notify(Change{ConversationID: id, Kind: ChangeMessages})
	return ticket, nil
}

// SessionKey returns the backend conversation id currently used for id.
func (s *ConversationStore) SessionKey(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.index[id]
	if !ok {
		return "", withID(ErrConversationNotFound, id)
	}
	return sessionKey(id, e.epoch), nil
}

// lookupLocked resolves a ticket against the latest state (must hold lock).
func (s *ConversationStore) lookupLocked(t Ticket) (*entry, error) {
	e, ok := s.index[t.ConversationID]
	if !ok || e.epoch != t.epoch {
		return nil, ErrStaleTicket
	}
	if t.Placeholder >= len(e.conv.Messages) || e.conv.Messages[t.Placeholder].ID != t.PlaceholderID {
		return nil, ErrStaleTicket
	}
	return e, nil
}

// AppendContent appends a content fragment to the placeholder.
// An empty fragment changes nothing but still reports a stale ticket.
func (s *ConversationStore) AppendContent(t Ticket, text string) error {
	s.mu.Lock()
	e, err := s.lookupLocked(t)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if text == "" {
		s.mu.Unlock()
		return nil
	}
	msg := &e.conv.Messages[t.Placeholder]
	var b strings.Builder
	b.Grow(len(msg.Content) + len(text))
	b.WriteString(msg.Content)
	b.WriteString(text)
	msg.Content = b.String()
	s.mu.Unlock()

	s.notify(Change{ConversationID: t.ConversationID, Kind: ChangeMessages})
	return nil
}

// SetSources replaces the sources of the placeholder.
func (s *ConversationStore) SetSources(t Ticket, sources []model.SourceRef) error {
	s.mu.Lock()
	e, err := s.lookupLocked(t)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	e.conv.Messages[t.Placeholder].Sources = model.CloneSources(sources)
	s.mu.Unlock()

	s.notify(Change{ConversationID: t.ConversationID, Kind: ChangeMessages})
	return nil
}

// CompleteExchange settles a successful exchange and releases the busy flag.
func (s *ConversationStore) CompleteExchange(t Ticket) error {
	return s.finish(t, func(*entry) ChangeKind {
		return ChangeBusy
	})
}

// CancelExchange reverts the conversation to its messages from before the
// exchange began and releases the busy flag.
func (s *ConversationStore) CancelExchange(t Ticket) error {
	return s.finish(t, func(e *entry) ChangeKind {
		e.conv.Messages = e.conv.Messages[:t.Base]
		return ChangeMessages
	})
}

// FailExchange replaces the placeholder content with text, empties its
// sources and releases the busy flag.
func (s *ConversationStore) FailExchange(t Ticket, text string) error {
	return s.finish(t, func(e *entry) ChangeKind {
		msg := &e.conv.Messages[t.Placeholder]
		msg.Content = text
		msg.Sources = []model.SourceRef{}
		return ChangeMessages
	})
}

// finish applies a terminal update through a ticket. If the placeholder was
// replaced underneath the exchange the busy flag is still released.
func (s *ConversationStore) finish(t Ticket, apply func(*entry) ChangeKind) error {
	s.mu.Lock()
	e, err := s.lookupLocked(t)
	if err != nil {
		released := false
		if e, ok := s.index[t.ConversationID]; ok && e.epoch == t.epoch && e.conv.Busy {
			e.conv.Busy = false
			released = true
		}
		s.mu.Unlock()
		if released {
			s.notify(Change{ConversationID: t.ConversationID, Kind: ChangeBusy})
		}
		return err
	}
	kind := apply(e)
	e.conv.Busy = false
	s.mu.Unlock()

	s.notify(Change{ConversationID: t.ConversationID, Kind: kind})
	return nil
}
