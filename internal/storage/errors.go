// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import "errors"

// Sentinels. Errors returned by the store wrap one of these together with the
// conversation id, so test them with errors.Is.
var (
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrBusy means an exchange is already in flight for the conversation.
	ErrBusy = errors.New("conversation is busy")

	// ErrStaleTicket means the conversation behind a ticket was deleted or
	// cleared after the ticket was issued.
	ErrStaleTicket = errors.New("exchange ticket is stale")
)

// ConversationError ties a sentinel to the conversation it concerns.
type ConversationError struct {
	Err error
	ID  string
}

func (e *ConversationError) Error() string { return e.Err.Error() + ": " + e.ID }

func (e *ConversationError) Unwrap() error { return e.Err }

func withID(sentinel error, id string) error {
	return &ConversationError{Err: sentinel, ID: id}
}
