// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage holds the in-memory conversation store.
//
// The store owns every conversation for the lifetime of the process. Callers
// never hold a pointer into it: reads return deep copies and every mutation
// names the conversation it applies to by id.
//
// # Key Types
//
//   - ConversationStore: ordered conversations plus the active pointer
//   - Ticket: handle an in-flight exchange uses to address its placeholder
//   - Change: notification delivered to the OnChange observer
//
// # Usage
//
//	store := storage.NewConversationStore()
//	id := store.Create()
//	ticket, err := store.BeginExchange(id, "What does chapter 2 say?")
//	store.AppendContent(ticket, "Chapter 2 ")
//	store.CompleteExchange(ticket)
//
// # Exchanges
//
// BeginExchange appends the user message and an empty assistant placeholder
// in one step and marks the conversation busy. The returned Ticket stays
// valid until the exchange finishes, or until the conversation is deleted or
// cleared; after that every update through it returns ErrStaleTicket and
// changes nothing.
package storage
