// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the value types shared by the store, the exchange
// state machine, the exporters, and the presentation layer.
//
// # Key Types
//
//   - Conversation: one named thread of messages with pin state
//   - Message: a single user or assistant message with optional sources
//   - SourceRef: a page citation supplied by the backend mid-stream
//   - Role: message role enumeration (user, assistant)
//
// All types are plain values. Callers outside the store only ever hold
// copies, so mutating a Conversation returned by the store has no effect on
// the store itself.
//
// # Usage
//
//	msg := model.NewUserMessage("What does chapter 2 cover?")
//	placeholder := model.NewPlaceholder()
//	placeholder.Content += "Chapter 2 covers [Page 4]."
package model
