// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exchange runs send/receive cycles against the chat service.
//
// Each call to Manager.Start is one exchange: it reserves the conversation,
// posts the message, decodes the response stream and writes every fragment
// into the conversation store as it arrives. An exchange moves through
//
//	Idle -> Sending -> Streaming -> Completed | Cancelled | Errored
//
// and runs on its own goroutine with its own context. Cancelling that
// context aborts the request and reverts the conversation to how it was
// before the send. Errors end with a single assistant message carrying the
// localized error text. Either way the conversation is no longer busy when
// the exchange settles.
//
// Exchanges on different conversations run concurrently; a conversation has
// at most one exchange in flight.
package exchange
