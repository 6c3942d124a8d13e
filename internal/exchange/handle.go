// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"context"
	"sync"

	"github.com/jeranaias/docchat-tui/internal/storage"
)

// =============================================================================
// HANDLE
// =============================================================================

// Handle is the request lifetime of one exchange. All methods are safe for
// concurrent use.
type Handle struct {
	ticket storage.Ticket
	input  string

	cancelFunc context.CancelFunc
	done       chan struct{}

	mu      sync.Mutex
	state   State
	outcome Outcome
	stats   Stats
}

func newHandle(ticket storage.Ticket, input string, cancel context.CancelFunc) *Handle {
	return &Handle{
		ticket:     ticket,
		input:      input,
		cancelFunc: cancel,
		done:       make(chan struct{}),
		state:      StateIdle,
	}
}

// ConversationID returns the conversation the exchange writes to.
func (h *Handle) ConversationID() string {
	return h.ticket.ConversationID
}

// Cancel aborts the exchange. Safe to call multiple times, and after the
// exchange has settled.
func (h *Handle) Cancel() {
	h.cancelFunc()
}

// Done is closed once the exchange has settled and the store reflects it.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the exchange settles and returns its outcome.
func (h *Handle) Wait() Outcome {
	<-h.done
	return h.Outcome()
}

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Outcome returns the terminal outcome. Before the exchange settles the
// returned State is not terminal.
func (h *Handle) Outcome() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.state.Terminal() {
		return Outcome{State: h.state, Stats: h.stats}
	}
	return h.outcome
}

// Stats returns the statistics collected so far.
func (h *Handle) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

func (h *Handle) setState(s State) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *Handle) updateStats(fn func(*Stats)) {
	h.mu.Lock()
	fn(&h.stats)
	h.mu.Unlock()
}

// settle records the outcome and releases waiters.
func (h *Handle) settle(o Outcome) {
	h.mu.Lock()
	h.state = o.State
	h.outcome = o
	h.mu.Unlock()
	close(h.done)
}
