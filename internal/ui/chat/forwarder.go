// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/exchange"
	"github.com/jeranaias/docchat-tui/internal/storage"
)

// =============================================================================
// FORWARDER
// =============================================================================

// Sender is the part of *tea.Program the forwarder uses.
type Sender interface {
	Send(msg tea.Msg)
}

// Forwarder moves notifications from store, exchange and config goroutines
// into the Bubble Tea loop.
//
// Store observers run synchronously inside the mutating call, which is often
// the Update method itself, and tea.Program.Send blocks until the loop reads
// the message. Notifications are therefore queued without blocking and
// delivered from a separate goroutine. Consecutive store changes are
// coalesced because the model redraws from a fresh snapshot anyway.
type Forwarder struct {
	mu      sync.Mutex
	queue   []tea.Msg
	started bool
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// NewForwarder creates an idle forwarder. Call Start to begin delivery.
func NewForwarder() *Forwarder {
	return &Forwarder{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// StoreChanged is a storage observer.
func (f *Forwarder) StoreChanged(ch storage.Change) {
	f.push(StoreChangedMsg{Change: ch})
}

// ExchangeEvent is an exchange observer.
func (f *Forwarder) ExchangeEvent(ev exchange.Event) {
	f.push(ExchangeEventMsg{Event: ev})
}

// ConfigChanged receives reloaded configs from config.Watch.
func (f *Forwarder) ConfigChanged(cfg *config.Config) {
	f.push(ConfigChangedMsg{Config: cfg})
}

// ConfigError receives reload failures from config.Watch.
func (f *Forwarder) ConfigError(err error) {
	f.push(ConfigErrorMsg{Err: err})
}

func (f *Forwarder) push(msg tea.Msg) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if _, isStore := msg.(StoreChangedMsg); isStore && len(f.queue) > 0 {
		if _, lastIsStore := f.queue[len(f.queue)-1].(StoreChangedMsg); lastIsStore {
			f.queue[len(f.queue)-1] = msg
			f.mu.Unlock()
			return
		}
	}
	f.queue = append(f.queue, msg)
	select {
	case f.wake <- struct{}{}:
	default:
	}
	f.mu.Unlock()
}

// Start delivers queued messages to s until Stop is called.
func (f *Forwarder) Start(s Sender) {
	f.mu.Lock()
	if f.started || f.closed {
		f.mu.Unlock()
		return
	}
	f.started = true
	f.mu.Unlock()

	go func() {
		defer close(f.done)
		for range f.wake {
			for _, msg := range f.drain() {
				s.Send(msg)
			}
		}
	}()
}

func (f *Forwarder) drain() []tea.Msg {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.queue
	f.queue = nil
	return out
}

// Stop discards undelivered messages and waits for the delivery goroutine.
// The sender must not block forever once Stop is called; a tea.Program
// whose loop has exited returns from Send immediately.
func (f *Forwarder) Stop() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.queue = nil
	close(f.wake)
	started := f.started
	f.mu.Unlock()
	if started {
		<-f.done
	}
}
