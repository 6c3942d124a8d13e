// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"fmt"
	"time"
)

// =============================================================================
// STATE
// =============================================================================

// State is a step of the exchange lifecycle.
type State int

const (
	StateIdle State = iota
	StateSending
	StateStreaming
	StateCompleted
	StateCancelled
	StateErrored
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition follows.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateErrored
}

// Outcome is how an exchange settled.
type Outcome struct {
	State State
	Err   error  // cause for StateErrored
	Text  string // text shown in place of the reply for StateErrored
	Stats Stats
}

// Event is delivered to the Observer on every state transition.
type Event struct {
	ConversationID string
	State          State
	Outcome        *Outcome // set when State is terminal
}

// Observer receives state transitions. It runs on the exchange goroutine and
// must not block.
type Observer func(Event)

// =============================================================================
// STATISTICS
// =============================================================================

// Stats holds timing collected during one exchange.
type Stats struct {
	StartTime        time.Time
	FirstContentTime time.Time
	EndTime          time.Time

	Fragments int // content events applied
	Bytes     int // content bytes applied
	Malformed int // lines skipped as malformed

	// Computed
	TTFC     time.Duration // time to first content fragment
	Duration time.Duration
}

// recordContent notes one applied content fragment.
func (s *Stats) recordContent(n int, now time.Time) {
	if s.FirstContentTime.IsZero() {
		s.FirstContentTime = now
		s.TTFC = now.Sub(s.StartTime)
	}
	s.Fragments++
	s.Bytes += n
}

// finalize stamps the end time.
func (s *Stats) finalize(now time.Time) {
	s.EndTime = now
	s.Duration = now.Sub(s.StartTime)
}

// Format returns a compact one-line summary.
func (s Stats) Format() string {
	return fmt.Sprintf("%d fragments | %s | first %s",
		s.Fragments, roundDuration(s.Duration), roundDuration(s.TTFC))
}

func roundDuration(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(100 * time.Millisecond)
}
