// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "github.com/jeranaias/docchat-tui/internal/model"

// =============================================================================
// EVENT TYPES
// =============================================================================

// Kind discriminates the Event union.
type Kind int

const (
	KindContent Kind = iota + 1
	KindSources
	KindDone
	KindMalformed
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindSources:
		return "sources"
	case KindDone:
		return "done"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Event is one decoded application event.
//
// Only the field matching Kind is meaningful: Text for KindContent, Sources
// for KindSources, Raw for KindMalformed.
type Event struct {
	Kind    Kind
	Text    string
	Sources []model.SourceRef
	Raw     string
}

// Content returns a content-fragment event.
func Content(text string) Event {
	return Event{Kind: KindContent, Text: text}
}

// Sources returns a source-list event.
func Sources(refs []model.SourceRef) Event {
	return Event{Kind: KindSources, Sources: model.CloneSources(refs)}
}

// Done returns the completion event.
func Done() Event {
	return Event{Kind: KindDone}
}

// Malformed returns an event carrying a line that could not be decoded.
func Malformed(raw string) Event {
	return Event{Kind: KindMalformed, Raw: raw}
}
