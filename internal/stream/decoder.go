// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bytes"
	"encoding/json"

	"github.com/jeranaias/docchat-tui/internal/model"
)

const (
	// DataPrefix marks lines that carry a record.
	DataPrefix = "data:"

	// MaxLineBytes bounds a single line. Longer lines are reported as
	// malformed and skipped up to the next newline.
	MaxLineBytes = 1 << 20

	// rawPreviewBytes is how much of an oversized line is kept in Raw.
	rawPreviewBytes = 256
)

// Record types on the wire.
const (
	recordContent = "content"
	recordSources = "sources"
	recordDone    = "done"
)

// record is the JSON object that follows the data prefix.
type record struct {
	Type    string            `json:"type"`
	Content string            `json:"content"`
	Sources []model.SourceRef `json:"sources"`
}

// =============================================================================
// DECODER
// =============================================================================

// Decoder turns byte chunks into events. It keeps a carry-over buffer so a
// chunk may end anywhere, including in the middle of a multi-byte rune.
//
// A Decoder is not safe for concurrent use; each exchange owns one.
type Decoder struct {
	buf        []byte
	discarding bool // inside an oversized line, dropping bytes until '\n'
	done       bool // a done record was seen; everything after is ignored
	flushed    bool
}

// NewDecoder creates a decoder with an empty buffer.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Done reports whether a done record has been decoded.
func (d *Decoder) Done() bool {
	return d.done
}

// Feed appends a chunk and returns the events of every line it completes.
// The trailing partial line stays buffered. After a done record Feed
// returns nil.
func (d *Decoder) Feed(chunk []byte) []Event {
	if d.done || d.flushed {
		return nil
	}

	if d.discarding {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			return nil
		}
		d.discarding = false
		chunk = chunk[i+1:]
	}

	d.buf = append(d.buf, chunk...)

	var events []Event
	consumed := 0
	for {
		i := bytes.IndexByte(d.buf[consumed:], '\n')
		if i < 0 {
			break
		}
		line := d.buf[consumed : consumed+i]
		consumed += i + 1

		if ev, ok := decodeLine(line); ok {
			events = append(events, ev)
			if ev.Kind == KindDone {
				d.done = true
				d.buf = nil
				return events
			}
		}
	}

	rest := d.buf[consumed:]
	if len(rest) > MaxLineBytes {
		events = append(events, Malformed(preview(rest)))
		d.discarding = true
		d.buf = nil
		return events
	}

	// Copy the tail so the consumed prefix can be collected.
	if consumed > 0 {
		d.buf = append([]byte(nil), rest...)
	}
	return events
}

// Flush decodes whatever partial line is still buffered. It is called once
// the transport reports end of stream; the decoder accepts no more input
// afterwards.
func (d *Decoder) Flush() []Event {
	if d.done || d.flushed {
		return nil
	}
	d.flushed = true

	rest := d.buf
	d.buf = nil
	if d.discarding || len(rest) == 0 {
		return nil
	}

	if ev, ok := decodeLine(rest); ok {
		if ev.Kind == KindDone {
			d.done = true
		}
		return []Event{ev}
	}
	return nil
}

// Decode runs a complete body through a fresh decoder.
func Decode(body []byte) []Event {
	d := NewDecoder()
	events := d.Feed(body)
	return append(events, d.Flush()...)
}

// =============================================================================
// LINE PARSING
// =============================================================================

// decodeLine parses one line. The boolean is false for lines that are not
// records at all (no data prefix, blank lines), which are skipped silently.
func decodeLine(line []byte) (Event, bool) {
	if len(line) > MaxLineBytes {
		return Malformed(preview(line)), true
	}

	trimmed := bytes.TrimSpace(line)
	if !bytes.HasPrefix(trimmed, []byte(DataPrefix)) {
		return Event{}, false
	}
	payload := bytes.TrimSpace(trimmed[len(DataPrefix):])
	raw := string(trimmed)

	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return Malformed(raw), true
	}

	switch rec.Type {
	case recordContent:
		return Content(rec.Content), true
	case recordSources:
		for _, src := range rec.Sources {
			if !src.Valid() {
				return Malformed(raw), true
			}
		}
		return Sources(rec.Sources), true
	case recordDone:
		return Done(), true
	default:
		return Malformed(raw), true
	}
}

// preview keeps the head of an oversized line for diagnostics.
func preview(line []byte) string {
	if len(line) <= rawPreviewBytes {
		return string(line)
	}
	return string(line[:rawPreviewBytes]) + "..."
}
