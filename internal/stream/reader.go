// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"io"
	"iter"
)

// readBufferSize is the size of each read from the transport.
const readBufferSize = 4096

// =============================================================================
// STREAM READER
// =============================================================================

// Reader pulls events out of a response body one at a time.
//
// Events decoded before a transport error are still delivered; the error is
// returned after them. Once a done record is seen the body is not read again.
type Reader struct {
	r       io.Reader
	dec     *Decoder
	buf     []byte
	pending []Event
	err     error // terminal error, io.EOF for a clean end
}

// NewReader creates a reader over a response body.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:   r,
		dec: NewDecoder(),
		buf: make([]byte, readBufferSize),
	}
}

// Next returns the next event. It returns io.EOF after the last event, the
// context's error if ctx is done before an event is available, or the
// transport's error.
//
// Cancelling ctx does not interrupt a Read already blocked on the body; the
// caller aborts the underlying request for that.
func (r *Reader) Next(ctx context.Context) (Event, error) {
	for {
		if len(r.pending) > 0 {
			ev := r.pending[0]
			r.pending = r.pending[1:]
			return ev, nil
		}
		if r.err != nil {
			return Event{}, r.err
		}
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}

		n, err := r.r.Read(r.buf)
		if n > 0 {
			r.pending = append(r.pending, r.dec.Feed(r.buf[:n])...)
			if r.dec.Done() {
				r.err = io.EOF
				continue
			}
		}
		switch {
		case err == io.EOF:
			r.pending = append(r.pending, r.dec.Flush()...)
			r.err = io.EOF
		case err != nil:
			r.err = err
		}
	}
}

// Events returns an iterator over the events of r. Iteration ends after the
// last event; a transport or context error is yielded once as the final
// element.
func Events(ctx context.Context, r io.Reader) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		sr := NewReader(r)
		for {
			ev, err := sr.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Event{}, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}
