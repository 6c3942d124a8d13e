// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream decodes the backend's chunked, newline-delimited response
// body into discrete application events.
//
// The wire format is one record per line:
//
//	data: {"type":"content","content":"Chapter 2 covers "}
//	data: {"type":"sources","sources":[{"page_number":4}]}
//	data: {"type":"done"}
//
// Lines without the "data:" marker are ignored. A line that carries the
// marker but cannot be decoded becomes a Malformed event and decoding goes
// on with the next line. A "done" record ends the sequence; so does the end
// of the body.
//
// Decoder is the push-style core: feed it chunks as they arrive and it keeps
// any partial trailing line until the next chunk. Reader and Events wrap it
// for pull-style consumption of an io.Reader. None of these types touch
// conversation state.
package stream
