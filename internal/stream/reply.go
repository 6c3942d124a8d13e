// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// ErrInvalidReply marks a reply body that was read completely but is not a
// valid reply object. Read failures are returned unwrapped.
var ErrInvalidReply = errors.New("invalid reply")

// MaxReplyBytes bounds a non-streaming reply body.
const MaxReplyBytes = 8 << 20

// reply is the single JSON object returned by services that do not stream.
type reply struct {
	Response *string           `json:"response"`
	Sources  []model.SourceRef `json:"sources"`
}

// DecodeReply turns a non-streaming JSON reply into the same events a stream
// would have produced: one Content, an optional Sources, then Done.
func DecodeReply(r io.Reader) ([]Event, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxReplyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxReplyBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrInvalidReply, MaxReplyBytes)
	}

	var rep reply
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidReply, err)
	}
	if rep.Response == nil {
		return nil, fmt.Errorf("%w: missing response field", ErrInvalidReply)
	}

	events := []Event{Content(*rep.Response)}
	if rep.Sources != nil {
		for _, src := range rep.Sources {
			if !src.Valid() {
				return nil, fmt.Errorf("%w: source page %d", ErrInvalidReply, src.PageNumber)
			}
		}
		events = append(events, Sources(rep.Sources))
	}
	return append(events, Done()), nil
}
