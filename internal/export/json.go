// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to JSON format.
// The document carries the complete conversation, including every source
// reference, so it can be inspected or re-imported by other tooling.
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts a conversation to indented JSON.
func (e *JSONExporter) Export(conv model.Conversation) (*Artifact, error) {
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	return &Artifact{
		Filename: Filename(conv.DisplayName(), e.FileExtension()),
		MimeType: e.MimeType(),
		Content:  append(data, '\n'),
	}, nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}

// ForFormat returns the exporter for a format name ("markdown" or "json").
func ForFormat(format string) (Exporter, error) {
	switch format {
	case "", "markdown", "md":
		return NewMarkdownExporter(), nil
	case "json":
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}
