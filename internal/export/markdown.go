// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/jeranaias/docchat-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown format.
type MarkdownExporter struct{}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter() *MarkdownExporter {
	return &MarkdownExporter{}
}

// supTags removes superscript markup from message content.
var supTags = strings.NewReplacer("<sup>", "", "</sup>", "")

// Export converts a conversation to Markdown. Each message becomes a role
// label, its content, and a horizontal rule. An empty conversation yields
// an empty body.
func (e *MarkdownExporter) Export(conv model.Conversation) (*Artifact, error) {
	var sb strings.Builder

	for _, msg := range conv.Messages {
		label, err := roleLabel(msg.Role)
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", msg.ID, err)
		}
		sb.WriteString("**")
		sb.WriteString(label)
		sb.WriteString(":**\n")
		sb.WriteString(supTags.Replace(msg.Content))
		sb.WriteString("\n\n---\n\n")
	}

	return &Artifact{
		Filename: Filename(conv.DisplayName(), e.FileExtension()),
		MimeType: e.MimeType(),
		Content:  []byte(sb.String()),
	}, nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// MimeType returns the MIME type for Markdown.
func (e *MarkdownExporter) MimeType() string {
	return "text/markdown"
}

// roleLabel returns the speaker label for a message role.
func roleLabel(role model.Role) (string, error) {
	switch role {
	case model.RoleUser:
		return "You", nil
	case model.RoleAssistant:
		return "AI", nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}
