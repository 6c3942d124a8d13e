// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export renders a conversation snapshot.
	Export(conv model.Conversation) (*Artifact, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Artifact is a rendered export.
type Artifact struct {
	Filename string
	MimeType string
	Content  []byte
}

// Filename returns the artifact name for a conversation: the name with
// whitespace replaced by underscores, then "_export" and the extension.
func Filename(name, ext string) string {
	var b strings.Builder
	for _, r := range name {
		if unicode.IsSpace(r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	b.WriteString("_export")
	b.WriteString(ext)
	return b.String()
}

// =============================================================================
// WRITING
// =============================================================================

// Options configures WriteArtifact.
type Options struct {
	// OutputDir receives export files. Empty means the working directory.
	OutputDir string
}

// DefaultOptions writes into the working directory.
func DefaultOptions() *Options {
	return &Options{OutputDir: "."}
}

// WriteArtifact stores a into opts.OutputDir and returns the path written.
// Readers never observe a partially written export.
func WriteArtifact(a *Artifact, opts *Options) (string, error) {
	if a == nil {
		return "", errors.New("export: nil artifact")
	}
	dir := "."
	if opts != nil && opts.OutputDir != "" {
		dir = opts.OutputDir
	}

	path := filepath.Join(dir, safeFilename(a.Filename))
	if err := util.AtomicWriteFile(path, a.Content, 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}

// maxFilenameRunes keeps the tail of long names, which holds the extension.
const maxFilenameRunes = 120

// safeFilename maps characters that some filesystem rejects to '-' and
// strips leading dots so exports are never hidden files.
func safeFilename(name string) string {
	if runes := []rune(name); len(runes) > maxFilenameRunes {
		name = string(runes[len(runes)-maxFilenameRunes:])
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '-'
		}
		return r
	}, name)
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "conversation_export"
	}
	return name
}
