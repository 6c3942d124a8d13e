// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversations into downloadable artifacts.
//
// # Key Types
//
//   - Exporter: renders a conversation snapshot into an Artifact
//   - Artifact: file name, MIME type and content
//   - Options: where WriteArtifact writes
//
// # Supported Formats
//
//   - Markdown: the transcript format, one block per message
//   - JSON: the complete conversation, including sources
//
// # Usage
//
//	artifact, err := export.NewMarkdownExporter().Export(conv)
//	path, err := export.WriteArtifact(artifact, export.DefaultOptions())
package export
