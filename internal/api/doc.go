// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the document chat service.
//
// The service exposes two endpoints:
//
//	POST {base}/chat    {"message": "...", "conversation_id": "..."}
//	GET  {base}/health  {"status": "...", "timestamp": "...", "pdf_loaded": true}
//
// A successful chat response body is the newline-delimited record stream
// decoded by package stream. Older deployments answer with a single JSON
// object instead; Reply.Streaming tells the two apart.
//
// Errors are returned as *ClientError with a Type that maps onto the
// user-facing error categories: rate limited, rejected, network failure.
package api
