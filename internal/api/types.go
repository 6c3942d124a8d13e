// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import "io"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// Reply is an accepted chat response. The caller must close Body.
type Reply struct {
	Body       io.ReadCloser
	StatusCode int

	// Streaming is false when the service answered with one JSON object
	// rather than a record stream.
	Streaming bool
}

// Close closes the reply body.
func (r *Reply) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	PDFLoaded bool   `json:"pdf_loaded"`
}

// Healthy reports whether the service is up and has its document loaded.
func (h *HealthStatus) Healthy() bool {
	return h.Status == "healthy" && h.PDFLoaded
}

// errorBody is the error payload the service returns with non-2xx codes.
type errorBody struct {
	Detail string `json:"detail"`
}
