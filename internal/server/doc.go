// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is a local stand-in for the document chat service.
//
// It speaks the same wire protocol as the real service and answers from a
// Responder instead of a language model, so the client can be developed and
// tested without a backend.
//
// # Endpoints
//
//   - POST /chat   - newline-delimited "data: {json}" records, or one JSON
//     object when the Responder asks for it
//   - GET  /health - {"status", "timestamp", "pdf_loaded"}
//
// # Usage
//
//	srv := server.New(server.Config{Addr: "127.0.0.1:8000"})
//	go srv.Start()
//	defer srv.Shutdown(ctx)
//
// Tests usually mount Handler on an httptest.Server instead.
package server
