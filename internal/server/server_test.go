// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/stream"
)

func newTestClient(t *testing.T, cfg Config) (*api.Client, *Server) {
	t.Helper()
	s := New(cfg)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return api.NewClient(&api.ClientConfig{BaseURL: ts.URL}, nil), s
}

// collect decodes a streamed reply with the client's own decoder.
func collect(t *testing.T, body io.Reader) (string, []model.SourceRef) {
	t.Helper()
	data, err := io.ReadAll(body)
	require.NoError(t, err)

	var text strings.Builder
	var sources []model.SourceRef
	for _, ev := range stream.Decode(data) {
		switch ev.Kind {
		case stream.KindContent:
			text.WriteString(ev.Text)
		case stream.KindSources:
			sources = ev.Sources
		}
	}
	return text.String(), sources
}

func TestEchoStream(t *testing.T) {
	client, s := newTestClient(t, Config{})

	reply, err := client.Chat(context.Background(), api.ChatRequest{Message: "what is covered?", ConversationID: "session-1"})
	require.NoError(t, err)
	defer reply.Close()
	assert.True(t, reply.Streaming)

	text, sources := collect(t, reply.Body)
	assert.Equal(t, "You asked: what is covered? [Page 1]", text)
	require.Len(t, sources, 2)
	assert.Equal(t, 1, sources[0].PageNumber)

	reqs := s.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "session-1", reqs[0].ConversationID)
}

func TestJSONReply(t *testing.T) {
	client, _ := newTestClient(t, Config{Responder: func(context.Context, api.ChatRequest) Reply {
		return Reply{JSON: true, Fragments: []string{"whole ", "answer"}}
	}})

	reply, err := client.Chat(context.Background(), api.ChatRequest{Message: "q"})
	require.NoError(t, err)
	defer reply.Close()
	require.False(t, reply.Streaming)

	events, err := stream.DecodeReply(reply.Body)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "whole answer", events[0].Text)
	assert.Empty(t, events[1].Sources)
}

func TestErrorStatus(t *testing.T) {
	client, _ := newTestClient(t, Config{Responder: func(context.Context, api.ChatRequest) Reply {
		return Reply{Status: http.StatusTooManyRequests, Detail: "slow down"}
	}})

	_, err := client.Chat(context.Background(), api.ChatRequest{Message: "q"})
	require.Error(t, err)
	assert.True(t, api.IsRateLimited(err))
	assert.Contains(t, err.Error(), "slow down")
}

func TestBlankMessageRejected(t *testing.T) {
	client, s := newTestClient(t, Config{})
	_, err := client.Chat(context.Background(), api.ChatRequest{Message: "  "})
	require.Error(t, err)
	assert.True(t, api.IsRejected(err))
	assert.Empty(t, s.Requests())
}

func TestDelayStopsWhenClientLeaves(t *testing.T) {
	client, _ := newTestClient(t, Config{Responder: func(context.Context, api.ChatRequest) Reply {
		return Reply{Fragments: []string{"a", "b", "c"}, Delay: time.Hour}
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	reply, err := client.Chat(ctx, api.ChatRequest{Message: "q"})
	require.NoError(t, err, "headers arrive before the first delayed fragment")
	defer reply.Close()
	assert.True(t, reply.Streaming)

	_, err = io.ReadAll(reply.Body)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	client, _ := newTestClient(t, Config{})
	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Healthy())
	assert.NotEmpty(t, status.Timestamp)

	client, _ = newTestClient(t, Config{NoDocument: true})
	status, err = client.Health(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Healthy())
}

func TestRecoveryAndLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := New(Config{
		Logger: zap.New(core),
		Responder: func(context.Context, api.ChatRequest) Reply {
			panic("responder exploded")
		},
	})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"q"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
	requests := logs.FilterMessage("request").All()
	require.Len(t, requests, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), requests[0].ContextMap()["status"])
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Chain(mw("first"), mw("second"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestStartShutdown(t *testing.T) {
	early := New(Config{Addr: "127.0.0.1:0"})
	require.NoError(t, early.Shutdown(context.Background()))
	assert.NoError(t, early.Start(), "a closed server does not listen")

	s := New(Config{Addr: "127.0.0.1:0"})
	errc := make(chan error, 1)
	go func() { errc <- s.Start() }()
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.server != nil
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-errc)
}
