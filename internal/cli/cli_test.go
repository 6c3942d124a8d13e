// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/model"
	"github.com/jeranaias/docchat-tui/internal/server"
)

// =============================================================================
// FIXTURES
// =============================================================================

// newChatServer answers every question with a streamed reply that cites
// page 2 and also lists an uncited page 7.
func newChatServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newScriptedServer(t, server.Config{Responder: func(_ context.Context, req api.ChatRequest) server.Reply {
		return server.Reply{
			Fragments: []string{"Answer to: " + req.Message, " [Page 2]"},
			Sources: []model.SourceRef{
				{PageNumber: 2, Excerpt: "excerpt two"},
				{PageNumber: 7, Excerpt: "excerpt seven"},
			},
		}
	}})
}

// failingServer answers every chat request with status.
func failingServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	return newScriptedServer(t, server.Config{Responder: func(context.Context, api.ChatRequest) server.Reply {
		return server.Reply{Status: status}
	}})
}

func newScriptedServer(t *testing.T, cfg server.Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(server.New(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

// isolate points HOME at a temp dir and writes a config file there. It
// returns the config path.
func isolate(t *testing.T, extra string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DOCCHAT_API_BASE_URL", "")
	t.Setenv("DOCCHAT_LANG", "")
	t.Setenv("DOCCHAT_LOG_LEVEL", "")

	exports := filepath.Join(home, "exports")
	path := filepath.Join(home, "config.toml")
	body := fmt.Sprintf("[log]\nlevel = \"off\"\n\n[export]\noutput_dir = %q\n%s", exports, extra)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func executeCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// =============================================================================
// ASK
// =============================================================================

func TestAskPrintsAnswerAndCitedSources(t *testing.T) {
	srv := newChatServer(t)
	cfg := isolate(t, "")

	stdout, _, err := executeCLI(t, "", "--config", cfg, "--base-url", srv.URL, "ask", "What is the refund policy?")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Answer to: What is the refund policy? [Page 2]")
	assert.Contains(t, stdout, "Sources")
	assert.Contains(t, stdout, "Page 2: excerpt two")
	assert.NotContains(t, stdout, "Page 7")
	assert.NotContains(t, stdout, "Q: ", "a single question has no header")
}

func TestAskConcurrentQuestionsJSON(t *testing.T) {
	srv := newChatServer(t)
	cfg := isolate(t, "")

	stdout, _, err := executeCLI(t, "", "--config", cfg, "--base-url", srv.URL,
		"ask", "--json", "first question", "second question", "third question")
	require.NoError(t, err)

	var results []askResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 3)

	seen := map[string]bool{}
	for i, q := range []string{"first question", "second question", "third question"} {
		res := results[i]
		assert.Equal(t, q, res.Question, "answers keep argument order")
		assert.Equal(t, "completed", res.State)
		assert.Equal(t, "Answer to: "+q+" [Page 2]", res.Answer)
		require.Len(t, res.Sources, 1)
		assert.Equal(t, 2, res.Sources[0].PageNumber)
		assert.False(t, seen[res.ConversationID], "each question gets its own conversation")
		seen[res.ConversationID] = true
	}
}

func TestAskReadsQuestionsFromStdin(t *testing.T) {
	srv := newChatServer(t)
	cfg := isolate(t, "")

	stdout, _, err := executeCLI(t, "one\n\n  two  \n", "--config", cfg, "--base-url", srv.URL, "ask", "-")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Q: one")
	assert.Contains(t, stdout, "Q: two")
	assert.Less(t, strings.Index(stdout, "Q: one"), strings.Index(stdout, "Q: two"))
}

func TestAskStream(t *testing.T) {
	srv := newChatServer(t)
	cfg := isolate(t, "")

	stdout, _, err := executeCLI(t, "", "--config", cfg, "--base-url", srv.URL, "ask", "--stream", "hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Answer to: hello [Page 2]\n"), stdout)
	assert.Contains(t, stdout, "Page 2: excerpt two")

	_, _, err = executeCLI(t, "", "--config", cfg, "--base-url", srv.URL, "ask", "--stream", "a", "b")
	assert.Error(t, err)
}

func TestAskRateLimited(t *testing.T) {
	srv := failingServer(t, http.StatusTooManyRequests)
	cfg := isolate(t, "")

	stdout, _, err := executeCLI(t, "", "--config", cfg, "--base-url", srv.URL, "ask", "hello")
	assert.ErrorIs(t, err, errAnswerFailed)
	assert.Contains(t, stdout, "too many requests")
}

func TestAskSpanishErrorText(t *testing.T) {
	srv := failingServer(t, http.StatusInternalServerError)
	cfg := isolate(t, "\n[ui]\nlanguage = \"es\"\n")

	stdout, _, err := executeCLI(t, "", "--config", cfg, "--base-url", srv.URL, "ask", "--json", "hola")
	assert.ErrorIs(t, err, errAnswerFailed)

	var results []askResult
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "errored", results[0].State)
	assert.Contains(t, results[0].Answer, "El servicio no pudo responder")
}

func TestAskRequiresQuestion(t *testing.T) {
	cfg := isolate(t, "")
	_, _, err := executeCLI(t, "", "--config", cfg, "ask")
	assert.Error(t, err)

	_, _, err = executeCLI(t, "\n\n", "--config", cfg, "ask", "-")
	assert.EqualError(t, err, "no question given")
}

// =============================================================================
// HEALTH
// =============================================================================

func TestHealth(t *testing.T) {
	srv := newChatServer(t)
	cfg := isolate(t, "")

	stdout, _, err := executeCLI(t, "", "--config", cfg, "--base-url", srv.URL, "health")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[OK] Service healthy, document loaded")
	assert.Contains(t, stdout, "Timestamp")

	stdout, _, err = executeCLI(t, "", "--config", cfg, "--base-url", srv.URL, "health", "--json")
	require.NoError(t, err)
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &record))
	assert.Equal(t, true, record["reachable"])
	assert.Equal(t, true, record["pdf_loaded"])
}

func TestHealthNoDocument(t *testing.T) {
	srv := newScriptedServer(t, server.Config{NoDocument: true})
	cfg := isolate(t, "")

	stdout, _, err := executeCLI(t, "", "--config", cfg, "--base-url", srv.URL, "health")
	assert.ErrorIs(t, err, errUnhealthy)
	assert.Contains(t, stdout, "[!] Service up, document not loaded")
}

func TestHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	cfg := isolate(t, "")

	stdout, _, err := executeCLI(t, "", "--config", cfg, "--base-url", url, "health")
	require.Error(t, err)
	assert.True(t, api.IsNetwork(err))
	assert.Contains(t, stdout, "[X] Service unreachable")
}

// =============================================================================
// CONFIG
// =============================================================================

func TestConfigInitGetSet(t *testing.T) {
	isolate(t, "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	stdout, _, err := executeCLI(t, "", "--config", path, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, path+"\n", stdout)

	_, _, err = executeCLI(t, "", "--config", path, "config", "init")
	require.NoError(t, err)
	_, _, err = executeCLI(t, "", "--config", path, "config", "init")
	assert.ErrorContains(t, err, "already exists")
	_, _, err = executeCLI(t, "", "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	_, _, err = executeCLI(t, "", "--config", path, "config", "set", "ui.language", "es")
	require.NoError(t, err)
	stdout, _, err = executeCLI(t, "", "--config", path, "config", "get", "ui.language")
	require.NoError(t, err)
	assert.Equal(t, "es\n", stdout)

	stdout, _, err = executeCLI(t, "", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, stdout, `language = "es"`)
	assert.Contains(t, stdout, "[api]")

	_, _, err = executeCLI(t, "", "--config", path, "config", "set", "ui.nope", "x")
	assert.Error(t, err)
	_, _, err = executeCLI(t, "", "--config", path, "config", "set", "ui.theme", "neon")
	assert.Error(t, err)
}

func TestConfigFlagOverridesBaseURL(t *testing.T) {
	cfg := isolate(t, "")
	stdout, _, err := executeCLI(t, "", "--config", cfg, "--base-url", "http://example.test:9000", "config", "get", "api.base_url")
	require.NoError(t, err)
	assert.Equal(t, "http://example.test:9000\n", stdout)
}

func TestConfigKeys(t *testing.T) {
	stdout, _, err := executeCLI(t, "", "config", "keys")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ui.single_fresh_conversation\n")
}

func TestMissingExplicitConfig(t *testing.T) {
	isolate(t, "")
	_, _, err := executeCLI(t, "", "--config", filepath.Join(t.TempDir(), "absent.toml"), "health")
	assert.Error(t, err)
}

// =============================================================================
// CHAT
// =============================================================================

func TestChatSession(t *testing.T) {
	srv := newChatServer(t)
	cfg := isolate(t, "")

	input := strings.Join([]string{
		"hello there",
		"/sources",
		"/new",
		"/rename Second",
		"/pin",
		"/list",
		"/switch 2",
		"/delete",
		"y",
		"/list",
		"/bogus",
		"/quit",
		"never sent",
	}, "\n")
	stdout, _, err := executeCLI(t, input, "--config", cfg, "--base-url", srv.URL, "chat")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Answer to: hello there [Page 2]")
	assert.Contains(t, stdout, "Page 2: excerpt two")
	assert.Contains(t, stdout, "Pinned")
	assert.Contains(t, stdout, ">*  1. Second")
	assert.Contains(t, stdout, "    2. Chat 1")
	assert.Contains(t, stdout, `Unknown command "/bogus"`)
	assert.NotContains(t, stdout, "never sent")

	// After deleting Chat 1 only the pinned conversation is listed.
	last := stdout[strings.LastIndex(stdout, "1. Second"):]
	assert.NotContains(t, last, "Chat 1")
}

func TestChatKeepsLastConversation(t *testing.T) {
	cfg := isolate(t, "")
	stdout, _, err := executeCLI(t, "/delete\n/new\n", "--config", cfg, "chat")
	require.NoError(t, err)
	assert.Contains(t, stdout, "The last conversation cannot be deleted")
	assert.Contains(t, stdout, "An empty conversation is already open")
}

func TestChatDeleteDeclined(t *testing.T) {
	cfg := isolate(t, "\n[ui]\nsingle_fresh_conversation = false\n")
	stdout, _, err := executeCLI(t, "/new\n/delete\nn\n/list\n", "--config", cfg, "chat")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Not deleted")
	assert.Contains(t, stdout, "2. Chat 2")
}

func TestChatExport(t *testing.T) {
	srv := newChatServer(t)
	cfg := isolate(t, "")

	stdout, _, err := executeCLI(t, "question\n/export\n", "--config", cfg, "--base-url", srv.URL, "chat")
	require.NoError(t, err)
	require.Contains(t, stdout, "Exported to ")

	path := strings.TrimSpace(stdout[strings.Index(stdout, "Exported to ")+len("Exported to "):])
	path = strings.SplitN(path, "\n", 2)[0]
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "**You:**\nquestion")
	assert.Contains(t, string(data), "**AI:**\nAnswer to: question [Page 2]")
}

// =============================================================================
// ROOT
// =============================================================================

func TestVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "docchat "+Version)
}

func TestTUINeedsTerminal(t *testing.T) {
	cfg := isolate(t, "")
	_, _, err := executeCLI(t, "", "--config", cfg)
	assert.ErrorIs(t, err, errNoTerminal)
}

func TestReadQuestions(t *testing.T) {
	qs, err := readQuestions(strings.NewReader("a\nb\n"), []string{"first", "-", "  ", "last"})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "a", "b", "last"}, qs)
}

func TestDevServerStopsWithContext(t *testing.T) {
	cmd := newRootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"dev-server", "--addr", "127.0.0.1:0"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.Contains(t, stdout.String(), "Serving on http://127.0.0.1:0")
}
