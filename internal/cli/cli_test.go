// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tariel/internal/chat"
	"github.com/jeranaias/tariel/internal/config"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeEndpoint answers every request with reply and records what it saw.
type fakeEndpoint struct {
	mu       sync.Mutex
	requests []chat.Request
	status   int
	reply    string
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	status, reply := f.status, f.reply
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"detail":"model overloaded"}`))
		return
	}
	_ = json.NewEncoder(w).Encode(chat.Response{Response: reply})
}

func (f *fakeEndpoint) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeEndpoint) last() chat.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// setup isolates ~/.tariel, writes a config that never retries and starts
// a fake endpoint.
func setup(t *testing.T, reply string) (*fakeEndpoint, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("TARIEL_HOME", home)
	for _, name := range []string{
		"TARIEL_ENDPOINT", "TARIEL_TIMEOUT_MS", "TARIEL_USE_TOOLS", "TARIEL_MAX_CALLS",
		"TARIEL_SESSION_BACKEND", "TARIEL_REVEAL_SPEED", "TARIEL_LOG_LEVEL",
	} {
		t.Setenv(name, "")
	}

	ep := &fakeEndpoint{reply: reply}
	srv := httptest.NewServer(ep)
	t.Cleanup(srv.Close)

	cfg := "[endpoint]\nurl = \"" + srv.URL + "\"\n\n[retry]\nmax_attempts = 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(cfg), 0o600))
	return ep, home
}

// run executes the command tree with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func firstLine(s string) string {
	return strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
}

// =============================================================================
// ROOT
// =============================================================================

func TestRoot_PrintsHelpWithoutTerminal(t *testing.T) {
	setup(t, "")

	out, err := run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "tariel ask")
	assert.Contains(t, out, "session")
	assert.Contains(t, out, "history")
}

func TestRoot_RejectsBadEndpoint(t *testing.T) {
	setup(t, "")

	_, err := run(t, "--endpoint", "ftp://nowhere", "session", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "endpoint")
}

// =============================================================================
// ASK
// =============================================================================

func TestAsk_PrintsReply(t *testing.T) {
	ep, _ := setup(t, "Stablecoins track a reference asset.")

	out, err := run(t, "ask", "what", "is", "a", "stablecoin?")
	require.NoError(t, err)
	assert.Contains(t, out, "Stablecoins track a reference asset.")

	require.Equal(t, 1, ep.count())
	req := ep.last()
	assert.True(t, req.UseTools)
	require.NotEmpty(t, req.Messages)
	final := req.Messages[len(req.Messages)-1]
	assert.Equal(t, chat.RoleUser, final.Role)
	assert.Equal(t, "what is a stablecoin?", final.Content)
}

func TestAsk_RawSkipsFormatting(t *testing.T) {
	reply := "| Coin | Yield |\n|---|---|\n| USDC | 4% |"
	setup(t, reply)

	out, err := run(t, "ask", "--raw", "compare")
	require.NoError(t, err)
	assert.Equal(t, reply+"\n", out)
}

func TestAsk_DrawsTables(t *testing.T) {
	setup(t, "Here you go:\n\n| Coin | Yield |\n|---|---|\n| USDC | 4% |")

	out, err := run(t, "ask", "compare")
	require.NoError(t, err)
	assert.Contains(t, out, "USDC")
	assert.NotContains(t, out, "|---|")
}

func TestAsk_RemoteErrorShowsDetail(t *testing.T) {
	ep, _ := setup(t, "")
	ep.status = http.StatusInternalServerError

	_, err := run(t, "ask", "hello")
	require.Error(t, err)
	assert.Equal(t, "The assistant returned an error: model overloaded", err.Error())
	assert.Equal(t, 1, ep.count(), "max_attempts = 1 must not retry")
}

func TestAsk_ArchivesExchange(t *testing.T) {
	setup(t, "Archived answer.")

	_, err := run(t, "ask", "keep this")
	require.NoError(t, err)

	id, err := run(t, "session", "show")
	require.NoError(t, err)
	sessionID := strings.TrimSpace(strings.TrimPrefix(firstLine(id), "Session:"))
	require.NotEmpty(t, sessionID)

	list, err := run(t, "history", "list")
	require.NoError(t, err)
	assert.Contains(t, list, sessionID)

	md, err := run(t, "history", "export", sessionID)
	require.NoError(t, err)
	assert.Contains(t, md, "keep this")
	assert.Contains(t, md, "Archived answer.")

	yml, err := run(t, "history", "export", sessionID, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, yml, "Archived answer.")
}

func TestAsk_NewStartsFreshSession(t *testing.T) {
	setup(t, "ok")

	before, err := run(t, "session", "show")
	require.NoError(t, err)

	_, err = run(t, "ask", "--new", "hi")
	require.NoError(t, err)

	after, err := run(t, "session", "show")
	require.NoError(t, err)
	assert.NotEqual(t, firstLine(before), firstLine(after))
}

// =============================================================================
// SESSION
// =============================================================================

func TestSession_ShowIsStableAcrossRuns(t *testing.T) {
	setup(t, "")

	first, err := run(t, "session", "show")
	require.NoError(t, err)
	second, err := run(t, "session", "show")
	require.NoError(t, err)

	assert.Equal(t, firstLine(first), firstLine(second))
	assert.Contains(t, first, "Calls:     0/30")
	assert.Contains(t, first, "Remaining: 30")
}

func TestSession_NewPersists(t *testing.T) {
	setup(t, "")

	out, err := run(t, "session", "new")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	show, err := run(t, "session", "show")
	require.NoError(t, err)
	assert.Equal(t, "Session:   "+id, firstLine(show))
}

func TestSession_DeleteRotates(t *testing.T) {
	setup(t, "")

	show, err := run(t, "session", "show")
	require.NoError(t, err)
	old := strings.TrimSpace(strings.TrimPrefix(firstLine(show), "Session:"))

	out, err := run(t, "session", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+old)

	show, err = run(t, "session", "show")
	require.NoError(t, err)
	assert.NotContains(t, firstLine(show), old)
}

func TestSession_DeletePurgeRemovesTranscript(t *testing.T) {
	setup(t, "answer")

	_, err := run(t, "ask", "question")
	require.NoError(t, err)
	show, err := run(t, "session", "show")
	require.NoError(t, err)
	id := strings.TrimSpace(strings.TrimPrefix(firstLine(show), "Session:"))

	_, err = run(t, "session", "delete", "--purge")
	require.NoError(t, err)

	_, err = run(t, "history", "export", id)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transcript")
}

// =============================================================================
// HISTORY
// =============================================================================

func TestHistory_ExportToFile(t *testing.T) {
	_, home := setup(t, "to disk")

	_, err := run(t, "ask", "save me")
	require.NoError(t, err)
	show, err := run(t, "session", "show")
	require.NoError(t, err)
	id := strings.TrimSpace(strings.TrimPrefix(firstLine(show), "Session:"))

	dest := filepath.Join(home, "out.json")
	_, err = run(t, "history", "export", id, "--format", "json", "--output", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to disk")
}

func TestHistory_ExportUnknownFormat(t *testing.T) {
	setup(t, "x")

	_, err := run(t, "ask", "q")
	require.NoError(t, err)
	show, err := run(t, "session", "show")
	require.NoError(t, err)
	id := strings.TrimSpace(strings.TrimPrefix(firstLine(show), "Session:"))

	_, err = run(t, "history", "export", id, "--format", "pdf")
	assert.Error(t, err)
}

// =============================================================================
// REPL
// =============================================================================

func newTestREPL(t *testing.T, reply string) (*repl, *bytes.Buffer, *fakeEndpoint) {
	t.Helper()
	ep, _ := setup(t, reply)

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Session.Backend = config.BackendMemory

	app, err := NewApp(cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { app.Close() })

	var out bytes.Buffer
	return newREPL(app, &out), &out, ep
}

func TestREPL_SendAdvancesConversation(t *testing.T) {
	r, out, ep := newTestREPL(t, "pong")
	ctx := context.Background()

	assert.False(t, r.handle(ctx, "ping"))
	assert.Contains(t, out.String(), "pong")
	assert.Len(t, r.conv.Context.Messages, 2)
	assert.Equal(t, 1, r.app.Store.CurrentCalls(r.conv.SessionID))
	assert.Equal(t, "tariel [1/30]> ", r.prompt())

	r.handle(ctx, "again")
	assert.Len(t, r.conv.Context.Messages, 4)
	assert.Len(t, ep.last().Messages, 3, "first exchange plus the new question")
}

func TestREPL_Commands(t *testing.T) {
	r, out, _ := newTestREPL(t, "pong")
	ctx := context.Background()

	r.handle(ctx, "ping")
	first := r.conv.SessionID

	r.handle(ctx, "/new")
	assert.NotEqual(t, first, r.conv.SessionID)
	assert.Empty(t, r.conv.Context.Messages)
	assert.Equal(t, "tariel [0/30]> ", r.prompt())

	second := r.conv.SessionID
	r.handle(ctx, "/delete")
	assert.NotEqual(t, second, r.conv.SessionID)
	assert.Contains(t, out.String(), "Session deleted.")

	out.Reset()
	r.handle(ctx, "/status")
	assert.Contains(t, out.String(), r.conv.SessionID)

	out.Reset()
	assert.False(t, r.handle(ctx, "/bogus"))
	assert.Contains(t, out.String(), "Unknown command /bogus")

	assert.True(t, r.handle(ctx, "/quit"))
	assert.True(t, r.handle(ctx, "/exit"))
}

func TestREPL_QuotaExceeded(t *testing.T) {
	r, out, ep := newTestREPL(t, "pong")
	ctx := context.Background()

	for i := 0; i < r.app.Store.Ceiling(); i++ {
		r.handle(ctx, "ping")
	}
	require.Equal(t, 30, ep.count())

	out.Reset()
	r.handle(ctx, "one more")
	assert.Equal(t, 30, ep.count(), "no request past the ceiling")
	assert.Contains(t, out.String(), "used all the calls")

	r.handle(ctx, "/new")
	r.handle(ctx, "fresh")
	assert.Equal(t, 31, ep.count())
}
