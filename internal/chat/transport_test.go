// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(url string) *HTTPTransport {
	return NewHTTPTransport(url).WithLogger(zerolog.Nop())
}

func TestHTTPTransport_Success(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"response":"Hi there!"}`))
	}))
	defer server.Close()

	resp, err := newTestTransport(server.URL).Do(context.Background(), Request{
		Messages: []WireMessage{{Role: RoleUser, Content: "Hello"}},
		UseTools: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", resp.Response)

	assert.Equal(t, true, got["use_tools"])
	msgs := got["messages"].([]interface{})
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"role": "user", "content": "Hello"}, first)
}

func TestHTTPTransport_RemoteErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail wins", 400, `{"detail":"bad input","message":"ignored"}`, "bad input"},
		{"message fallback", 422, `{"message":"missing field"}`, "missing field"},
		{"structured detail", 422, `{"detail":[{"loc":["body"]}]}`, `[{"loc":["body"]}]`},
		{"json without fields", 500, `{"error":"x"}`, "Server error: 500"},
		{"raw text", 502, "upstream exploded\n", "upstream exploded"},
		{"json string", 400, `"bad request text"`, "bad request text"},
		{"blank json string", 400, `"  "`, "Server error: 400"},
		{"empty body", 503, "", "Server error: 503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestTransport(server.URL).Do(context.Background(), Request{})
			require.Error(t, err)

			var ce *Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, KindRemote, ce.Kind)
			assert.Equal(t, tt.status, ce.Status)
			assert.Equal(t, tt.want, ce.Message)
			assert.Equal(t, tt.body, ce.Body)
		})
	}
}

func TestHTTPTransport_BadJSONIsUnknown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	}))
	defer server.Close()

	_, err := newTestTransport(server.URL).Do(context.Background(), Request{})
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestHTTPTransport_TimeoutIsNetwork(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := newTestTransport(server.URL).
		WithTimeout(50*time.Millisecond).
		Do(context.Background(), Request{})
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, Retryable(err))
}

func TestHTTPTransport_CancelIsNetworkNotRetryable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The server notices a client disconnect only once the body is consumed.
		io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestTransport(server.URL).Do(ctx, Request{})
	assert.Equal(t, KindNetwork, KindOf(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, Retryable(err))
}

func TestHTTPTransport_UnreachableIsNetwork(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestTransport(url).Do(context.Background(), Request{})
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestHTTPTransport_UntrustedCertificate(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":"unreachable"}`))
	}))
	defer server.Close()

	_, err := newTestTransport(server.URL).
		WithHTTPClient(&http.Client{}).
		Do(context.Background(), Request{})
	assert.Equal(t, KindCertificate, KindOf(err))
	assert.False(t, Retryable(err))

	// The test server's own client trusts its certificate.
	resp, err := newTestTransport(server.URL).
		WithHTTPClient(server.Client()).
		Do(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "unreachable", resp.Response)
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Contains(t, UserMessage(&Error{Kind: KindQuotaExceeded}), "new session")
	assert.Contains(t, UserMessage(&Error{Kind: KindRemote, Status: 400, Message: "bad input"}), "bad input")
	assert.Equal(t, "Sorry, I encountered an error. Please try again.", UserMessage(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindNetwork, KindOf(errors.Wrap(&Error{Kind: KindNetwork}, "wrapped")))
}
