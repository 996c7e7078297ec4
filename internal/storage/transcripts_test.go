// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

func exchange(user, assistant string) []TranscriptMessage {
	now := time.Now()
	return []TranscriptMessage{
		{ID: "u-" + user, Role: "user", Content: user, Timestamp: now},
		{ID: "a-" + user, Role: "assistant", Content: assistant, Timestamp: now},
	}
}

func TestTranscriptStore_AppendAndLoad(t *testing.T) {
	store, err := NewTranscriptStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if err := store.Append("lz1abc-k3j2h1g0f9", exchange("Hello", "Hi there!")...); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := store.Append("lz1abc-k3j2h1g0f9", exchange("Rates?", "| Year | Yield |")...); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	loaded, err := store.Load("lz1abc-k3j2h1g0f9")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Messages) != 4 {
		t.Fatalf("Messages = %d, want 4", len(loaded.Messages))
	}
	if loaded.Messages[2].Content != "Rates?" {
		t.Errorf("order not preserved: %+v", loaded.Messages)
	}
	if loaded.CreatedAt.IsZero() || loaded.UpdatedAt.Before(loaded.CreatedAt) {
		t.Errorf("bad timestamps: created=%v updated=%v", loaded.CreatedAt, loaded.UpdatedAt)
	}
}

func TestTranscriptStore_LoadNotFound(t *testing.T) {
	store, _ := NewTranscriptStore(t.TempDir())

	_, err := store.Load("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestTranscriptStore_RejectsPathTraversal(t *testing.T) {
	store, _ := NewTranscriptStore(t.TempDir())

	for _, id := range []string{"", "../evil", "a/b", `a\b`} {
		if err := store.Append(id, exchange("x", "y")...); err == nil {
			t.Errorf("Append(%q) should fail", id)
		}
	}
}

func TestTranscriptStore_ListMostRecentFirst(t *testing.T) {
	store, _ := NewTranscriptStore(t.TempDir())

	store.Append("older", exchange("first question", "a")...)
	time.Sleep(10 * time.Millisecond)
	store.Append("newer", exchange("second question", "b")...)

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("List = %d entries, want 2", len(metas))
	}
	if metas[0].SessionID != "newer" {
		t.Errorf("first entry = %q, want newer", metas[0].SessionID)
	}
	if metas[1].Preview != "first question" || metas[1].MessageCount != 2 {
		t.Errorf("unexpected meta: %+v", metas[1])
	}
}

func TestTranscriptStore_EnforceLimit(t *testing.T) {
	store, _ := NewTranscriptStore(t.TempDir())
	store.MaxTranscripts = 2

	for _, id := range []string{"s1", "s2", "s3"} {
		store.Append(id, exchange(id, id)...)
		time.Sleep(10 * time.Millisecond)
	}

	metas, _ := store.List()
	if len(metas) != 2 {
		t.Fatalf("List = %d entries, want 2", len(metas))
	}
	if _, err := store.Load("s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("oldest transcript should be evicted, got %v", err)
	}
}

func TestTranscript_Export(t *testing.T) {
	tr := &Transcript{
		SessionID: "abc",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Messages:  exchange("Hello", "Hi there!"),
	}

	md, err := tr.Export("md")
	if err != nil {
		t.Fatalf("Export md: %v", err)
	}
	for _, want := range []string{"# Session abc", "**User**", "**Assistant**", "Hi there!"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	js, err := tr.Export("json")
	if err != nil {
		t.Fatalf("Export json: %v", err)
	}
	var decoded Transcript
	if err := json.Unmarshal(js, &decoded); err != nil || decoded.SessionID != "abc" {
		t.Errorf("json export not decodable: %v", err)
	}

	ym, err := tr.Export("yaml")
	if err != nil {
		t.Fatalf("Export yaml: %v", err)
	}
	var generic map[string]interface{}
	if err := yaml.Unmarshal(ym, &generic); err != nil {
		t.Fatalf("yaml export not decodable: %v", err)
	}
	if generic["session_id"] != "abc" {
		t.Errorf("yaml session_id = %v", generic["session_id"])
	}

	if _, err := tr.Export("pdf"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestFormatList(t *testing.T) {
	if got := FormatList(nil); got != "No transcripts found." {
		t.Errorf("FormatList(nil) = %q", got)
	}
	out := FormatList([]TranscriptMeta{{SessionID: "abc", MessageCount: 2, Preview: "hello"}})
	if !strings.Contains(out, "abc") || !strings.Contains(out, "hello") {
		t.Errorf("FormatList missing fields: %q", out)
	}
}
