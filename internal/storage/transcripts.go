// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/tariel/internal/util"
)

// =============================================================================
// TRANSCRIPT TYPES
// =============================================================================

// Transcript is the archived record of one session's exchanges.
type Transcript struct {
	SessionID string              `json:"session_id" yaml:"session_id"`
	CreatedAt time.Time           `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" yaml:"updated_at"`
	Messages  []TranscriptMessage `json:"messages" yaml:"messages"`
}

// TranscriptMessage is one archived message.
type TranscriptMessage struct {
	ID        string    `json:"id" yaml:"id"`
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// TranscriptMeta summarizes a transcript for listings.
type TranscriptMeta struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"` // First user message truncated
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore keeps one JSON file per session under BaseDir.
type TranscriptStore struct {
	// BaseDir is the directory for transcripts.
	// Default: ~/.tariel/history/
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited)
	MaxTranscripts int

	mu sync.Mutex
}

// NewTranscriptStore creates a store rooted at baseDir.
func NewTranscriptStore(baseDir string) (*TranscriptStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "create history directory")
	}
	return &TranscriptStore{
		BaseDir:        baseDir,
		MaxTranscripts: 200,
	}, nil
}

// Append adds messages to the session's transcript, creating it on first use.
func (s *TranscriptStore) Append(sessionID string, msgs ...TranscriptMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	path, err := s.filePath(sessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.load(path)
	if errors.Is(err, ErrNotFound) {
		t = &Transcript{SessionID: sessionID}
	} else if err != nil {
		return err
	}

	t.Messages = append(t.Messages, msgs...)
	t.UpdatedAt = time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = t.UpdatedAt
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode transcript")
	}
	if err := util.AtomicWriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "write transcript %s", sessionID)
	}

	if s.MaxTranscripts > 0 {
		s.enforceLimit()
	}
	return nil
}

// Load retrieves a transcript by session ID.
func (s *TranscriptStore) Load(sessionID string) (*Transcript, error) {
	path, err := s.filePath(sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(path)
}

func (s *TranscriptStore) load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "read transcript")
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrapf(err, "decode %s", filepath.Base(path))
	}
	return &t, nil
}

// List returns all transcripts, most recently updated first.
// Corrupted files are skipped.
func (s *TranscriptStore) List() ([]TranscriptMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list()
}

func (s *TranscriptStore) list() ([]TranscriptMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TranscriptMeta{}, nil
		}
		return nil, errors.Wrap(err, "read history directory")
	}

	metas := []TranscriptMeta{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		t, err := s.load(filepath.Join(s.BaseDir, entry.Name()))
		if err != nil {
			continue
		}
		metas = append(metas, TranscriptMeta{
			SessionID:    t.SessionID,
			CreatedAt:    t.CreatedAt,
			UpdatedAt:    t.UpdatedAt,
			MessageCount: len(t.Messages),
			Preview:      t.Preview(),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes a session's transcript.
func (s *TranscriptStore) Delete(sessionID string) error {
	path, err := s.filePath(sessionID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return errors.Wrap(err, "remove transcript")
	}
	return nil
}

// enforceLimit removes the oldest transcripts beyond MaxTranscripts.
// Caller holds s.mu.
func (s *TranscriptStore) enforceLimit() {
	metas, err := s.list()
	if err != nil || len(metas) <= s.MaxTranscripts {
		return
	}
	for _, m := range metas[s.MaxTranscripts:] {
		if path, err := s.filePath(m.SessionID); err == nil {
			os.Remove(path)
		}
	}
}

// filePath maps a session ID to its file, rejecting IDs that would escape BaseDir.
func (s *TranscriptStore) filePath(sessionID string) (string, error) {
	if sessionID == "" || strings.ContainsAny(sessionID, `/\`) || strings.Contains(sessionID, "..") {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}
	return filepath.Join(s.BaseDir, sessionID+".json"), nil
}

// =============================================================================
// EXPORT
// =============================================================================

// Export formats.
const (
	FormatMarkdown = "md"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// Export renders the transcript in the named format.
func (t *Transcript) Export(format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatMarkdown, "markdown", "":
		return []byte(t.ExportMarkdown()), nil
	case FormatJSON:
		return t.ExportJSON()
	case FormatYAML, "yml":
		return t.ExportYAML()
	default:
		return nil, fmt.Errorf("unknown export format %q (want md, json or yaml)", format)
	}
}

// ExportMarkdown renders the transcript with role headings per message.
func (t *Transcript) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# Session " + t.SessionID + "\n\n")
	sb.WriteString("Created: " + t.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range t.Messages {
		role := "**User**"
		switch msg.Role {
		case "assistant":
			role = "**Assistant**"
		case "system":
			role = "**System**"
		}
		sb.WriteString(role + " (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// ExportJSON returns pretty-printed JSON.
func (t *Transcript) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ExportYAML returns the transcript as YAML.
func (t *Transcript) ExportYAML() ([]byte, error) {
	return yaml.Marshal(t)
}

// Preview returns the first user message, truncated for listings.
func (t *Transcript) Preview() string {
	for _, msg := range t.Messages {
		if msg.Role == "user" && msg.Content != "" {
			return util.SingleLine(util.TruncateRunes(msg.Content, 80))
		}
	}
	return ""
}

// FormatList renders transcript metadata as a fixed-width table.
func FormatList(metas []TranscriptMeta) string {
	if len(metas) == 0 {
		return "No transcripts found."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-24s %-17s %-8s %s\n", "Session", "Updated", "Messages", "Preview")
	sb.WriteString(strings.Repeat("-", 72) + "\n")
	for _, m := range metas {
		fmt.Fprintf(&sb, "%-24s %-17s %-8d %s\n",
			util.TruncateRunes(m.SessionID, 24),
			m.UpdatedAt.Format("2006-01-02 15:04"),
			m.MessageCount,
			util.TruncateRunes(m.Preview, 30))
	}
	return sb.String()
}
