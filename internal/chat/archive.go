// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/tariel/internal/storage"
)

// Archiver stores transcript messages for a session.
type Archiver interface {
	Append(sessionID string, msgs ...storage.TranscriptMessage) error
}

// TranscriptMessage converts m for archiving.
func (m Message) TranscriptMessage() storage.TranscriptMessage {
	return storage.TranscriptMessage{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
}

// Archive appends the exchange res added (its final user and assistant
// messages) to the session's transcript. Unsent results are ignored.
func Archive(a Archiver, res Result) error {
	if a == nil || !res.Sent || len(res.Context.Messages) < 2 {
		return nil
	}
	msgs := res.Context.Messages[len(res.Context.Messages)-2:]
	return a.Append(res.SessionID, msgs[0].TranscriptMessage(), msgs[1].TranscriptMessage())
}
