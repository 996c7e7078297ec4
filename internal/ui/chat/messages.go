// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	core "github.com/jeranaias/tariel/internal/chat"
	"github.com/jeranaias/tariel/internal/session"
)

// ReplyMsg carries the outcome of one submission. SessionID is the session
// the request was issued in, checked against the current one on arrival.
type ReplyMsg struct {
	SessionID string
	Text      string
	Result    core.Result
	Err       error
}

// QuotaMsg reports a new call count from the session notifier.
type QuotaMsg struct {
	SessionID string
	Count     int
}

// SessionEventMsg wraps an event from the session bus.
type SessionEventMsg struct {
	Event session.SessionEvent
}

// ArchivedMsg reports the outcome of writing an exchange to the transcript
// archive.
type ArchivedMsg struct {
	SessionID string
	Err       error
}
