// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/tariel/internal/chat"
	"github.com/jeranaias/tariel/internal/session"
	"github.com/jeranaias/tariel/internal/storage"
)

// =============================================================================
// COMMAND CREATORS
// =============================================================================

// sendCmd runs one submission, retrying transient failures per policy.
func sendCmd(ctx context.Context, o *core.Orchestrator, policy core.RetryPolicy, conv core.Conversation, text string) tea.Cmd {
	return func() tea.Msg {
		res, err := core.SendWithRetry(ctx, o, policy, conv.SessionID, text, conv.Context)
		return ReplyMsg{
			SessionID: conv.SessionID,
			Text:      text,
			Result:    res,
			Err:       err,
		}
	}
}

// archiveCmd writes an accepted exchange to the transcript archive.
func archiveCmd(ts *storage.TranscriptStore, res core.Result) tea.Cmd {
	if ts == nil {
		return nil
	}
	return func() tea.Msg {
		return ArchivedMsg{SessionID: res.SessionID, Err: core.Archive(ts, res)}
	}
}

// waitForQuota delivers the next quota change, or nothing once ctx is done.
func waitForQuota(ctx context.Context, ch <-chan QuotaMsg) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// waitForSessionEvent delivers the next session bus event.
func waitForSessionEvent(ch <-chan session.SessionEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return SessionEventMsg{Event: ev}
	}
}
