// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/jeranaias/tariel/internal/chat"
	"github.com/jeranaias/tariel/internal/render"
	"github.com/jeranaias/tariel/internal/session"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ReplyMsg:
		return m.handleReply(msg)

	case render.TickMsg:
		cmd := m.reveal.Update(msg)
		m.refresh()
		return m, cmd

	case render.CompleteMsg:
		return m.handleRevealComplete(msg)

	case render.ScrollFrameMsg:
		offset, cmd, ok := m.settler.Update(msg)
		if ok {
			m.viewport.SetYOffset(offset)
		}
		return m, cmd

	case QuotaMsg:
		if msg.SessionID == m.conv.SessionID {
			m.calls = msg.Count
		}
		m.sessions = m.knownSessions()
		return m, waitForQuota(m.ctx, m.quotaCh)

	case SessionEventMsg:
		return m.handleSessionEvent(msg)

	case ArchivedMsg:
		if msg.Err != nil {
			m.logger.Warn().Err(msg.Err).Str("session_id", msg.SessionID).Msg("could not archive exchange")
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.NewSession):
		id := m.store.NewSession()
		if id == "" {
			m.lastErr = "Could not start a new session."
			return m, nil
		}
		m.switchTo(id)
		m.notice = "Started a new session."
		return m, nil

	case key.Matches(msg, m.keys.DeleteSession):
		old := m.conv.SessionID
		m.store.DeleteSession(old)
		id := m.store.NewSession()
		if id == "" {
			m.lastErr = "Could not start a new session."
			return m, nil
		}
		m.switchTo(id)
		m.notice = "Session deleted."
		return m, nil

	case key.Matches(msg, m.keys.ToggleAutoScroll):
		m.autoScroll = !m.autoScroll
		if !m.autoScroll {
			m.settler.Cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.settler.Cancel()
		m.viewport.ViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.settler.Cancel()
		m.viewport.ViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the input. While a request is in flight the input is kept
// and nothing is sent.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.sending {
		m.notice = "Still waiting for the previous reply."
		return m, nil
	}
	if m.conv.SessionID == "" {
		id := m.store.Current()
		if id == "" {
			m.lastErr = "Session storage is unavailable."
			return m, nil
		}
		m.switchTo(id)
	}

	// The previous reply, if still revealing, is shown whole from now on.
	m.reveal.Stop()
	m.settler.Cancel()

	ctx, cancel := context.WithCancel(m.ctx)
	m.cancelMgr.set(cancel)
	m.sending = true
	m.pending = text
	m.lastErr = ""
	m.notice = ""
	m.input.Reset()
	m.refresh()

	m.logger.Debug().Str("session_id", m.conv.SessionID).Int("messages", len(m.conv.Context.Messages)).Msg("submitting")
	return m, tea.Batch(
		sendCmd(ctx, m.orch, m.retry, m.conv, text),
		m.spinner.Tick,
	)
}

// =============================================================================
// REPLIES
// =============================================================================

func (m Model) handleReply(msg ReplyMsg) (tea.Model, tea.Cmd) {
	if msg.SessionID != m.conv.SessionID || !m.sending {
		m.logger.Debug().
			Str("session_id", msg.SessionID).
			Str("current", m.conv.SessionID).
			Msg("discarding reply for a session no longer current")
		return m, nil
	}

	m.cancelMgr.cancel()
	m.sending = false
	m.pending = ""

	if msg.Err != nil {
		m.lastErr = core.UserMessage(msg.Err)
		if m.input.Value() == "" {
			m.input.SetValue(msg.Text)
			m.input.CursorEnd()
		}
		m.calls = m.store.CurrentCalls(m.conv.SessionID)
		m.refresh()
		return m, nil
	}

	conv, ok := m.conv.Apply(msg.Result)
	if !ok {
		m.refresh()
		return m, nil
	}
	m.conv = conv
	m.calls = m.store.CurrentCalls(conv.SessionID)
	m.sessions = m.knownSessions()

	last := conv.Context.Messages[len(conv.Context.Messages)-1]
	m.revealID = last.ID
	cmd := m.reveal.Start(last.Content)
	m.refresh()

	return m, tea.Batch(cmd, archiveCmd(m.transcripts, msg.Result))
}

func (m Model) handleRevealComplete(msg render.CompleteMsg) (tea.Model, tea.Cmd) {
	if msg.Gen != m.reveal.Generation() {
		return m, nil
	}
	m.refresh()
	if !m.autoScroll || !m.ready {
		return m, nil
	}
	target := max(m.viewport.TotalLineCount()-m.viewport.Height, 0)
	return m, m.settler.Settle(m.viewport.YOffset, target)
}

// =============================================================================
// SESSION EVENTS
// =============================================================================

func (m Model) handleSessionEvent(msg SessionEventMsg) (tea.Model, tea.Cmd) {
	ev := msg.Event
	if ev.Type == session.EventCreated && ev.SessionID != m.conv.SessionID && ev.SessionID == m.store.Current() {
		// Rotated elsewhere, e.g. by another instance on this device.
		m.switchTo(ev.SessionID)
		m.notice = "Switched to a session started elsewhere."
	}
	m.sessions = m.knownSessions()
	return m, waitForSessionEvent(m.events)
}
