// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	core "github.com/jeranaias/tariel/internal/chat"
	"github.com/jeranaias/tariel/internal/render"
	"github.com/jeranaias/tariel/internal/ui/components"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.width >= minSidebarWidth {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderSidebar())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatus(),
		m.input.View(),
		m.help.View(m.keys),
	)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m Model) renderTranscript() string {
	msgs := m.conv.Context.Messages
	if len(msgs) == 0 && !m.sending {
		return m.theme.Muted.Render(fmt.Sprintf(
			"New session. %d of %d calls available.",
			m.store.RemainingCalls(m.conv.SessionID), m.store.Ceiling()))
	}

	width := max(m.viewport.Width-2, 10)
	parts := make([]string, 0, len(msgs)+1)
	for _, msg := range msgs {
		switch msg.Role {
		case core.RoleUser:
			parts = append(parts, m.renderUser(msg.Content, width))
		case core.RoleAssistant:
			parts = append(parts, m.renderAssistant(msg))
		}
	}
	if m.sending {
		parts = append(parts, m.renderUser(m.pending, width))
	}

	content := strings.Join(parts, "\n\n")
	if !m.reveal.Running() {
		content = render.Pad(content, m.scrollMargin)
	}
	return content
}

func (m Model) renderUser(text string, width int) string {
	return m.theme.UserLabel.Render("You") + "\n" + m.theme.UserText.Width(width).Render(text)
}

func (m Model) renderAssistant(msg core.Message) string {
	text, final := msg.Content, true
	if msg.ID == m.revealID && m.reveal.Running() {
		text, final = m.reveal.Visible(), false
	}
	return m.theme.AssistantLabel.Render("Assistant") + "\n" + m.formatter.Render(text, final)
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) renderHeader() string {
	m.header.SetWidth(m.width)
	m.header.SetSession(m.conv.SessionID)
	return m.header.View()
}

func (m Model) renderStatus() string {
	bar := m.status
	bar.SetWidth(m.width)
	bar.SetQuota(m.calls, m.store.Ceiling())
	bar.AutoScroll = m.autoScroll

	switch {
	case m.sending:
		bar.SetStatus(components.StatusThinking)
		bar.Spinner = m.spinner.View()
	case m.lastErr != "":
		bar.SetError(m.lastErr)
	case m.reveal.Running():
		bar.SetStatus(components.StatusRevealing)
	case m.notice != "":
		bar.SetNotice(m.notice)
	default:
		bar.SetStatus(components.StatusReady)
	}
	return bar.View()
}

func (m Model) renderSidebar() string {
	m.sidebar.SetSize(sidebarWidth, m.viewport.Height)
	m.sidebar.SetSessions(m.sessions, m.conv.SessionID, m.store.Ceiling())
	return m.sidebar.View()
}
