// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tariel/internal/ui/styles"
)

// quotaBarWidth is the width of the quota bar on wide terminals.
const quotaBarWidth = 10

// narrowWidth is the width below which the bar drops the quota bar and
// auto-scroll state.
const narrowWidth = 60

// =============================================================================
// STATUS
// =============================================================================

// Status is what the chat view is doing.
type Status int

const (
	StatusReady Status = iota
	StatusThinking
	StatusRevealing
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusThinking:
		return "Thinking..."
	case StatusRevealing:
		return "Replying..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the line between the transcript and the input.
type StatusBar struct {
	Status     Status
	Message    string // error text or notice, shown when not thinking
	Spinner    string // current spinner frame, shown while thinking
	Calls      int
	Ceiling    int
	AutoScroll bool
	Width      int

	theme *styles.Theme
}

// NewStatusBar creates a ready status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Status: StatusReady, AutoScroll: true, theme: theme}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus sets the activity and clears any message.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
	s.Message = ""
}

// SetError shows msg as an error.
func (s *StatusBar) SetError(msg string) {
	s.Status = StatusError
	s.Message = msg
}

// SetNotice shows msg as an informational notice.
func (s *StatusBar) SetNotice(msg string) {
	s.Status = StatusReady
	s.Message = msg
}

// SetQuota updates the call counter.
func (s *StatusBar) SetQuota(calls, ceiling int) {
	s.Calls = calls
	s.Ceiling = ceiling
}

// Remaining returns the calls left, never negative.
func (s *StatusBar) Remaining() int {
	return max(s.Ceiling-s.Calls, 0)
}

// View renders the status bar.
func (s *StatusBar) View() string {
	left := s.renderActivity()
	right := s.renderQuota()
	if s.Width >= narrowWidth {
		right += "  " + s.renderAutoScroll()
	}

	gap := max(s.Width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderActivity() string {
	switch s.Status {
	case StatusThinking:
		return s.Spinner + " " + s.Status.String()
	case StatusRevealing:
		return s.theme.Muted.Render(s.Status.String())
	case StatusError:
		return s.theme.Error.Render(s.Message)
	}
	if s.Message != "" {
		return s.theme.Notice.Render(s.Message)
	}
	return ""
}

func (s *StatusBar) renderQuota() string {
	counter := s.theme.Quota(s.Remaining(), s.Ceiling).Render(fmt.Sprintf("%d/%d", s.Calls, s.Ceiling))
	out := s.theme.StatusKey.Render("calls ") + counter
	if s.Width >= narrowWidth {
		out += " " + s.theme.Muted.Render(styles.RenderQuotaBar(quotaBarWidth, s.Calls, s.Ceiling))
	}
	return out
}

func (s *StatusBar) renderAutoScroll() string {
	state := "off"
	if s.AutoScroll {
		state = "on"
	}
	return s.theme.StatusKey.Render("auto-scroll ") + s.theme.StatusValue.Render(state)
}
