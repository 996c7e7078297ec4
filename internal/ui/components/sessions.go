// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/jeranaias/tariel/internal/session"
	"github.com/jeranaias/tariel/internal/ui/styles"
	"github.com/jeranaias/tariel/internal/util"
)

// SessionList is the sidebar listing the sessions this process has seen.
type SessionList struct {
	Sessions []session.Usage
	Current  string
	Ceiling  int
	Width    int
	Height   int

	theme *styles.Theme
}

// NewSessionList creates an empty sidebar.
func NewSessionList(theme *styles.Theme) *SessionList {
	return &SessionList{theme: theme}
}

// SetSize sets the outer width and the height.
func (l *SessionList) SetSize(width, height int) {
	l.Width = width
	l.Height = height
}

// SetSessions replaces the listed sessions and marks current.
func (l *SessionList) SetSessions(sessions []session.Usage, current string, ceiling int) {
	l.Sessions = sessions
	l.Current = current
	l.Ceiling = ceiling
}

// View renders the sidebar. The current session is marked with ">".
func (l *SessionList) View() string {
	lines := []string{l.theme.SidebarTitle.Render("Sessions")}
	for _, u := range l.Sessions {
		label := fmt.Sprintf("%s %d/%d", util.TruncateRunes(u.SessionID, ShortIDLength), u.Calls, l.Ceiling)
		if u.SessionID == l.Current {
			lines = append(lines, l.theme.SidebarCurrent.Render("> "+label))
		} else {
			lines = append(lines, l.theme.SidebarItem.Render("  "+label))
		}
	}
	// Border and padding take two columns.
	return l.theme.Sidebar.
		Width(max(l.Width-2, 1)).
		Height(l.Height).
		Render(strings.Join(lines, "\n"))
}
