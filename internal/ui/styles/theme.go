// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the chat view.
type Theme struct {
	// IsDark selects the dark markdown style for replies.
	IsDark bool

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	// Transcript
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserText       lipgloss.Style
	Notice         lipgloss.Style
	Error          lipgloss.Style
	Muted          lipgloss.Style

	// Session sidebar
	Sidebar        lipgloss.Style
	SidebarTitle   lipgloss.Style
	SidebarItem    lipgloss.Style
	SidebarCurrent lipgloss.Style

	// Status bar and input
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style
	InputPrompt lipgloss.Style
	Spinner     lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	t := &Theme{
		IsDark: termenv.HasDarkBackground(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.UserText = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(2)
	t.Notice = lipgloss.NewStyle().Foreground(Amber).Italic(true)
	t.Error = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.Muted = lipgloss.NewStyle().Foreground(TextMuted)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(1)
	t.SidebarTitle = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextMuted)
	t.SidebarCurrent = lipgloss.NewStyle().Bold(true).Foreground(Purple)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().Foreground(TextMuted)
	t.StatusValue = lipgloss.NewStyle().Foreground(TextPrimary)
	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
}

// Quota styles a calls counter by how many calls remain.
func (t *Theme) Quota(remaining, ceiling int) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(QuotaColor(remaining, ceiling))
}
