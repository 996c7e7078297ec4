// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/jeranaias/tariel/internal/ui/styles"
	"github.com/jeranaias/tariel/internal/util"
)

// ShortIDLength is how much of a session identity the chrome shows.
const ShortIDLength = 14

// Gradient endpoints for the title.
const (
	titleStart = "#22D3EE"
	titleEnd   = "#A78BFA"
)

// =============================================================================
// HEADER
// =============================================================================

// Header is the single-line bar at the top of the chat view.
type Header struct {
	Title     string
	SessionID string
	Width     int

	theme *styles.Theme
}

// NewHeader creates a header titled "tariel".
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: "tariel", theme: theme}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetSession updates the session shown.
func (h *Header) SetSession(id string) {
	h.SessionID = id
}

// View renders the header.
func (h *Header) View() string {
	id := h.SessionID
	if id == "" {
		id = "no session"
	}
	line := GradientTitle(h.Title, titleStart, titleEnd) +
		h.theme.Muted.Render("  session ") +
		util.TruncateRunes(id, ShortIDLength)
	return h.theme.Header.Width(h.Width).Render(line)
}

// GradientTitle colors text rune by rune from start to end. Invalid hex
// colors leave the text plain.
func GradientTitle(text, start, end string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}
	from, err1 := colorful.Hex(start)
	to, err2 := colorful.Hex(end)
	if err1 != nil || err2 != nil {
		return text
	}
	if len(runes) < 3 {
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(start)).Render(text)
	}

	var b strings.Builder
	last := float64(len(runes) - 1)
	for i, r := range runes {
		c := from.BlendLuv(to, float64(i)/last).Clamped()
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(c.Hex())).Render(string(r)))
	}
	return b.String()
}
