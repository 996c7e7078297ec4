// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tariel/internal/ui/styles"
)

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	noticeStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	labelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	assistantStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)
)
