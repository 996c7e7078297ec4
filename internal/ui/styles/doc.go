// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling for the tariel chat view.

All colors are Lip Gloss AdaptiveColor values, so the same palette works on
light and dark terminals.

# Color System (colors.go)

  - Purple - assistant messages and the active session
  - Cyan - brand, user messages
  - Emerald - quota with plenty of calls left
  - Amber - quota running low, notices
  - Rose - errors and an exhausted quota

# Theme (theme.go)

Theme groups the lipgloss styles used by the chat view: header, transcript
labels, session sidebar, status bar and input prompt.

# Animations (animations.go)

ThinkingSpinner is the spinner shown while a reply is pending, and
RenderQuotaBar draws the calls-used gauge in the status bar.

# Usage

	theme := styles.NewTheme()
	header := theme.Header.Render("tariel")
	bar := styles.RenderQuotaBar(10, used, ceiling)
*/
package styles
