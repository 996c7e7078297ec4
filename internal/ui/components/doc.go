// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the chrome of the chat view: the header, the
status bar and the session sidebar.

Components are plain structs with setters and a View method. They hold no
goroutines and never talk to the session store; the chat model copies the
values it wants shown into them before rendering.

# Key Types

  - Header: title line with the current session identity
  - StatusBar: activity, notices, call counter, quota bar and auto-scroll state
  - SessionList: the sessions known to this process with their call counts

# Usage

	bar := components.NewStatusBar(theme)
	bar.SetWidth(width)
	bar.SetQuota(calls, ceiling)
	bar.SetStatus(components.StatusThinking)
	view := bar.View()
*/
package components
