// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the bubbletea chat view for tariel.

The view owns one Conversation bound to the current session. Submissions run
as tea.Cmds through the retrying orchestrator; every reply is tagged with the
session it was sent in and discarded if the user has moved on. Accepted
replies are revealed progressively by render.Model, then the viewport settles
to the bottom with a spring animation.

# Key Types

  - Model: the bubbletea model
  - Deps: collaborators injected at construction
  - KeyMap: key bindings

# Event Sources

Quota changes arrive from the session Notifier, session creation and deletion
from the session event bus. Both are bridged into tea.Msgs by commands that
re-arm after each message.

# Usage

	m := chat.New(chat.Deps{Store: store, Orchestrator: orch, ...})
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
