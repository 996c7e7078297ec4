// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// Conversation binds a Context to the session it belongs to.
type Conversation struct {
	SessionID string
	Context   Context
}

// NewConversation starts an empty conversation in sessionID.
func NewConversation(sessionID string, sys SystemConfig) Conversation {
	return Conversation{SessionID: sessionID, Context: NewContext(sys)}
}

// Apply adopts res when it was sent in this conversation's session. A result
// from another session (the user switched while it was in flight) is refused
// and the conversation is returned unchanged.
func (c Conversation) Apply(res Result) (Conversation, bool) {
	if !res.Sent || res.SessionID != c.SessionID {
		return c, false
	}
	c.Context = res.Context
	return c, true
}
