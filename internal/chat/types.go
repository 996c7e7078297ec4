// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies who authored a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation. Never modified once appended.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a message with a fresh ID and the current time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// SystemConfig describes the assistant. It is not sent to the endpoint.
type SystemConfig struct {
	Identity     string
	Capabilities []string
	Constraints  []string
}

// Context is the state of one conversation.
type Context struct {
	Messages        []Message
	System          SystemConfig
	LastUserMessage string
}

// NewContext returns an empty context for sys.
func NewContext(sys SystemConfig) Context {
	return Context{System: sys}
}

// Clone returns a copy whose message list shares nothing with c.
func (c Context) Clone() Context {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// WithMessages returns a copy of c with msgs appended.
func (c Context) WithMessages(msgs ...Message) Context {
	out := c
	out.Messages = make([]Message, 0, len(c.Messages)+len(msgs))
	out.Messages = append(out.Messages, c.Messages...)
	out.Messages = append(out.Messages, msgs...)
	return out
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// WireMessage is a message as the endpoint sees it.
type WireMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is the body posted to the endpoint.
type Request struct {
	Messages []WireMessage `json:"messages"`
	UseTools bool          `json:"use_tools"`
}

// Response is the endpoint's reply.
type Response struct {
	Response string `json:"response"`
}
