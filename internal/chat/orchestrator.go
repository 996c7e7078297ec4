// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"
)

// QuotaGate is the part of the session store the orchestrator needs.
type QuotaGate interface {
	RemainingCalls(sessionID string) int
	Increment(sessionID string) (int, error)
}

// Result is the outcome of Send.
type Result struct {
	// Sent is false when Send was a no-op.
	Sent bool

	// Response is the assistant's reply text.
	Response string

	// Context is the updated context on success, the caller's context otherwise.
	Context Context

	// SessionID is the session the exchange was made in.
	SessionID string
}

// Orchestrator turns a user turn into one remote exchange. It never retries
// and holds no locks; callers send one turn at a time per session.
type Orchestrator struct {
	transport Transport
	quota     QuotaGate
	useTools  bool
	logger    zerolog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithUseTools sets the use_tools flag sent with every request.
func WithUseTools(enabled bool) Option {
	return func(o *Orchestrator) { o.useTools = enabled }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// NewOrchestrator creates an orchestrator. use_tools defaults to true.
func NewOrchestrator(t Transport, q QuotaGate, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport: t,
		quota:     q,
		useTools:  true,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Send performs one exchange in sessionID.
//
// Blank text or an empty session is a no-op (Sent false, nil error). A session
// with no calls left fails with KindQuotaExceeded before the transport is
// touched. On any failure the returned Context is c, unchanged.
func (o *Orchestrator) Send(ctx context.Context, sessionID, userText string, c Context) (Result, error) {
	text := norm.NFC.String(strings.TrimSpace(userText))
	if text == "" || sessionID == "" {
		return Result{Context: c, SessionID: sessionID}, nil
	}

	logger := o.logger.With().Str("session_id", sessionID).Logger()

	if o.quota.RemainingCalls(sessionID) <= 0 {
		logger.Info().Msg("send refused, session quota exhausted")
		return Result{Context: c, SessionID: sessionID}, &Error{
			Kind:    KindQuotaExceeded,
			Message: "session call quota exhausted",
		}
	}

	userMsg := NewMessage(RoleUser, text)
	pending := c.WithMessages(userMsg)

	req := Request{
		Messages: make([]WireMessage, 0, len(pending.Messages)),
		UseTools: o.useTools,
	}
	for _, m := range pending.Messages {
		req.Messages = append(req.Messages, WireMessage{Role: m.Role, Content: m.Content})
	}

	start := time.Now()
	resp, err := o.transport.Do(ctx, req)
	if err != nil {
		ce := classify(err)
		logger.Warn().
			Err(ce).
			Str("kind", ce.Kind.String()).
			Int("status", ce.Status).
			Dur("duration", time.Since(start)).
			Msg("send failed")
		return Result{Context: c, SessionID: sessionID}, ce
	}

	next := pending.WithMessages(NewMessage(RoleAssistant, resp.Response))
	next.LastUserMessage = text

	if _, err := o.quota.Increment(sessionID); err != nil {
		// The exchange already happened; the reply is still delivered.
		logger.Warn().Err(err).Msg("could not record call")
	}

	logger.Debug().
		Dur("duration", time.Since(start)).
		Int("messages", len(next.Messages)).
		Msg("send complete")

	return Result{
		Sent:      true,
		Response:  resp.Response,
		Context:   next,
		SessionID: sessionID,
	}, nil
}
