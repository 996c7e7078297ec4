// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/jeranaias/tariel/internal/logging"
)

// Topics on the session bus.
const (
	TopicCreated = "tariel.session.created"
	TopicDeleted = "tariel.session.deleted"
)

// EventType distinguishes session announcements.
type EventType string

const (
	EventCreated EventType = "created"
	EventDeleted EventType = "deleted"
)

// SessionEvent is a decoded bus message.
type SessionEvent struct {
	Type      EventType
	SessionID string
}

type eventPayload struct {
	SessionID string `json:"session_id"`
}

// Events is the process-wide session bus. Only subscribers present at
// publish time receive a message.
type Events struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
}

// NewEvents creates a bus backed by an in-process go channel pub/sub.
func NewEvents(logger zerolog.Logger) *Events {
	return &Events{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			logging.Watermill(logger),
		),
		logger: logger,
	}
}

// PublishCreated announces a new current session.
func (e *Events) PublishCreated(id string) error { return e.publish(TopicCreated, id) }

// PublishDeleted announces a deleted session.
func (e *Events) PublishDeleted(id string) error { return e.publish(TopicDeleted, id) }

func (e *Events) publish(topic, id string) error {
	payload, err := json.Marshal(eventPayload{SessionID: id})
	if err != nil {
		return errors.Wrap(err, "encode session event")
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := e.pubsub.Publish(topic, msg); err != nil {
		return errors.Wrapf(err, "publish %s", topic)
	}
	e.logger.Debug().Str("topic", topic).Str("session_id", id).Msg("session event published")
	return nil
}

// Subscribe merges both topics into one channel, closed when ctx is done or
// the bus is closed.
func (e *Events) Subscribe(ctx context.Context) (<-chan SessionEvent, error) {
	created, err := e.pubsub.Subscribe(ctx, TopicCreated)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe to created")
	}
	deleted, err := e.pubsub.Subscribe(ctx, TopicDeleted)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe to deleted")
	}

	out := make(chan SessionEvent, 16)
	go func() {
		defer close(out)
		for created != nil || deleted != nil {
			var (
				msg *message.Message
				ok  bool
				typ EventType
			)
			select {
			case msg, ok = <-created:
				if !ok {
					created = nil
					continue
				}
				typ = EventCreated
			case msg, ok = <-deleted:
				if !ok {
					deleted = nil
					continue
				}
				typ = EventDeleted
			}

			msg.Ack()
			var p eventPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				e.logger.Warn().Err(err).Str("uuid", msg.UUID).Msg("dropping malformed session event")
				continue
			}

			select {
			case out <- SessionEvent{Type: typ, SessionID: p.SessionID}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close shuts the bus down and closes all subscriptions.
func (e *Events) Close() error {
	return e.pubsub.Close()
}
