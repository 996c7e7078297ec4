// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"

	"github.com/rs/zerolog"
)

// Listener receives the new call count for a session.
type Listener func(sessionID string, count int)

type subscription struct {
	id uint64
	fn Listener
}

// Notifier delivers count changes to subscribers synchronously, in
// registration order. A panicking subscriber is logged and skipped.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
	logger zerolog.Logger
}

// NewNotifier creates an empty notifier.
func NewNotifier(logger zerolog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (n *Notifier) Subscribe(fn Listener) (unsubscribe func()) {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscription{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish invokes every current subscriber once before returning.
// Subscribers run outside the lock so they may subscribe or unsubscribe.
func (n *Notifier) Publish(sessionID string, count int) {
	n.mu.Lock()
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		n.deliver(s, sessionID, count)
	}
}

func (n *Notifier) deliver(s subscription, sessionID string, count int) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error().
				Interface("panic", r).
				Uint64("subscriber", s.id).
				Str("session_id", sessionID).
				Msg("quota subscriber panicked")
		}
	}()
	s.fn(sessionID, count)
}

// Len returns the number of subscribers.
func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
