// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"crypto/rand"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/tariel/internal/storage"
)

// IdentityKey is the medium key holding the current session identity.
const IdentityKey = "tariel_session_id"

// DefaultCeiling is the number of calls allowed per session.
const DefaultCeiling = 30

var (
	// ErrQuotaExceeded is returned by Increment when the session is at its ceiling.
	ErrQuotaExceeded = errors.New("session call quota exceeded")

	// ErrNoSession is returned when an operation needs an identity and got "".
	ErrNoSession = errors.New("no session")
)

// =============================================================================
// STORE
// =============================================================================

// Usage is a session's position in the quota record.
type Usage struct {
	SessionID string
	Calls     int
	Remaining int
}

// Store owns the current identity and the in-memory quota record.
type Store struct {
	kv       storage.KV
	notifier *Notifier
	events   *Events
	logger   zerolog.Logger
	newID    func() string
	ceiling  int

	mu       sync.Mutex
	current  string
	resolved bool
	calls    map[string]int
	order    []string
}

// Option configures a Store.
type Option func(*Store)

// WithCeiling sets the per-session call ceiling. Non-positive values are ignored.
func WithCeiling(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.ceiling = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithEvents announces session creation and deletion on bus.
func WithEvents(bus *Events) Option {
	return func(s *Store) { s.events = bus }
}

// WithIDGenerator replaces identity generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates a store over kv.
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		logger:  log.Logger,
		newID:   NewIdentity,
		ceiling: DefaultCeiling,
		calls:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.notifier = NewNotifier(s.logger)
	return s
}

// Notifier returns the quota change notifier.
func (s *Store) Notifier() *Notifier { return s.notifier }

// Events returns the session event bus, or nil.
func (s *Store) Events() *Events { return s.events }

// Ceiling returns the per-session call ceiling.
func (s *Store) Ceiling() int { return s.ceiling }

// =============================================================================
// IDENTITY
// =============================================================================

// GetOrCreateIdentity returns the persisted identity, creating one when none
// exists or forceNew is set. A new identity replaces the current one.
// Returns "" if the medium cannot be read or written.
func (s *Store) GetOrCreateIdentity(forceNew bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !forceNew {
		if s.resolved && s.current != "" {
			return s.current
		}
		id, err := s.kv.Get(IdentityKey)
		switch {
		case err == nil && id != "":
			s.current, s.resolved = id, true
			return id
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			s.logger.Error().Err(err).Msg("session medium unavailable")
			return ""
		}
	}

	id := s.newID()
	if err := s.kv.Set(IdentityKey, id); err != nil {
		s.logger.Error().Err(err).Msg("could not persist session identity")
		return ""
	}
	s.current, s.resolved = id, true
	s.logger.Debug().Str("session_id", id).Bool("forced", forceNew).Msg("created session identity")
	return id
}

// Current returns the current identity, resolving it on first use.
func (s *Store) Current() string {
	return s.GetOrCreateIdentity(false)
}

// NewSession rotates the identity and announces it.
func (s *Store) NewSession() string {
	id := s.GetOrCreateIdentity(true)
	if id != "" {
		s.announce(EventCreated, id)
	}
	return id
}

// DeleteSession resets the session's count, drops it from Known and announces
// the deletion. The persisted identity is left alone; callers rotate with
// NewSession when the deleted session was current.
func (s *Store) DeleteSession(id string) {
	if id == "" {
		return
	}
	s.Reset(id)

	s.mu.Lock()
	delete(s.calls, id)
	for i, known := range s.order {
		if known == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.announce(EventDeleted, id)
}

func (s *Store) announce(kind EventType, id string) {
	if s.events == nil {
		return
	}
	publish := s.events.PublishCreated
	if kind == EventDeleted {
		publish = s.events.PublishDeleted
	}
	if err := publish(id); err != nil {
		s.logger.Warn().Err(err).Str("session_id", id).Str("event", string(kind)).Msg("session event not delivered")
	}
}

// Follow adopts identities rotated by other instances on this device when the
// medium supports watching. It returns immediately; watching stops with ctx.
func (s *Store) Follow(ctx context.Context) error {
	w, ok := s.kv.(storage.Watcher)
	if !ok {
		return nil
	}
	changes, err := w.Watch(ctx, IdentityKey)
	if err != nil {
		return errors.Wrap(err, "watch session identity")
	}

	go func() {
		for id := range changes {
			s.mu.Lock()
			adopted := id != "" && id != s.current
			if adopted {
				s.current, s.resolved = id, true
			}
			s.mu.Unlock()

			if adopted {
				s.logger.Info().Str("session_id", id).Msg("adopted session rotated by another instance")
				s.announce(EventCreated, id)
			}
		}
	}()
	return nil
}

// =============================================================================
// QUOTA
// =============================================================================

// CurrentCalls returns the calls made in a session. Unknown ids have made none.
func (s *Store) CurrentCalls(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

// RemainingCalls returns ceiling minus calls made; 0 for "".
func (s *Store) RemainingCalls(id string) int {
	if id == "" {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.ceiling - s.calls[id]; r > 0 {
		return r
	}
	return 0
}

// Increment records one call and notifies subscribers with the new count.
// At the ceiling the count is unchanged, nothing is published and
// ErrQuotaExceeded is returned.
func (s *Store) Increment(id string) (int, error) {
	if id == "" {
		return 0, ErrNoSession
	}

	s.mu.Lock()
	count := s.calls[id]
	if count >= s.ceiling {
		s.mu.Unlock()
		return count, ErrQuotaExceeded
	}
	count++
	s.track(id)
	s.calls[id] = count
	s.mu.Unlock()

	s.notifier.Publish(id, count)
	return count, nil
}

// Reset sets a session's count to zero and notifies subscribers.
func (s *Store) Reset(id string) {
	if id == "" {
		return
	}
	s.mu.Lock()
	s.track(id)
	s.calls[id] = 0
	s.mu.Unlock()

	s.notifier.Publish(id, 0)
}

// Known lists sessions in the quota record in first-seen order.
func (s *Store) Known() []Usage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Usage, 0, len(s.order))
	for _, id := range s.order {
		calls := s.calls[id]
		out = append(out, Usage{SessionID: id, Calls: calls, Remaining: max(s.ceiling-calls, 0)})
	}
	return out
}

// track records first sight of id. Caller holds s.mu.
func (s *Store) track(id string) {
	if _, seen := s.calls[id]; !seen {
		s.order = append(s.order, id)
	}
}

// =============================================================================
// IDENTITY GENERATION
// =============================================================================

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewIdentity returns base36(unix millis) + "-" + 10 random base36 characters.
func NewIdentity() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 36) + "-" + randomBase36(10)
}

func randomBase36(n int) string {
	out := make([]byte, 0, n)
	buf := make([]byte, 16)
	for len(out) < n {
		rand.Read(buf)
		for _, b := range buf {
			// 252 = 7*36; rejecting above it keeps the digits uniform.
			if b >= 252 {
				continue
			}
			out = append(out, base36[b%36])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
