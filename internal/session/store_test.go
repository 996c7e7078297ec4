// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tariel/internal/storage"
)

// brokenKV fails every operation.
type brokenKV struct{}

func (brokenKV) Get(string) (string, error) { return "", storage.ErrUnavailable }
func (brokenKV) Set(string, string) error   { return storage.ErrUnavailable }
func (brokenKV) Delete(string) error        { return storage.ErrUnavailable }
func (brokenKV) Close() error               { return nil }

func newTestStore(opts ...Option) *Store {
	return NewStore(storage.NewMemoryKV(), append([]Option{WithLogger(zerolog.Nop())}, opts...)...)
}

// =============================================================================
// IDENTITY TESTS
// =============================================================================

func TestNewIdentity_Format(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-z]+-[0-9a-z]{10}$`)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewIdentity()
		if !re.MatchString(id) {
			t.Fatalf("identity %q does not match %s", id, re)
		}
		if seen[id] {
			t.Fatalf("duplicate identity %q", id)
		}
		seen[id] = true
	}
}

func TestStore_GetOrCreateIdentity_Persists(t *testing.T) {
	kv := storage.NewMemoryKV()
	s := NewStore(kv, WithLogger(zerolog.Nop()))

	first := s.GetOrCreateIdentity(false)
	require.NotEmpty(t, first)
	assert.Equal(t, first, s.GetOrCreateIdentity(false))

	stored, err := kv.Get(IdentityKey)
	require.NoError(t, err)
	assert.Equal(t, first, stored)

	// A fresh store over the same medium sees the same identity.
	again := NewStore(kv, WithLogger(zerolog.Nop()))
	assert.Equal(t, first, again.Current())
}

func TestStore_GetOrCreateIdentity_ForceNewRotates(t *testing.T) {
	ids := []string{"one", "two"}
	s := newTestStore(WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))

	assert.Equal(t, "one", s.GetOrCreateIdentity(false))
	assert.Equal(t, "two", s.GetOrCreateIdentity(true))
	assert.Equal(t, "two", s.Current())
}

func TestStore_MediumUnavailable(t *testing.T) {
	s := NewStore(brokenKV{}, WithLogger(zerolog.Nop()))

	assert.Equal(t, "", s.GetOrCreateIdentity(false))
	assert.Equal(t, "", s.GetOrCreateIdentity(true))
	assert.Equal(t, 0, s.RemainingCalls(""))

	_, err := s.Increment("")
	assert.True(t, errors.Is(err, ErrNoSession))
}

// =============================================================================
// QUOTA TESTS
// =============================================================================

func TestStore_QuotaMonotonicToCeiling(t *testing.T) {
	s := newTestStore()
	id := "sess"

	var published []int
	s.Notifier().Subscribe(func(got string, count int) {
		assert.Equal(t, id, got)
		published = append(published, count)
	})

	for i := 1; i <= DefaultCeiling; i++ {
		count, err := s.Increment(id)
		require.NoError(t, err)
		require.Equal(t, i, count)
		require.Equal(t, DefaultCeiling-i, s.RemainingCalls(id))
	}

	count, err := s.Increment(id)
	assert.True(t, errors.Is(err, ErrQuotaExceeded))
	assert.Equal(t, DefaultCeiling, count)
	assert.Equal(t, DefaultCeiling, s.CurrentCalls(id))
	assert.Equal(t, 0, s.RemainingCalls(id))
	assert.Len(t, published, DefaultCeiling, "a rejected increment must not publish")
}

func TestStore_SessionIsolation(t *testing.T) {
	s := newTestStore(WithCeiling(3))

	for i := 0; i < 3; i++ {
		_, err := s.Increment("a")
		require.NoError(t, err)
	}
	assert.Equal(t, 0, s.RemainingCalls("a"))
	assert.Equal(t, 3, s.RemainingCalls("b"))
	assert.Equal(t, 0, s.CurrentCalls("b"))

	count, err := s.Increment("b")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_ResetPublishesZero(t *testing.T) {
	s := newTestStore()
	s.Increment("a")
	s.Increment("a")

	var last = -1
	s.Notifier().Subscribe(func(id string, count int) { last = count })
	s.Reset("a")

	assert.Equal(t, 0, last)
	assert.Equal(t, 0, s.CurrentCalls("a"))
	assert.Equal(t, s.Ceiling(), s.RemainingCalls("a"))
}

func TestStore_KnownInFirstSeenOrder(t *testing.T) {
	s := newTestStore()
	s.Increment("b")
	s.Increment("a")
	s.Increment("b")

	known := s.Known()
	require.Len(t, known, 2)
	assert.Equal(t, Usage{SessionID: "b", Calls: 2, Remaining: 28}, known[0])
	assert.Equal(t, Usage{SessionID: "a", Calls: 1, Remaining: 29}, known[1])

	s.DeleteSession("b")
	known = s.Known()
	require.Len(t, known, 1)
	assert.Equal(t, "a", known[0].SessionID)
}

// =============================================================================
// EVENT WIRING TESTS
// =============================================================================

func TestStore_NewAndDeleteAnnounce(t *testing.T) {
	bus := NewEvents(zerolog.Nop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	s := newTestStore(WithEvents(bus))
	id := s.NewSession()
	require.NotEmpty(t, id)

	ev := waitEvent(t, events)
	assert.Equal(t, SessionEvent{Type: EventCreated, SessionID: id}, ev)

	s.Increment(id)
	s.DeleteSession(id)

	ev = waitEvent(t, events)
	assert.Equal(t, SessionEvent{Type: EventDeleted, SessionID: id}, ev)
	assert.Equal(t, 0, s.CurrentCalls(id))
}

func TestEvents_PublishReachesEverySubscriber(t *testing.T) {
	bus := NewEvents(zerolog.Nop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	first, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.PublishCreated("s-1"))
	require.NoError(t, bus.PublishDeleted("s-1"))

	for _, events := range []<-chan SessionEvent{first, second} {
		got := []SessionEvent{waitEvent(t, events), waitEvent(t, events)}
		assert.ElementsMatch(t, []SessionEvent{
			{Type: EventCreated, SessionID: "s-1"},
			{Type: EventDeleted, SessionID: "s-1"},
		}, got)
	}
}

func TestStore_FollowAdoptsRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	kv, err := storage.NewFileKV(path)
	require.NoError(t, err)

	bus := NewEvents(zerolog.Nop())
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	s := NewStore(kv, WithLogger(zerolog.Nop()), WithEvents(bus))
	original := s.Current()
	require.NotEmpty(t, original)
	require.NoError(t, s.Follow(ctx))

	other, err := storage.NewFileKV(path)
	require.NoError(t, err)
	otherStore := NewStore(other, WithLogger(zerolog.Nop()))
	rotated := otherStore.GetOrCreateIdentity(true)

	ev := waitEvent(t, events)
	assert.Equal(t, SessionEvent{Type: EventCreated, SessionID: rotated}, ev)
	assert.Equal(t, rotated, s.Current())
}

func TestStore_FollowWithoutWatcherIsNoop(t *testing.T) {
	s := newTestStore()
	assert.NoError(t, s.Follow(context.Background()))
}

func waitEvent(t *testing.T, events <-chan SessionEvent) SessionEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session event")
		return SessionEvent{}
	}
}
