// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the device's session identity and per-session call quota.
//
// The identity is persisted in a storage.KV under IdentityKey and survives
// restarts. Call counts live in memory for the life of the process and are
// capped at a ceiling (30 by default).
//
// # Key Types
//
//   - Store: Identity lifecycle plus the quota record
//   - Notifier: Synchronous in-process fan-out of count changes
//   - Events: Process-wide bus for session created/deleted announcements
//
// # Usage
//
//	store := session.NewStore(kv, session.WithCeiling(30))
//	id := store.GetOrCreateIdentity(false)
//
//	unsubscribe := store.Notifier().Subscribe(func(id string, count int) {
//	    // refresh the quota display
//	})
//	defer unsubscribe()
//
//	if _, err := store.Increment(id); errors.Is(err, session.ErrQuotaExceeded) {
//	    // no calls left in this session
//	}
package session
