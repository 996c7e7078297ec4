// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides on-device persistence for tariel.
//
// # Key Types
//
//   - KV: Durable key-value medium holding the session identity
//   - FileKV: JSON file backend with atomic writes and change watching
//   - SQLiteKV: SQLite backend (pure Go driver)
//   - MemoryKV: Process-local backend for tests and ephemeral runs
//   - TranscriptStore: Archive of completed exchanges, one file per session
//
// # Usage
//
//	kv, err := storage.Open(storage.BackendFile, path)
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
//
//	id, err := kv.Get("tariel_session_id")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // first run
//	}
package storage
