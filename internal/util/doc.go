// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the tariel packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file writing with fsync and rename
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - SingleLine: collapses a multi-line string for one-line displays
//
// # Usage
//
//	// Persist the session medium without ever leaving a half-written file
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Show a short preview of a message
//	preview := util.SingleLine(util.TruncateRunes(msg, 60))
package util
