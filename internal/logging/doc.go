// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide zerolog logger.
//
// The TUI owns the terminal, so in that mode logs go to a file under the
// config directory. Plain CLI commands log to stderr through a console writer.
// Watermill adapts the same logger for the session event bus.
package logging
