// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the tariel command tree.
//
// Commands:
//
//	tariel                      chat view (TUI) when attached to a terminal
//	tariel chat                 line-oriented chat with /new, /delete, /status, /quit
//	tariel ask <question>       one exchange in the current session
//	tariel session show|new|delete
//	tariel history list|export <session-id> [--format md|json|yaml]
//
// Global flags: --config, --endpoint, --verbose.
//
// Every command loads configuration first; commands that talk to the
// assistant build an App, which wires the session medium, session store,
// event bus, HTTP transport, orchestrator and transcript archive.
package cli
