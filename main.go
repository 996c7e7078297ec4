// tariel - a terminal client for a quota-gated conversational assistant.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import "github.com/jeranaias/tariel/internal/cli"

func main() {
	cli.Execute()
}
