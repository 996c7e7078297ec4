// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render reveals a complete reply progressively and formats it for
// the terminal.
//
// A reply is already whole when it arrives; the reveal is simulated by a
// Stepper that yields growing prefixes at a fixed cadence. Two drivers sit on
// top of it: Presenter for plain output (a goroutine paced by a rate limiter)
// and Model for bubbletea (generation-tagged tick messages).
//
// # Key Types
//
//   - Stepper: finite, restartable prefix generator over runes
//   - Presenter: timer-driven reveal for line-oriented output
//   - Model: bubbletea reveal component emitting CompleteMsg once
//   - Formatter: splits a prefix into segments and renders prose with glamour
//     and tables with lipgloss/table
//   - ScrollSettler: one-shot spring animation of a scroll offset
//
// # Usage
//
//	m := render.NewModel(cfg.Render.Speed, cfg.Render.Tick())
//	cmd := m.Start(reply)
//	...
//	case render.TickMsg:
//	    cmd = m.Update(msg)
//	case render.CompleteMsg:
//	    // settle scroll, archive transcript
package render
