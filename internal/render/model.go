// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// MESSAGES
// =============================================================================

// TickMsg advances the reveal with the matching generation.
type TickMsg struct {
	Gen  uint64
	Time time.Time
}

// CompleteMsg is emitted once when a generation's text is fully visible.
type CompleteMsg struct {
	Gen  uint64
	Text string
}

// =============================================================================
// MODEL
// =============================================================================

// Model is a bubbletea reveal component. Every Start bumps the generation,
// so ticks scheduled for an abandoned text are dropped on arrival.
type Model struct {
	speed   int
	tick    time.Duration
	gen     uint64
	stepper *Stepper
	visible string
	running bool
}

// NewModel creates an idle reveal model.
func NewModel(speed int, tick time.Duration) *Model {
	if speed <= 0 {
		speed = DefaultSpeed
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Model{speed: speed, tick: tick}
}

// Start begins revealing text and returns the first tick. Starting the text
// that is already loaded returns nil and leaves the reveal untouched.
func (m *Model) Start(text string) tea.Cmd {
	if m.stepper != nil && m.stepper.Text() == text {
		return nil
	}
	m.gen++
	m.stepper = NewStepper(text, m.speed)
	m.visible = ""
	m.running = true
	return m.tickCmd()
}

// Stop abandons the reveal. Pending ticks become stale.
func (m *Model) Stop() {
	m.gen++
	m.stepper = nil
	m.visible = ""
	m.running = false
}

// Update handles TickMsg and ignores everything else.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	tick, ok := msg.(TickMsg)
	if !ok || tick.Gen != m.gen || !m.running {
		return nil
	}

	visible, done := m.stepper.Next()
	m.visible = visible
	if !done {
		return m.tickCmd()
	}

	m.running = false
	gen, text := m.gen, m.stepper.Text()
	return func() tea.Msg {
		return CompleteMsg{Gen: gen, Text: text}
	}
}

func (m *Model) tickCmd() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return TickMsg{Gen: gen, Time: t}
	})
}

// Visible returns the revealed prefix.
func (m *Model) Visible() string { return m.visible }

// Running reports whether a reveal is in progress.
func (m *Model) Running() bool { return m.running }

// Done reports whether the loaded text is fully visible.
func (m *Model) Done() bool { return m.stepper != nil && m.stepper.Done() }

// Generation returns the current generation.
func (m *Model) Generation() uint64 { return m.gen }

// Text returns the loaded text, or "" when idle.
func (m *Model) Text() string {
	if m.stepper == nil {
		return ""
	}
	return m.stepper.Text()
}
