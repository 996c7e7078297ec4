// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drive feeds ticks until the model stops asking for more and returns the
// completion messages seen.
func drive(t *testing.T, m *Model) []CompleteMsg {
	t.Helper()
	var completes []CompleteMsg
	prev := 0
	for i := 0; i < 10000 && m.Running(); i++ {
		cmd := m.Update(TickMsg{Gen: m.Generation()})
		assert.GreaterOrEqual(t, len(m.Visible()), prev)
		prev = len(m.Visible())
		if cmd == nil {
			continue
		}
		if c, ok := cmd().(CompleteMsg); ok {
			completes = append(completes, c)
		}
	}
	return completes
}

func TestModelRevealsToCompletion(t *testing.T) {
	m := NewModel(7, time.Millisecond)
	text := "Stablecoin yields vary by protocol and by year."

	require.NotNil(t, m.Start(text))
	gen := m.Generation()
	completes := drive(t, m)

	require.Len(t, completes, 1)
	assert.Equal(t, gen, completes[0].Gen)
	assert.Equal(t, text, completes[0].Text)
	assert.Equal(t, text, m.Visible())
	assert.True(t, m.Done())

	// Further ticks for the finished generation do nothing.
	assert.Nil(t, m.Update(TickMsg{Gen: gen}))
}

func TestModelDropsStaleTicks(t *testing.T) {
	m := NewModel(2, time.Millisecond)
	m.Start("first reply")
	staleGen := m.Generation()
	m.Update(TickMsg{Gen: staleGen})

	m.Start("second")
	assert.Equal(t, "", m.Visible())
	assert.Nil(t, m.Update(TickMsg{Gen: staleGen}))
	assert.Equal(t, "", m.Visible())

	completes := drive(t, m)
	require.Len(t, completes, 1)
	assert.Equal(t, "second", completes[0].Text)
	assert.False(t, strings.Contains(m.Visible(), "first"))
}

func TestModelStartSameTextIsNoop(t *testing.T) {
	m := NewModel(100, time.Millisecond)
	m.Start("hello")
	drive(t, m)
	gen := m.Generation()

	assert.Nil(t, m.Start("hello"))
	assert.Equal(t, gen, m.Generation())
	assert.Equal(t, "hello", m.Visible())
}

func TestModelStop(t *testing.T) {
	m := NewModel(1, time.Millisecond)
	m.Start("abc")
	gen := m.Generation()
	m.Stop()

	assert.False(t, m.Running())
	assert.Equal(t, "", m.Text())
	assert.Nil(t, m.Update(TickMsg{Gen: gen}))
	assert.Nil(t, m.Update("unrelated"))
}

func TestModelEmptyText(t *testing.T) {
	m := NewModel(5, time.Millisecond)
	m.Start("")
	completes := drive(t, m)
	require.Len(t, completes, 1)
	assert.Equal(t, "", completes[0].Text)
}
