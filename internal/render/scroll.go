// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
)

const (
	scrollFPS       = 60
	scrollFrequency = 6.0
	scrollDamping   = 1.0

	// settleEpsilon is how close (in lines and lines per frame) counts as settled.
	settleEpsilon = 0.5
)

// ScrollFrameMsg advances a settle animation.
type ScrollFrameMsg struct {
	Gen uint64
}

// ScrollSettler animates a scroll offset toward a target with a critically
// damped spring. Each Settle is a one-shot animation: frames stop once the
// offset reaches the target.
type ScrollSettler struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
	target float64
	gen    uint64
	active bool
}

// NewScrollSettler creates an idle settler.
func NewScrollSettler() *ScrollSettler {
	return &ScrollSettler{
		spring: harmonica.NewSpring(harmonica.FPS(scrollFPS), scrollFrequency, scrollDamping),
	}
}

// Settle starts animating from the current offset to target and returns
// the first frame. It returns nil when already there.
func (s *ScrollSettler) Settle(from, target int) tea.Cmd {
	s.gen++
	s.pos = float64(from)
	s.vel = 0
	s.target = float64(target)
	s.active = from != target
	if !s.active {
		return nil
	}
	return s.frameCmd()
}

// Cancel stops the animation where it is.
func (s *ScrollSettler) Cancel() {
	s.gen++
	s.active = false
}

// Update advances one frame. ok is false for stale or foreign messages, in
// which case offset is meaningless.
func (s *ScrollSettler) Update(msg tea.Msg) (offset int, cmd tea.Cmd, ok bool) {
	frame, isFrame := msg.(ScrollFrameMsg)
	if !isFrame || frame.Gen != s.gen || !s.active {
		return 0, nil, false
	}

	s.pos, s.vel = s.spring.Update(s.pos, s.vel, s.target)
	if math.Abs(s.pos-s.target) < settleEpsilon && math.Abs(s.vel) < settleEpsilon {
		s.pos = s.target
		s.vel = 0
		s.active = false
		return int(s.target), nil, true
	}
	return int(math.Round(s.pos)), s.frameCmd(), true
}

// Active reports whether an animation is running.
func (s *ScrollSettler) Active() bool { return s.active }

func (s *ScrollSettler) frameCmd() tea.Cmd {
	gen := s.gen
	return tea.Tick(time.Second/scrollFPS, func(time.Time) tea.Msg {
		return ScrollFrameMsg{Gen: gen}
	})
}

// Pad appends margin blank lines so the settled view shows a little space
// below the last line of content.
func Pad(content string, margin int) string {
	if margin <= 0 {
		return content
	}
	return content + strings.Repeat("\n", margin)
}
