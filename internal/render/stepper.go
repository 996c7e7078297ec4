// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

// DefaultSpeed is the number of characters revealed per tick.
const DefaultSpeed = 60

// Stepper yields successive prefixes of a text, speed characters at a time.
// Characters are runes, so a multi-byte character is never split.
//
// Stepper is not safe for concurrent use.
type Stepper struct {
	text  string
	runes []rune
	speed int
	n     int
	done  bool
}

// NewStepper creates a stepper over text. A non-positive speed is treated
// as 1.
func NewStepper(text string, speed int) *Stepper {
	if speed <= 0 {
		speed = 1
	}
	return &Stepper{
		text:  text,
		runes: []rune(text),
		speed: speed,
	}
}

// Next advances the prefix and returns it. done is true from the step that
// reveals the final character onward; further calls return the whole text.
// An empty text is done on the first call.
func (s *Stepper) Next() (visible string, done bool) {
	if s.done {
		return s.text, true
	}
	s.n += s.speed
	if s.n >= len(s.runes) {
		s.n = len(s.runes)
		s.done = true
		return s.text, true
	}
	return string(s.runes[:s.n]), false
}

// Visible returns the current prefix without advancing.
func (s *Stepper) Visible() string {
	if s.done {
		return s.text
	}
	return string(s.runes[:s.n])
}

// Done reports whether the whole text has been revealed.
func (s *Stepper) Done() bool { return s.done }

// Len returns the text length in runes.
func (s *Stepper) Len() int { return len(s.runes) }

// Pos returns the number of runes currently visible.
func (s *Stepper) Pos() int { return s.n }

// Text returns the full text.
func (s *Stepper) Text() string { return s.text }

// Reset rewinds to an empty prefix.
func (s *Stepper) Reset() {
	s.n = 0
	s.done = false
}
