// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultTick is the reveal cadence.
const DefaultTick = 16 * time.Millisecond

// Presenter reveals text on its own goroutine, one frame per tick.
//
// At most one reveal runs at a time. Presenting a different text cancels the
// running reveal and waits for its goroutine to exit before starting, so
// frames of two texts never interleave. Callbacks run on the reveal goroutine
// and must not call back into the Presenter.
type Presenter struct {
	mu     sync.Mutex
	tick   time.Duration
	text   string
	active bool
	cancel context.CancelFunc
	done   chan struct{}
	logger zerolog.Logger
}

// PresenterOption configures a Presenter.
type PresenterOption func(*Presenter)

// WithPresenterLogger sets the logger.
func WithPresenterLogger(logger zerolog.Logger) PresenterOption {
	return func(p *Presenter) { p.logger = logger }
}

// NewPresenter creates a presenter ticking every tick (DefaultTick if zero).
func NewPresenter(tick time.Duration, opts ...PresenterOption) *Presenter {
	if tick <= 0 {
		tick = DefaultTick
	}
	p := &Presenter{
		tick:   tick,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Present starts revealing text at speed characters per tick. onFrame
// receives every visible prefix; onComplete runs once when the whole text
// is visible. Either callback may be nil.
//
// Presenting the text already being (or last) presented is a no-op.
// Cancelling ctx stops the reveal without calling onComplete.
func (p *Presenter) Present(ctx context.Context, text string, speed int, onFrame func(visible string), onComplete func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active && p.text == text {
		return
	}
	p.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.text = text
	p.active = true
	p.cancel = cancel
	p.done = done

	st := NewStepper(text, speed)
	limiter := rate.NewLimiter(rate.Every(p.tick), 1)

	p.logger.Debug().Int("runes", st.Len()).Int("speed", speed).Msg("reveal started")

	go func() {
		defer close(done)
		defer cancel()
		for {
			if err := limiter.Wait(runCtx); err != nil {
				p.logger.Debug().Int("pos", st.Pos()).Msg("reveal cancelled")
				return
			}
			visible, finished := st.Next()
			if onFrame != nil {
				onFrame(visible)
			}
			if finished {
				if onComplete != nil {
					onComplete()
				}
				return
			}
		}
	}()
}

// Wait blocks until the current reveal finishes or is cancelled.
func (p *Presenter) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Stop cancels the current reveal and waits for it to exit. The next
// Present starts afresh even for the same text.
func (p *Presenter) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.active = false
	p.text = ""
}

func (p *Presenter) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		<-p.done
		p.cancel = nil
	}
}

// Text returns the text of the current or last reveal.
func (p *Presenter) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text
}
