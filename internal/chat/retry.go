// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// RetryPolicy controls SendWithRetry.
type RetryPolicy struct {
	// MaxAttempts is the total number of sends, including the first.
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy returns two attempts with a 1.5s first delay capped at 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  2,
		InitialDelay: 1500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}

// Backoff returns the delay before retry n (1-based): InitialDelay*2^(n-1),
// capped at MaxDelay.
func (p RetryPolicy) Backoff(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	delay := p.InitialDelay
	for i := 1; i < n && delay < p.MaxDelay; i++ {
		delay *= 2
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Retryable reports whether a failed send is worth repeating: network
// failures other than caller cancellation, and 5xx or 429 responses.
func Retryable(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Kind {
	case KindNetwork:
		return !errors.Is(err, context.Canceled)
	case KindRemote:
		return ce.Status >= 500 || ce.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

// SendWithRetry calls o.Send until it succeeds, fails with a non-retryable
// error, runs out of attempts, or ctx is done.
func SendWithRetry(ctx context.Context, o *Orchestrator, p RetryPolicy, sessionID, text string, c Context) (Result, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		res Result
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := p.Backoff(attempt - 1)
			o.logger.Debug().
				Str("session_id", sessionID).
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("retrying send")

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return Result{Context: c, SessionID: sessionID}, classify(ctx.Err())
			case <-timer.C:
			}
		}

		res, err = o.Send(ctx, sessionID, text, c)
		if err == nil || !Retryable(err) {
			return res, err
		}
	}
	return res, err
}
