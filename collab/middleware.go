// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package collab

import (
	"context"
	"errors"
	"time"

	"github.com/gogpu/adstudio"
)

// Handler performs one service call: payload in, response body out.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// Chain applies mws so that the first one is the outermost.
func Chain(h Handler, mws ...Middleware) Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// WithTimeout bounds each call. A zero duration disables the timeout.
func WithTimeout(d time.Duration) Middleware {
	return func(next Handler) Handler {
		if d <= 0 {
			return next
		}
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, payload)
		}
	}
}

// WithRetry retries failed calls with exponential backoff starting at
// base. Client errors (4xx other than 429) are returned immediately, and
// so is any error once ctx is done.
func WithRetry(maxRetries int, base time.Duration, service string) Middleware {
	return func(next Handler) Handler {
		if maxRetries <= 0 {
			return next
		}
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			var lastErr error
			for attempt := 0; attempt <= maxRetries; attempt++ {
				resp, err := next(ctx, payload)
				if err == nil {
					return resp, nil
				}
				lastErr = err

				if ctx.Err() != nil || !retryable(err) {
					return nil, err
				}
				if attempt == maxRetries {
					break
				}

				wait := base * (1 << uint(attempt))
				adstudio.Logger().WarnContext(ctx, "collab: retrying call",
					"service", service,
					"attempt", attempt+1,
					"max_retries", maxRetries,
					"backoff_ms", wait.Milliseconds(),
					"err", err)

				t := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					t.Stop()
					return nil, lastErr
				case <-t.C:
				}
			}
			return nil, lastErr
		}
	}
}

func retryable(err error) bool {
	if errors.Is(err, ErrMalformed) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}
