package task

import (
	"time"

	"go.uber.org/zap"
)

type Option func(*Waiter)

// WithPollTimeout bounds each individual long poll, a poll
// that exceeds it fails the wait with ErrTimeout.
func WithPollTimeout(pollTimeout time.Duration) Option {
	return func(waiter *Waiter) {
		waiter.pollTimeout = pollTimeout
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(waiter *Waiter) {
		waiter.logger = logger.Sugar()
	}
}
