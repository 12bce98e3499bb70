package wait

import (
	"context"
	"time"
)

const pollInterval = 100 * time.Millisecond

// Wait re-evaluates the predicate until it holds
// or until the duration elapses.
func Wait(duration time.Duration, predicate func() bool) bool {
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		if predicate() {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
