package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

var errEmptyUpdate = errors.New("collector returned no update set")

// Waiter blocks until a batch of tasks completes.
type Waiter struct {
	collector   Collector
	pollTimeout time.Duration
	logger      *zap.SugaredLogger

	polls int
}

func New(collector Collector, opts ...Option) *Waiter {
	waiter := &Waiter{
		collector: collector,
	}

	// Apply options
	for _, opt := range opts {
		opt(waiter)
	}

	// Apply defaults
	if waiter.logger == nil {
		waiter.logger = zap.NewNop().Sugar()
	}

	return waiter
}

// Wait is a shorthand for New(collector, opts...).Wait(ctx, tasks).
func Wait(ctx context.Context, collector Collector, tasks []v1.ManagedObjectReference, opts ...Option) error {
	return New(collector, opts...).Wait(ctx, tasks)
}

// Polls returns the number of long polls issued by the last Wait() call.
func (waiter *Waiter) Polls() int {
	return waiter.polls
}

// Wait returns nil once every task reaches the success state. It fails
// fast with a *TaskError as soon as any of the tasks reaches the error state,
// without waiting for the rest.
func (waiter *Waiter) Wait(ctx context.Context, tasks []v1.ManagedObjectReference) (err error) {
	waiter.polls = 0

	tracker := NewTracker(tasks...)

	if tracker.IsComplete() {
		return nil
	}

	subscription, err := OpenSubscription(ctx, waiter.collector, tasks)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := subscription.Close(ctx)
		if closeErr == nil {
			return
		}

		waiter.logger.Warnf("failed to destroy filter %s: %v", subscription.Filter().Value, closeErr)

		closeErr = fmt.Errorf("%w: failed to destroy filter %s: %w", ErrUnexpectedFault,
			subscription.Filter().Value, closeErr)

		if err == nil {
			err = closeErr
		} else {
			err = multierror.Append(err, closeErr)
		}
	}()

	waiter.logger.Debugf("waiting for %d task(s) using filter %s", tracker.Len(),
		subscription.Filter().Value)

	cache := infoCache{}
	var version string

	for {
		update, err := waiter.poll(ctx, subscription, version)
		if err != nil {
			return err
		}

		result := step(tracker, cache, update)

		switch result.Kind {
		case StepDone:
			waiter.logger.Debugf("all tasks succeeded after %d poll(s)", waiter.polls)

			return nil
		case StepFailed:
			return result.Err
		}

		waiter.logger.Debugf("%d task(s) still outstanding at version %q", tracker.Len(), update.Version)

		version = update.Version
	}
}

func (waiter *Waiter) poll(ctx context.Context, subscription *Subscription, version string) (*v1.UpdateSet, error) {
	pollCtx := ctx

	if waiter.pollTimeout != 0 {
		var cancel context.CancelFunc

		pollCtx, cancel = context.WithTimeout(ctx, waiter.pollTimeout)
		defer cancel()
	}

	waiter.polls++

	update, err := subscription.Poll(pollCtx, version)
	if err != nil {
		if pollCtx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, pollCtx.Err())
		}

		return nil, fmt.Errorf("%w: %w", ErrUnexpectedFault, err)
	}

	if update == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedFault, errEmptyUpdate)
	}

	return update, nil
}
