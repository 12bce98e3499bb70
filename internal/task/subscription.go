package task

import (
	"context"
	"fmt"
	"sync"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/samber/lo"
)

// Collector is the endpoint's property-change feed.
//
// *client.PropertyCollectorService implements it.
type Collector interface {
	CreateFilter(ctx context.Context, spec v1.FilterSpec) (v1.ManagedObjectReference, error)
	WaitForUpdates(ctx context.Context, version string) (*v1.UpdateSet, error)
	DestroyFilter(ctx context.Context, filter v1.ManagedObjectReference) error
}

// Subscription is a server-side filter scoped to a fixed set of tasks.
type Subscription struct {
	collector Collector
	filter    v1.ManagedObjectReference

	closeOnce sync.Once
	closeErr  error
}

func OpenSubscription(
	ctx context.Context,
	collector Collector,
	tasks []v1.ManagedObjectReference,
) (*Subscription, error) {
	spec := v1.FilterSpec{
		ObjectSet: lo.Map(tasks, func(task v1.ManagedObjectReference, _ int) v1.ObjectSpec {
			return v1.ObjectSpec{Obj: task}
		}),
		// Request all properties so that both the aggregate "info"
		// and individual "info.*" changes are observable
		PropSet: []v1.PropertySpec{
			{
				Type: v1.ManagedObjectTypeTask,
				All:  true,
			},
		},
	}

	filter, err := collector.CreateFilter(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSubscription, err)
	}

	return &Subscription{
		collector: collector,
		filter:    filter,
	}, nil
}

func (subscription *Subscription) Filter() v1.ManagedObjectReference {
	return subscription.filter
}

// Poll blocks until the collector has changes newer than version.
//
// An empty version requests the full current state.
func (subscription *Subscription) Poll(ctx context.Context, version string) (*v1.UpdateSet, error) {
	return subscription.collector.WaitForUpdates(ctx, version)
}

// Close destroys the server-side filter. Only the first call reaches
// the collector, the following calls return the first call's result.
func (subscription *Subscription) Close(ctx context.Context) error {
	subscription.closeOnce.Do(func() {
		// The filter should be released even if the caller gave up
		subscription.closeErr = subscription.collector.DestroyFilter(context.WithoutCancel(ctx),
			subscription.filter)
	})

	return subscription.closeErr
}
