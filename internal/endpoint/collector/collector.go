package collector

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/cirruslabs/vmpower/internal/endpoint/notifier"
	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	ErrInvalidSpec     = errors.New("invalid filter spec")
	ErrUnknownFilter   = errors.New("unknown property filter")
	ErrVersionMismatch = errors.New("stale or unknown update version")
)

// Collector is a session's property collector.
//
// It tracks which task states were already reported to the session
// and only reports the differences on subsequent WaitForUpdates() calls.
type Collector struct {
	store    storepkg.Store
	notifier *notifier.Notifier
	logger   *zap.SugaredLogger

	mtx          sync.Mutex
	filters      map[string]*filter
	version      uint64
	filterNumber uint64
}

type filter struct {
	number    uint64
	ref       v1.ManagedObjectReference
	spec      v1.FilterSpec
	selection selection

	// reported holds the task state last reported to the session,
	// a task that is absent is yet to "enter"
	reported map[v1.ManagedObjectReference]*v1.TaskInfo
}

func New(store storepkg.Store, notifier *notifier.Notifier, logger *zap.SugaredLogger) *Collector {
	return &Collector{
		store:    store,
		notifier: notifier,
		logger:   logger,
		filters:  map[string]*filter{},
	}
}

func (collector *Collector) CreateFilter(spec v1.FilterSpec) (*v1.PropertyFilter, error) {
	if len(spec.ObjectSet) == 0 {
		return nil, fmt.Errorf("%w: at least one object is required", ErrInvalidSpec)
	}

	for _, objectSpec := range spec.ObjectSet {
		if objectSpec.Obj.Type != v1.ManagedObjectTypeTask {
			return nil, fmt.Errorf("%w: only %s objects can be watched, got %s",
				ErrInvalidSpec, v1.ManagedObjectTypeTask, objectSpec.Obj)
		}
	}

	for _, propertySpec := range spec.PropSet {
		for _, path := range propertySpec.PathSet {
			if !isKnownPath(path) {
				return nil, fmt.Errorf("%w: unknown property path %q", ErrInvalidSpec, path)
			}
		}
	}

	// Ensure that all of the objects exist
	if err := collector.store.View(func(txn storepkg.Transaction) error {
		for _, objectSpec := range spec.ObjectSet {
			if _, err := txn.GetTask(objectSpec.Obj.Value); err != nil {
				return fmt.Errorf("%w: task %s", err, objectSpec.Obj.Value)
			}
		}

		return nil
	}); err != nil {
		return nil, err
	}

	collector.mtx.Lock()
	defer collector.mtx.Unlock()

	collector.filterNumber++

	newFilter := &filter{
		ref: v1.ManagedObjectReference{
			Type:  v1.ManagedObjectTypePropertyFilter,
			Value: fmt.Sprintf("filter-%d", collector.filterNumber),
		},
		spec:      spec,
		selection: newSelection(spec.PropSet),
		reported:  map[v1.ManagedObjectReference]*v1.TaskInfo{},
		number:    collector.filterNumber,
	}

	collector.filters[newFilter.ref.Value] = newFilter

	collector.logger.Debugf("created property filter %s for %d object(s)",
		newFilter.ref.Value, len(spec.ObjectSet))

	return &v1.PropertyFilter{
		Ref:  newFilter.ref,
		Spec: spec,
	}, nil
}

func (collector *Collector) DestroyFilter(id string) error {
	collector.mtx.Lock()
	defer collector.mtx.Unlock()

	if _, ok := collector.filters[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFilter, id)
	}

	delete(collector.filters, id)

	collector.logger.Debugf("destroyed property filter %s", id)

	return nil
}

func (collector *Collector) Filters() int {
	collector.mtx.Lock()
	defer collector.mtx.Unlock()

	return len(collector.filters)
}

// WaitForUpdates blocks until there are changes relative to the version
// and returns them along with a new version.
//
// An empty version resets the reported state, so that all objects
// that currently exist are reported as entering.
//
// When maxWait is positive and no changes happen within it,
// an empty UpdateSet with the same version is returned.
func (collector *Collector) WaitForUpdates(
	ctx context.Context,
	version string,
	maxWait time.Duration,
) (*v1.UpdateSet, error) {
	expectedVersion, err := collector.begin(version)
	if err != nil {
		return nil, err
	}

	var maxWaitCh <-chan time.Time

	if maxWait > 0 {
		timer := time.NewTimer(maxWait)
		defer timer.Stop()

		maxWaitCh = timer.C
	}

	for {
		// Register before collecting the changes, otherwise
		// we may miss a notification that happens in-between
		notifyCh, unregister := collector.notifier.Register()

		updateSet, err := collector.collect(expectedVersion)
		if err != nil || updateSet != nil {
			unregister()

			return updateSet, err
		}

		select {
		case <-notifyCh:
			unregister()
		case <-maxWaitCh:
			unregister()

			return &v1.UpdateSet{
				Version: strconv.FormatUint(expectedVersion, 10),
			}, nil
		case <-ctx.Done():
			unregister()

			return nil, ctx.Err()
		}
	}
}

func (collector *Collector) begin(version string) (uint64, error) {
	collector.mtx.Lock()
	defer collector.mtx.Unlock()

	if version == "" {
		for _, filter := range collector.filters {
			clear(filter.reported)
		}

		return collector.version, nil
	}

	if version != strconv.FormatUint(collector.version, 10) {
		return 0, fmt.Errorf("%w: expected %d, got %q", ErrVersionMismatch, collector.version, version)
	}

	return collector.version, nil
}

// collect returns nil when there are no changes to report.
func (collector *Collector) collect(expectedVersion uint64) (*v1.UpdateSet, error) {
	collector.mtx.Lock()
	defer collector.mtx.Unlock()

	// Someone else has consumed the changes in the meantime
	if collector.version != expectedVersion {
		return nil, fmt.Errorf("%w: version has advanced to %d while waiting",
			ErrVersionMismatch, collector.version)
	}

	current := map[v1.ManagedObjectReference]*v1.TaskInfo{}

	if err := collector.store.View(func(txn storepkg.Transaction) error {
		for _, filter := range collector.filters {
			for _, objectSpec := range filter.spec.ObjectSet {
				if _, ok := current[objectSpec.Obj]; ok {
					continue
				}

				task, err := txn.GetTask(objectSpec.Obj.Value)
				if errors.Is(err, storepkg.ErrNotFound) {
					current[objectSpec.Obj] = nil

					continue
				}
				if err != nil {
					return err
				}

				current[objectSpec.Obj] = &task.Info
			}
		}

		return nil
	}); err != nil {
		return nil, err
	}

	var filterUpdates []v1.PropertyFilterUpdate

	// Reported state is only updated once all of the
	// changes were successfully computed
	var pending []pendingReport

	for _, filter := range sortedFilters(collector.filters) {
		var objectUpdates []v1.ObjectUpdate

		for _, objectSpec := range filter.spec.ObjectSet {
			objectUpdate, err := filter.diff(objectSpec.Obj, current[objectSpec.Obj])
			if err != nil {
				return nil, err
			}

			if objectUpdate == nil {
				continue
			}

			objectUpdates = append(objectUpdates, *objectUpdate)
			pending = append(pending, pendingReport{
				filter: filter,
				obj:    objectSpec.Obj,
				info:   current[objectSpec.Obj],
			})
		}

		if len(objectUpdates) == 0 {
			continue
		}

		filterUpdates = append(filterUpdates, v1.PropertyFilterUpdate{
			Filter:    filter.ref,
			ObjectSet: objectUpdates,
		})
	}

	if len(filterUpdates) == 0 {
		return nil, nil
	}

	for _, report := range pending {
		if report.info == nil {
			delete(report.filter.reported, report.obj)
		} else {
			report.filter.reported[report.obj] = report.info
		}
	}

	collector.version++

	return &v1.UpdateSet{
		Version:   strconv.FormatUint(collector.version, 10),
		FilterSet: filterUpdates,
	}, nil
}

type pendingReport struct {
	filter *filter
	obj    v1.ManagedObjectReference
	info   *v1.TaskInfo
}

// diff returns nil when there's nothing to report for the object,
// current is nil when the object no longer exists.
func (filter *filter) diff(obj v1.ManagedObjectReference, current *v1.TaskInfo) (*v1.ObjectUpdate, error) {
	previous, reported := filter.reported[obj]

	switch {
	case current == nil && !reported:
		return nil, nil
	case current == nil:
		return &v1.ObjectUpdate{
			Kind: v1.ObjectUpdateKindLeave,
			Obj:  obj,
		}, nil
	case !reported:
		changes, err := enterChanges(current, filter.selection)
		if err != nil {
			return nil, err
		}

		return &v1.ObjectUpdate{
			Kind:      v1.ObjectUpdateKindEnter,
			Obj:       obj,
			ChangeSet: changes,
		}, nil
	default:
		changes, err := modifyChanges(previous, current, filter.selection)
		if err != nil {
			return nil, err
		}

		if len(changes) == 0 {
			return nil, nil
		}

		return &v1.ObjectUpdate{
			Kind:      v1.ObjectUpdateKindModify,
			Obj:       obj,
			ChangeSet: changes,
		}, nil
	}
}

func sortedFilters(filters map[string]*filter) []*filter {
	result := lo.Values(filters)

	slices.SortFunc(result, func(a, b *filter) int {
		return cmp.Compare(a.number, b.number)
	})

	return result
}
