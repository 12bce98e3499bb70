package task_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

var (
	errCollectorBroken = errors.New("collector is broken")
	errScriptExhausted = errors.New("no more scripted poll results")
)

// exhaustedScriptTimeout bounds how long a poll past the end
// of the script blocks, so that a short script fails the test
// instead of hanging it.
const exhaustedScriptTimeout = 5 * time.Second

// fakeCollector replays a scripted sequence of poll results and
// blocks once the script is exhausted.
type fakeCollector struct {
	mtx sync.Mutex

	createErr  error
	destroyErr error
	script     []pollResult

	specs     []v1.FilterSpec
	versions  []string
	destroyed []v1.ManagedObjectReference
}

type pollResult struct {
	update *v1.UpdateSet
	err    error
}

func newFakeCollector(script ...pollResult) *fakeCollector {
	return &fakeCollector{
		script: script,
	}
}

func (collector *fakeCollector) CreateFilter(_ context.Context, spec v1.FilterSpec) (v1.ManagedObjectReference, error) {
	collector.mtx.Lock()
	defer collector.mtx.Unlock()

	if collector.createErr != nil {
		return v1.ManagedObjectReference{}, collector.createErr
	}

	collector.specs = append(collector.specs, spec)

	return v1.ManagedObjectReference{
		Type:  v1.ManagedObjectTypePropertyFilter,
		Value: fmt.Sprintf("filter-%d", len(collector.specs)),
	}, nil
}

func (collector *fakeCollector) WaitForUpdates(ctx context.Context, version string) (*v1.UpdateSet, error) {
	collector.mtx.Lock()

	collector.versions = append(collector.versions, version)

	if len(collector.script) == 0 {
		collector.mtx.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(exhaustedScriptTimeout):
			return nil, errScriptExhausted
		}
	}

	result := collector.script[0]
	collector.script = collector.script[1:]

	collector.mtx.Unlock()

	return result.update, result.err
}

func (collector *fakeCollector) DestroyFilter(ctx context.Context, filter v1.ManagedObjectReference) error {
	collector.mtx.Lock()
	defer collector.mtx.Unlock()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	collector.destroyed = append(collector.destroyed, filter)

	return collector.destroyErr
}

func update(version string, objects ...v1.ObjectUpdate) pollResult {
	return pollResult{
		update: &v1.UpdateSet{
			Version: version,
			FilterSet: []v1.PropertyFilterUpdate{
				{
					Filter: v1.ManagedObjectReference{
						Type:  v1.ManagedObjectTypePropertyFilter,
						Value: "filter-1",
					},
					ObjectSet: objects,
				},
			},
		},
	}
}

func failure(err error) pollResult {
	return pollResult{err: err}
}

func stateChange(task v1.ManagedObjectReference, state v1.TaskInfoState) v1.ObjectUpdate {
	return v1.ObjectUpdate{
		Kind: v1.ObjectUpdateKindModify,
		Obj:  task,
		ChangeSet: []v1.PropertyChange{
			change(v1.PropertyPathInfoState, state),
		},
	}
}

func infoEnter(task v1.ManagedObjectReference, info v1.TaskInfo) v1.ObjectUpdate {
	info.Key = task.Value
	info.Task = task

	return v1.ObjectUpdate{
		Kind: v1.ObjectUpdateKindEnter,
		Obj:  task,
		ChangeSet: []v1.PropertyChange{
			change(v1.PropertyPathInfo, info),
		},
	}
}

func change(name string, val any) v1.PropertyChange {
	valBytes, err := json.Marshal(val)
	if err != nil {
		panic(err)
	}

	return v1.PropertyChange{
		Name: name,
		Op:   v1.PropertyChangeOpAssign,
		Val:  valBytes,
	}
}
