package task

import (
	"encoding/json"
	"fmt"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/samber/mo"
)

type StepKind int

const (
	StepContinue StepKind = iota
	StepDone
	StepFailed
)

func (kind StepKind) String() string {
	switch kind {
	case StepContinue:
		return "continue"
	case StepDone:
		return "done"
	case StepFailed:
		return "failed"
	default:
		return fmt.Sprintf("StepKind(%d)", int(kind))
	}
}

// Step is the outcome of processing a single UpdateSet.
//
// Err is only set for StepFailed and is either a *TaskError
// or an error wrapping ErrUnexpectedFault.
type Step struct {
	Kind StepKind
	Err  error
}

// infoCache holds the last known TaskInfo of every tracked task.
type infoCache map[v1.ManagedObjectReference]*v1.TaskInfo

func (cache infoCache) get(task v1.ManagedObjectReference) *v1.TaskInfo {
	info, ok := cache[task]
	if !ok {
		info = &v1.TaskInfo{Key: task.Value, Task: task}
		cache[task] = info
	}

	return info
}

// apply folds a single property change into the cached TaskInfo
// and returns the task state carried by the change, if any.
func (cache infoCache) apply(
	task v1.ManagedObjectReference,
	change v1.PropertyChange,
) (mo.Option[v1.TaskInfoState], error) {
	info := cache.get(task)

	switch change.Name {
	case v1.PropertyPathInfo:
		var newInfo v1.TaskInfo

		if err := decodeChange(change, &newInfo); err != nil {
			return mo.None[v1.TaskInfoState](), err
		}

		*info = newInfo

		return mo.Some(newInfo.State), nil
	case v1.PropertyPathInfoState:
		var state v1.TaskInfoState

		if err := decodeChange(change, &state); err != nil {
			return mo.None[v1.TaskInfoState](), err
		}

		info.State = state

		return mo.Some(state), nil
	case v1.PropertyPathInfoError:
		var fault *v1.MethodFault

		if err := decodeChange(change, &fault); err != nil {
			return mo.None[v1.TaskInfoState](), err
		}

		info.Error = fault
	case v1.PropertyPathInfoProgress:
		// Progress is informational only, a malformed value is not worth failing over
		_ = decodeChange(change, &info.Progress)
	}

	return mo.None[v1.TaskInfoState](), nil
}

func decodeChange(change v1.PropertyChange, out any) error {
	if change.Op == v1.PropertyChangeOpRemove || len(change.Val) == 0 {
		return nil
	}

	if err := json.Unmarshal(change.Val, out); err != nil {
		return fmt.Errorf("%w: malformed %q property change: %v", ErrUnexpectedFault, change.Name, err)
	}

	return nil
}

// step processes every change record of the update, in order of delivery.
func step(tracker *Tracker, cache infoCache, update *v1.UpdateSet) Step {
	for _, filterUpdate := range update.FilterSet {
		for _, objectUpdate := range filterUpdate.ObjectSet {
			task := objectUpdate.Obj

			// Tasks from other batches and tasks that already succeeded
			if !tracker.Tracks(task) {
				continue
			}

			// Fold the whole change set first so that a bare "info.state"
			// change is reported with the "info.error" that accompanies it
			var states []v1.TaskInfoState

			for _, change := range objectUpdate.ChangeSet {
				state, err := cache.apply(task, change)
				if err != nil {
					return Step{Kind: StepFailed, Err: err}
				}

				if value, ok := state.Get(); ok {
					states = append(states, value)
				}
			}

		States:
			for _, state := range states {
				switch state {
				case v1.TaskInfoStateSuccess:
					tracker.MarkDone(task)

					break States
				case v1.TaskInfoStateError:
					return Step{Kind: StepFailed, Err: &TaskError{
						Task:  task,
						Fault: faultOf(cache.get(task)),
					}}
				}
			}
		}
	}

	if tracker.IsComplete() {
		return Step{Kind: StepDone}
	}

	return Step{Kind: StepContinue}
}

func faultOf(info *v1.TaskInfo) *v1.MethodFault {
	if info.Error != nil {
		return info.Error
	}

	return &v1.MethodFault{
		Message: fmt.Sprintf("task %s reported an error without a fault", info.Key),
	}
}
