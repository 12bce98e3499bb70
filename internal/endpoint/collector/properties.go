package collector

import (
	"bytes"
	"encoding/json"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
)

// taskSubPaths are reported individually when a task
// that was already reported to the session changes.
var taskSubPaths = []string{
	v1.PropertyPathInfoState,
	v1.PropertyPathInfoProgress,
	v1.PropertyPathInfoError,
	v1.PropertyPathInfoStartTime,
	v1.PropertyPathInfoCompleteTime,
}

// knownPaths lists every selectable path in the order changes are reported.
var knownPaths = append([]string{v1.PropertyPathInfo}, taskSubPaths...)

func isKnownPath(path string) bool {
	return lo.Contains(knownPaths, path)
}

// taskProperty returns the JSON representation of the property at path,
// nil means that the property is unset.
func taskProperty(info *v1.TaskInfo, path string) (json.RawMessage, error) {
	var value any

	switch path {
	case v1.PropertyPathInfo:
		value = info
	case v1.PropertyPathInfoState:
		value = info.State
	case v1.PropertyPathInfoProgress:
		value = info.Progress
	case v1.PropertyPathInfoError:
		if info.Error == nil {
			return nil, nil
		}

		value = info.Error
	case v1.PropertyPathInfoStartTime:
		if info.StartTime.IsZero() {
			return nil, nil
		}

		value = info.StartTime
	case v1.PropertyPathInfoCompleteTime:
		if info.CompleteTime.IsZero() {
			return nil, nil
		}

		value = info.CompleteTime
	default:
		return nil, nil
	}

	return json.Marshal(value)
}

// selection is the set of task property paths requested by a filter.
type selection struct {
	all   bool
	paths mapset.Set[string]
}

func newSelection(propSet []v1.PropertySpec) selection {
	result := selection{
		paths: mapset.NewThreadUnsafeSet[string](),
	}

	for _, propertySpec := range propSet {
		if propertySpec.Type != v1.ManagedObjectTypeTask {
			continue
		}

		if propertySpec.All {
			result.all = true
		}

		result.paths.Append(propertySpec.PathSet...)
	}

	return result
}

// selected returns the requested paths in a stable order,
// regardless of their order or repetition in the filter spec.
func (selection selection) selected() []string {
	return lo.Filter(knownPaths, func(path string, _ int) bool {
		return selection.paths.Contains(path)
	})
}

// enterPaths are the paths reported when a task first becomes visible.
func (selection selection) enterPaths() []string {
	if selection.all {
		return []string{v1.PropertyPathInfo}
	}

	return selection.selected()
}

// modifyPaths are the paths compared when a visible task changes.
func (selection selection) modifyPaths() []string {
	if selection.all {
		return taskSubPaths
	}

	return selection.selected()
}

func enterChanges(info *v1.TaskInfo, selection selection) ([]v1.PropertyChange, error) {
	var changes []v1.PropertyChange

	for _, path := range selection.enterPaths() {
		value, err := taskProperty(info, path)
		if err != nil {
			return nil, err
		}

		if value == nil {
			continue
		}

		changes = append(changes, v1.PropertyChange{
			Name: path,
			Op:   v1.PropertyChangeOpAssign,
			Val:  value,
		})
	}

	return changes, nil
}

func modifyChanges(previous *v1.TaskInfo, current *v1.TaskInfo, selection selection) ([]v1.PropertyChange, error) {
	var changes []v1.PropertyChange

	for _, path := range selection.modifyPaths() {
		previousValue, err := taskProperty(previous, path)
		if err != nil {
			return nil, err
		}

		currentValue, err := taskProperty(current, path)
		if err != nil {
			return nil, err
		}

		if bytes.Equal(previousValue, currentValue) {
			continue
		}

		if currentValue == nil {
			changes = append(changes, v1.PropertyChange{
				Name: path,
				Op:   v1.PropertyChangeOpRemove,
			})

			continue
		}

		changes = append(changes, v1.PropertyChange{
			Name: path,
			Op:   v1.PropertyChangeOpAssign,
			Val:  currentValue,
		})
	}

	return changes, nil
}
