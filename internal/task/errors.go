package task

import (
	"errors"
	"fmt"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

var (
	ErrSubscription    = errors.New("failed to subscribe to task updates")
	ErrUnexpectedFault = errors.New("unexpected fault while waiting for tasks")
	ErrTimeout         = errors.New("timed out waiting for tasks")
)

// TaskError is returned when one of the tracked tasks reaches the error state.
type TaskError struct {
	Task  v1.ManagedObjectReference
	Fault *v1.MethodFault
}

func (taskError *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", taskError.Task.Value, taskError.Fault)
}

func (taskError *TaskError) Unwrap() error {
	return taskError.Fault
}
