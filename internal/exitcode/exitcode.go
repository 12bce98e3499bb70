package exitcode

import (
	"errors"

	"github.com/cirruslabs/vmpower/internal/task"
	"github.com/cirruslabs/vmpower/pkg/client"
)

// ErrBadInput marks errors caused by the command-line arguments.
var ErrBadInput = errors.New("bad input")

const (
	Success          = 0
	Failure          = 1
	BadInput         = 2
	ConnectionFailed = 3
	TaskFailed       = 4
)

// FromError maps an error returned by a command to the process exit code.
func FromError(err error) int {
	if err == nil {
		return Success
	}

	var taskError *task.TaskError

	switch {
	case errors.Is(err, ErrBadInput):
		return BadInput
	case errors.Is(err, client.ErrConnectionFailed):
		return ConnectionFailed
	case errors.As(err, &taskError):
		return TaskFailed
	default:
		return Failure
	}
}

// Message describes the error to the user, a task error
// is reported with the fault message received from the endpoint.
func Message(err error) string {
	var taskError *task.TaskError

	if errors.As(err, &taskError) && taskError.Fault != nil {
		return "Caught fault: " + taskError.Fault.Message
	}

	return "Caught exception: " + err.Error()
}
