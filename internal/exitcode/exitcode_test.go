package exitcode_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/cirruslabs/vmpower/internal/exitcode"
	"github.com/cirruslabs/vmpower/internal/task"
	"github.com/cirruslabs/vmpower/pkg/client"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	taskError := &task.TaskError{
		Task: v1.NewTaskReference("task-1"),
		Fault: &v1.MethodFault{
			FaultCause: v1.FaultInvalidPowerState,
			Message:    "The attempted operation cannot be performed in the current state (Powered on).",
		},
	}

	testCases := []struct {
		Name     string
		Err      error
		Expected int
	}{
		{"success", nil, exitcode.Success},
		{"bad input", fmt.Errorf("%w: --vmname is required", exitcode.ErrBadInput), exitcode.BadInput},
		{"connection", fmt.Errorf("%w: %w", client.ErrConnectionFailed, client.ErrUnauthorized),
			exitcode.ConnectionFailed},
		{"task", fmt.Errorf("waiting failed: %w", taskError), exitcode.TaskFailed},
		{"timeout", task.ErrTimeout, exitcode.Failure},
		{"other", errors.New("something went wrong"), exitcode.Failure},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			require.Equal(t, testCase.Expected, exitcode.FromError(testCase.Err))
		})
	}
}

func TestMessage(t *testing.T) {
	taskError := &task.TaskError{
		Task: v1.NewTaskReference("task-1"),
		Fault: &v1.MethodFault{
			FaultCause: v1.FaultInvalidPowerState,
			Message:    "The attempted operation cannot be performed in the current state (Powered on).",
		},
	}

	require.Equal(t, "Caught fault: The attempted operation cannot be performed in the current state (Powered on).",
		exitcode.Message(taskError))
	require.Equal(t, "Caught exception: timed out waiting for tasks",
		exitcode.Message(task.ErrTimeout))
}
