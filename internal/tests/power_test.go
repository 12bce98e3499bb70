package tests

import (
	"testing"
	"time"

	"github.com/cirruslabs/vmpower/internal/task"
	"github.com/cirruslabs/vmpower/internal/tests/devendpoint"
	"github.com/cirruslabs/vmpower/internal/tests/wait"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/stretchr/testify/require"
)

func TestPowerOnWaitsForAllTasks(t *testing.T) {
	devClient, _ := devendpoint.StartIntegrationTestEnvironment(t)

	var tasks []v1.ManagedObjectReference

	for _, name := range []string{"web-01", "web-02", "db-01"} {
		submittedTask, err := devClient.VMs().PowerOn(t.Context(), name)
		require.NoError(t, err)
		require.Equal(t, v1.TaskInfoStateQueued, submittedTask.Info.State)

		tasks = append(tasks, submittedTask.Ref)
	}

	require.NoError(t, task.Wait(t.Context(), devClient.PropertyCollector(), tasks))

	for _, ref := range tasks {
		completedTask, err := devClient.Tasks().Get(t.Context(), ref)
		require.NoError(t, err)
		require.Equal(t, v1.TaskInfoStateSuccess, completedTask.Info.State)
	}

	for _, name := range []string{"web-01", "web-02", "db-01"} {
		vm, err := devClient.VMs().Get(t.Context(), name)
		require.NoError(t, err)
		require.Equal(t, v1.VMPowerStatePoweredOn, vm.PowerState)
		require.False(t, vm.BootTime.IsZero())
	}
}

func TestPowerOnAlreadyPoweredOn(t *testing.T) {
	devClient, _ := devendpoint.StartIntegrationTestEnvironment(t)

	submittedTask, err := devClient.VMs().PowerOn(t.Context(), "build-01")
	require.NoError(t, err)

	err = task.Wait(t.Context(), devClient.PropertyCollector(), []v1.ManagedObjectReference{submittedTask.Ref})

	var taskError *task.TaskError
	require.ErrorAs(t, err, &taskError)
	require.Equal(t, submittedTask.Ref, taskError.Task)
	require.Equal(t, v1.FaultInvalidPowerState, taskError.Fault.FaultCause)
	require.Equal(t, "The attempted operation cannot be performed in the current state (Powered on).",
		taskError.Fault.Message)
}

func TestPowerOnFailsFast(t *testing.T) {
	devClient, _ := devendpoint.StartIntegrationTestEnvironment(t)

	failingTask, err := devClient.VMs().PowerOn(t.Context(), "build-01")
	require.NoError(t, err)

	succeedingTask, err := devClient.VMs().PowerOn(t.Context(), "web-01")
	require.NoError(t, err)

	err = task.Wait(t.Context(), devClient.PropertyCollector(),
		[]v1.ManagedObjectReference{succeedingTask.Ref, failingTask.Ref})

	var taskError *task.TaskError
	require.ErrorAs(t, err, &taskError)
	require.Equal(t, failingTask.Ref, taskError.Task)
}

func TestWaitObservesAlreadyCompletedTasks(t *testing.T) {
	devClient, _ := devendpoint.StartIntegrationTestEnvironment(t)

	submittedTask, err := devClient.VMs().PowerOff(t.Context(), "build-01")
	require.NoError(t, err)

	require.True(t, wait.Wait(10*time.Second, func() bool {
		currentTask, err := devClient.Tasks().Get(t.Context(), submittedTask.Ref)
		require.NoError(t, err)

		return currentTask.Info.State == v1.TaskInfoStateSuccess
	}))

	waiter := task.New(devClient.PropertyCollector())
	require.NoError(t, waiter.Wait(t.Context(), []v1.ManagedObjectReference{submittedTask.Ref}))
	require.Equal(t, 1, waiter.Polls())
}

func TestWaitWithNoTasks(t *testing.T) {
	devClient, _ := devendpoint.StartIntegrationTestEnvironment(t)

	waiter := task.New(devClient.PropertyCollector())
	require.NoError(t, waiter.Wait(t.Context(), nil))
	require.Equal(t, 0, waiter.Polls())
}

func TestWaitTimesOut(t *testing.T) {
	devClient, _ := devendpoint.StartIntegrationTestEnvironment(t)

	submittedTask, err := devClient.VMs().PowerOn(t.Context(), "web-01")
	require.NoError(t, err)

	// The task itself is fine, but it can't possibly complete
	// in a nanosecond
	err = task.Wait(t.Context(), devClient.PropertyCollector(),
		[]v1.ManagedObjectReference{submittedTask.Ref}, task.WithPollTimeout(time.Nanosecond))
	require.ErrorIs(t, err, task.ErrTimeout)
}

func TestSubscriptionToUnknownTask(t *testing.T) {
	devClient, _ := devendpoint.StartIntegrationTestEnvironment(t)

	err := task.Wait(t.Context(), devClient.PropertyCollector(),
		[]v1.ManagedObjectReference{v1.NewTaskReference("task-404")})
	require.ErrorIs(t, err, task.ErrSubscription)
}
