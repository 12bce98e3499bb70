package hostagent

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	storepkg "github.com/cirruslabs/vmpower/internal/endpoint/store"
	"github.com/cirruslabs/vmpower/internal/opentelemetry"
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const defaultMaxStepDelay = 750 * time.Millisecond

var ErrUnsupportedOperation = errors.New("unsupported operation")

// HostAgent executes power operations on the inventory's VMs.
//
// Each operation is represented by a task that goes through the
// queued, running and then either success or error states, with
// every transition persisted to the store.
type HostAgent struct {
	store           storepkg.Store
	logger          *zap.SugaredLogger
	maxStepDelay    time.Duration
	completionHooks []func(task v1.Task)

	taskDurationHistogram metric.Float64Histogram

	requests chan v1.ManagedObjectReference
	wg       sync.WaitGroup
}

func New(store storepkg.Store, opts ...Option) (*HostAgent, error) {
	agent := &HostAgent{
		store:        store,
		maxStepDelay: defaultMaxStepDelay,
		requests:     make(chan v1.ManagedObjectReference, 128),
	}

	// Apply options
	for _, opt := range opts {
		opt(agent)
	}

	// Apply defaults
	if agent.logger == nil {
		agent.logger = zap.NewNop().Sugar()
	}

	var err error

	agent.taskDurationHistogram, err = opentelemetry.DefaultMeter.Float64Histogram(
		"org.cirruslabs.vmpower.task.duration",
		metric.WithDescription("Time it took for a task to reach a terminal state"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	// Tasks that were in-flight when the endpoint was last stopped
	// will never progress, so fail them right away
	if err := agent.interruptStaleTasks(); err != nil {
		return nil, err
	}

	return agent, nil
}

// Submit creates a queued task for the operation and returns it
// without waiting for the operation to complete.
func (agent *HostAgent) Submit(ctx context.Context, vmName string, descriptionID string) (*v1.Task, error) {
	if descriptionID != v1.TaskDescriptionPowerOn && descriptionID != v1.TaskDescriptionPowerOff {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, descriptionID)
	}

	var task v1.Task

	err := agent.updateWithRetry(ctx, func(txn storepkg.Transaction) error {
		vm, err := txn.GetVM(vmName)
		if err != nil {
			return err
		}

		id, err := txn.NextTaskID()
		if err != nil {
			return err
		}

		task = v1.Task{
			Ref: v1.NewTaskReference(id),
			Info: v1.TaskInfo{
				Key:           id,
				Task:          v1.NewTaskReference(id),
				DescriptionID: descriptionID,
				Entity:        vm.Ref,
				EntityName:    vm.Name,
				State:         v1.TaskInfoStateQueued,
				QueueTime:     time.Now(),
			},
		}

		return txn.SetTask(task)
	})
	if err != nil {
		return nil, err
	}

	agent.logger.Debugf("queued task %s (%s) for VM %s", task.Ref.Value, descriptionID, vmName)

	select {
	case agent.requests <- task.Ref:
		return &task, nil
	case <-ctx.Done():
		if _, err := agent.fail(task.Ref, &v1.MethodFault{
			FaultCause: v1.FaultTaskInterrupted,
			Message:    "Task was interrupted before it could be started",
		}); err != nil {
			agent.logger.Warnf("failed to mark the task %s as failed: %v", task.Ref.Value, err)
		}

		return nil, ctx.Err()
	}
}

// Run executes the submitted tasks until ctx is cancelled,
// after which the tasks that are still running are interrupted.
func (agent *HostAgent) Run(ctx context.Context) error {
	for {
		select {
		case ref := <-agent.requests:
			agent.wg.Go(func() {
				agent.execute(ctx, ref)
			})
		case <-ctx.Done():
			agent.wg.Wait()

			return nil
		}
	}
}

func (agent *HostAgent) execute(ctx context.Context, ref v1.ManagedObjectReference) {
	startedAt := time.Now()

	logger := agent.logger.With("task", ref.Value)

	task, err := agent.executeInner(ctx, ref)
	if err != nil {
		logger.Warnf("task execution failed: %v", err)

		task, err = agent.fail(ref, &v1.MethodFault{
			FaultCause: v1.FaultTaskInterrupted,
			Message:    fmt.Sprintf("Task was interrupted: %v", err),
		})
		if err != nil {
			logger.Errorf("failed to mark the task as failed: %v", err)

			return
		}
	}

	logger.Infof("task %s for VM %s completed with state %s",
		task.Info.DescriptionID, task.Info.EntityName, task.Info.State)

	agent.taskDurationHistogram.Record(context.WithoutCancel(ctx), time.Since(startedAt).Seconds(),
		metric.WithAttributes(
			attribute.String("description", task.Info.DescriptionID),
			attribute.String("state", task.Info.State.String()),
		))

	for _, hook := range agent.completionHooks {
		hook(*task)
	}
}

func (agent *HostAgent) executeInner(ctx context.Context, ref v1.ManagedObjectReference) (*v1.Task, error) {
	if err := agent.sleep(ctx); err != nil {
		return nil, err
	}

	// Start the task
	if _, err := agent.updateTask(ctx, ref, func(txn storepkg.Transaction, task *v1.Task) error {
		task.Info.State = v1.TaskInfoStateRunning
		task.Info.StartTime = time.Now()

		return nil
	}); err != nil {
		return nil, err
	}

	if err := agent.sleep(ctx); err != nil {
		return nil, err
	}

	// Report some progress
	if _, err := agent.updateTask(ctx, ref, func(txn storepkg.Transaction, task *v1.Task) error {
		task.Info.Progress = 50

		return nil
	}); err != nil {
		return nil, err
	}

	if err := agent.sleep(ctx); err != nil {
		return nil, err
	}

	// Perform the operation and complete the task in a single transaction
	return agent.updateTask(ctx, ref, func(txn storepkg.Transaction, task *v1.Task) error {
		task.Info.CompleteTime = time.Now()

		fault, err := applyPowerOperation(txn, task)
		if err != nil {
			return err
		}

		if fault != nil {
			task.Info.State = v1.TaskInfoStateError
			task.Info.Error = fault

			return nil
		}

		task.Info.State = v1.TaskInfoStateSuccess
		task.Info.Progress = 100

		return nil
	})
}

// applyPowerOperation changes the VM's power state, a non-nil fault
// means that the operation cannot be performed.
func applyPowerOperation(txn storepkg.Transaction, task *v1.Task) (*v1.MethodFault, error) {
	vm, err := txn.GetVM(task.Info.EntityName)
	if err != nil && !errors.Is(err, storepkg.ErrNotFound) {
		return nil, err
	}

	// The VM might have been deleted and re-created under the same name
	if vm == nil || vm.Ref != task.Info.Entity {
		return &v1.MethodFault{
			FaultCause: v1.FaultManagedObjectNotFound,
			Message: fmt.Sprintf("The object '%s' has already been deleted "+
				"or has not been completely created", task.Info.Entity),
		}, nil
	}

	var targetState v1.VMPowerState

	switch task.Info.DescriptionID {
	case v1.TaskDescriptionPowerOn:
		targetState = v1.VMPowerStatePoweredOn
	case v1.TaskDescriptionPowerOff:
		targetState = v1.VMPowerStatePoweredOff
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, task.Info.DescriptionID)
	}

	if vm.PowerState == targetState {
		return &v1.MethodFault{
			FaultCause: v1.FaultInvalidPowerState,
			Message: fmt.Sprintf("The attempted operation cannot be performed "+
				"in the current state (%s).", humanPowerState(vm.PowerState)),
		}, nil
	}

	vm.PowerState = targetState

	if targetState == v1.VMPowerStatePoweredOn {
		vm.BootTime = time.Now()
	} else {
		vm.BootTime = time.Time{}
	}

	return nil, txn.SetVM(*vm)
}

func humanPowerState(powerState v1.VMPowerState) string {
	switch powerState {
	case v1.VMPowerStatePoweredOn:
		return "Powered on"
	case v1.VMPowerStatePoweredOff:
		return "Powered off"
	case v1.VMPowerStateSuspended:
		return "Suspended"
	default:
		return string(powerState)
	}
}

func (agent *HostAgent) fail(ref v1.ManagedObjectReference, fault *v1.MethodFault) (*v1.Task, error) {
	return agent.updateTask(context.Background(), ref, func(txn storepkg.Transaction, task *v1.Task) error {
		task.Info.State = v1.TaskInfoStateError
		task.Info.Error = fault
		task.Info.CompleteTime = time.Now()

		return nil
	})
}

func (agent *HostAgent) interruptStaleTasks() error {
	return agent.store.Update(func(txn storepkg.Transaction) error {
		tasks, err := txn.ListTasks()
		if err != nil {
			return err
		}

		for _, task := range tasks {
			if task.Info.State.Terminal() {
				continue
			}

			agent.logger.Warnf("failing task %s that was interrupted by the endpoint restart",
				task.Ref.Value)

			task.Info.State = v1.TaskInfoStateError
			task.Info.Error = &v1.MethodFault{
				FaultCause: v1.FaultTaskInterrupted,
				Message:    "Task was interrupted by the management endpoint restart",
			}
			task.Info.CompleteTime = time.Now()

			if err := txn.SetTask(task); err != nil {
				return err
			}
		}

		return nil
	})
}

func (agent *HostAgent) updateTask(
	ctx context.Context,
	ref v1.ManagedObjectReference,
	mutate func(txn storepkg.Transaction, task *v1.Task) error,
) (*v1.Task, error) {
	var result *v1.Task

	err := agent.updateWithRetry(ctx, func(txn storepkg.Transaction) error {
		task, err := txn.GetTask(ref.Value)
		if err != nil {
			return err
		}

		if err := mutate(txn, task); err != nil {
			return err
		}

		result = task

		return txn.SetTask(*task)
	})

	return result, err
}

// updateWithRetry re-runs the transaction when it conflicts
// with a concurrent one, e.g. another task allocating an ID.
func (agent *HostAgent) updateWithRetry(ctx context.Context, cb func(txn storepkg.Transaction) error) error {
	return retry.Do(func() error {
		return agent.store.Update(cb)
	}, retry.RetryIf(func(err error) bool {
		return errors.Is(err, storepkg.ErrConflict)
	}), retry.OnRetry(func(n uint, err error) {
		agent.logger.Debugf("retrying conflicting store transaction (attempt %d): %v", n+1, err)
	}), retry.Context(ctx), retry.Attempts(50), retry.Delay(5*time.Millisecond),
		retry.MaxDelay(200*time.Millisecond), retry.LastErrorOnly(true))
}

func (agent *HostAgent) sleep(ctx context.Context) error {
	if agent.maxStepDelay <= 0 {
		return ctx.Err()
	}

	//nolint:gosec // no need for a cryptographically secure delay
	delay := time.Duration(rand.Float64() * float64(agent.maxStepDelay))

	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
