package v1

import (
	"time"
)

type Task struct {
	Ref  ManagedObjectReference `json:"ref,omitempty"`
	Info TaskInfo               `json:"info,omitempty"`
}

type TaskInfo struct {
	// Key is equal to the value of the task's reference.
	Key  string                 `json:"key,omitempty"`
	Task ManagedObjectReference `json:"task,omitempty"`

	// DescriptionID names the operation, e.g. "VirtualMachine.powerOn".
	DescriptionID string                 `json:"descriptionId,omitempty"`
	Entity        ManagedObjectReference `json:"entity,omitempty"`
	EntityName    string                 `json:"entityName,omitempty"`

	State    TaskInfoState `json:"state,omitempty"`
	Progress int           `json:"progress,omitempty"`

	// Error is only set when State is TaskInfoStateError.
	Error *MethodFault `json:"error,omitempty"`

	QueueTime    time.Time `json:"queueTime,omitempty"`
	StartTime    time.Time `json:"startTime,omitempty"`
	CompleteTime time.Time `json:"completeTime,omitempty"`
}

type TaskInfoState string

func (state TaskInfoState) String() string {
	return string(state)
}

const (
	TaskInfoStateQueued  TaskInfoState = "queued"
	TaskInfoStateRunning TaskInfoState = "running"
	TaskInfoStateSuccess TaskInfoState = "success"
	TaskInfoStateError   TaskInfoState = "error"
)

// Terminal returns true for states from which no further transition occurs.
func (state TaskInfoState) Terminal() bool {
	return state == TaskInfoStateSuccess || state == TaskInfoStateError
}

const (
	TaskDescriptionPowerOn  = "VirtualMachine.powerOn"
	TaskDescriptionPowerOff = "VirtualMachine.powerOff"
)

type MethodFault struct {
	FaultCause string `json:"faultCause,omitempty"`
	Message    string `json:"msg,omitempty"`
}

func (fault *MethodFault) Error() string {
	if fault.FaultCause == "" {
		return fault.Message
	}

	return fault.FaultCause + ": " + fault.Message
}

const (
	FaultInvalidPowerState     = "InvalidPowerState"
	FaultManagedObjectNotFound = "ManagedObjectNotFound"
	FaultTaskInterrupted       = "TaskInterrupted"
)
