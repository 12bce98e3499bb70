package v1

import (
	"time"
)

// Meta is a common set of fields that apply to all resources managed by the endpoint.
type Meta struct {
	// Name is a human-readable resource identifier.
	//
	// There can't be multiple resources of the same kind with the same Name in the DB at any given time.
	Name string `json:"name,omitempty"`

	// CreatedAt is populated by the endpoint with the current time
	// when receiving a POST request.
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type VM struct {
	// Ref is populated by the endpoint when the VM is created
	// and stays the same for the whole lifetime of the VM.
	Ref ManagedObjectReference `json:"ref,omitempty"`

	GuestID string `json:"guestId,omitempty"`
	CPU     uint64 `json:"cpu,omitempty"`
	Memory  uint64 `json:"memory,omitempty"`

	// PowerState is only changed by the host agent as a result of a power operation task.
	PowerState VMPowerState `json:"powerState,omitempty"`
	BootTime   time.Time    `json:"bootTime,omitempty"`

	Meta
}

type VMPowerState string

func (powerState VMPowerState) String() string {
	return string(powerState)
}

const (
	VMPowerStatePoweredOff VMPowerState = "poweredOff"
	VMPowerStatePoweredOn  VMPowerState = "poweredOn"
	VMPowerStateSuspended  VMPowerState = "suspended"
)

// SessionKeyHeader carries UserSession.Key on every authenticated request.
const SessionKeyHeader = "X-Session-Key"

type UserSession struct {
	Key            string    `json:"key,omitempty"`
	UserName       string    `json:"userName,omitempty"`
	LoginTime      time.Time `json:"loginTime,omitempty"`
	LastActiveTime time.Time `json:"lastActiveTime,omitempty"`
}

type User struct {
	PasswordHash []byte `json:"passwordHash,omitempty"`

	Meta
}
