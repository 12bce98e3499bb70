package store

import (
	"context"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

type WatchMessageType string

const (
	WatchMessageTypeAdded    WatchMessageType = "ADDED"
	WatchMessageTypeModified WatchMessageType = "MODIFIED"
	WatchMessageTypeDeleted  WatchMessageType = "DELETED"
)

type WatchMessage[T any] struct {
	Type   WatchMessageType `json:"type,omitempty"`
	Object T                `json:"object,omitempty"`
}

type Store interface {
	View(cb func(txn Transaction) error) error
	Update(cb func(txn Transaction) error) error

	// WatchTasks streams every task write committed
	// after the call returns.
	WatchTasks(ctx context.Context) (chan WatchMessage[v1.Task], chan error, error)

	Close() error
}

type Transaction interface {
	GetVM(name string) (result *v1.VM, err error)
	SetVM(vm v1.VM) (err error)
	DeleteVM(name string) (err error)
	ListVMs() (result []v1.VM, err error)

	GetTask(id string) (result *v1.Task, err error)
	SetTask(task v1.Task) (err error)
	DeleteTask(id string) (err error)
	ListTasks() (result []v1.Task, err error)
	NextTaskID() (id string, err error)

	GetUser(name string) (result *v1.User, err error)
	SetUser(user v1.User) (err error)
	DeleteUser(name string) (err error)
	ListUsers() (result []v1.User, err error)
}
