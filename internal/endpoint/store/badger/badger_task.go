package badger

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	"github.com/dgraph-io/badger/v3"
)

const (
	SpaceTasks     = "/tasks/"
	taskCounterKey = "/counters/tasks"
)

func TaskKey(id string) []byte {
	return []byte(path.Join(SpaceTasks, id))
}

func (txn *Transaction) GetTask(id string) (*v1.Task, error) {
	return genericGet[v1.Task](txn, TaskKey(id))
}

func (txn *Transaction) SetTask(task v1.Task) error {
	return genericSet[v1.Task](txn, TaskKey(task.Ref.Value), task)
}

func (txn *Transaction) DeleteTask(id string) error {
	return genericDelete(txn, TaskKey(id))
}

func (txn *Transaction) ListTasks() ([]v1.Task, error) {
	return genericList[v1.Task](txn, []byte(SpaceTasks))
}

// NextTaskID allocates a new "task-N" identifier, concurrent
// allocations are serialized by Badger's conflict detection.
func (txn *Transaction) NextTaskID() (_ string, err error) {
	defer func() {
		err = mapErr(err)
	}()

	var counter uint64

	item, err := txn.badgerTxn.Get([]byte(taskCounterKey))
	switch {
	case err == nil:
		valueBytes, err := item.ValueCopy(nil)
		if err != nil {
			return "", err
		}

		counter = binary.BigEndian.Uint64(valueBytes)
	case errors.Is(err, badger.ErrKeyNotFound):
		// first task ever
	default:
		return "", err
	}

	counter++

	if err := txn.badgerTxn.Set([]byte(taskCounterKey), binary.BigEndian.AppendUint64(nil, counter)); err != nil {
		return "", err
	}

	return fmt.Sprintf("task-%d", counter), nil
}
