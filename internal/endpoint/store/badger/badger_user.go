//nolint:dupl // maybe we'll figure out how to make DB resource accessors generic in the future
package badger

import (
	"path"

	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
)

const SpaceUsers = "/users/"

func UserKey(name string) []byte {
	return []byte(path.Join(SpaceUsers, name))
}

func (txn *Transaction) GetUser(name string) (*v1.User, error) {
	return genericGet[v1.User](txn, UserKey(name))
}

func (txn *Transaction) SetUser(user v1.User) error {
	return genericSet[v1.User](txn, UserKey(user.Name), user)
}

func (txn *Transaction) DeleteUser(name string) error {
	return genericDelete(txn, UserKey(name))
}

func (txn *Transaction) ListUsers() ([]v1.User, error) {
	return genericList[v1.User](txn, []byte(SpaceUsers))
}
