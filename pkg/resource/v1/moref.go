package v1

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidReference = errors.New("invalid managed object reference")

// ManagedObjectReference identifies a server-side object by its kind and a
// stable value. Two references denote the same object iff both fields match.
type ManagedObjectReference struct {
	Type  ManagedObjectType `json:"type,omitempty"`
	Value string            `json:"value,omitempty"`
}

type ManagedObjectType string

const (
	ManagedObjectTypeVirtualMachine ManagedObjectType = "VirtualMachine"
	ManagedObjectTypeTask           ManagedObjectType = "Task"
	ManagedObjectTypePropertyFilter ManagedObjectType = "PropertyFilter"
)

func NewTaskReference(value string) ManagedObjectReference {
	return ManagedObjectReference{Type: ManagedObjectTypeTask, Value: value}
}

func (ref ManagedObjectReference) IsZero() bool {
	return ref.Type == "" && ref.Value == ""
}

func (ref ManagedObjectReference) String() string {
	return fmt.Sprintf("%s:%s", ref.Type, ref.Value)
}

// ParseManagedObjectReference is the inverse of ManagedObjectReference.String().
func ParseManagedObjectReference(s string) (ManagedObjectReference, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok || kind == "" || value == "" {
		return ManagedObjectReference{}, fmt.Errorf("%w: expected TYPE:VALUE, got %q", ErrInvalidReference, s)
	}

	return ManagedObjectReference{
		Type:  ManagedObjectType(kind),
		Value: value,
	}, nil
}
