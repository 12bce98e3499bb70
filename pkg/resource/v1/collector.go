package v1

import (
	"encoding/json"
)

// FilterSpec restricts a property filter to a set of objects
// and a set of properties on those objects.
type FilterSpec struct {
	ObjectSet []ObjectSpec   `json:"objectSet,omitempty"`
	PropSet   []PropertySpec `json:"propSet,omitempty"`
}

type ObjectSpec struct {
	Obj ManagedObjectReference `json:"obj"`
}

type PropertySpec struct {
	Type ManagedObjectType `json:"type,omitempty"`

	// All requests every property of the object,
	// in which case PathSet is ignored.
	All     bool     `json:"all,omitempty"`
	PathSet []string `json:"pathSet,omitempty"`
}

type PropertyFilter struct {
	Ref  ManagedObjectReference `json:"ref"`
	Spec FilterSpec             `json:"spec"`
}

// UpdateSet is a single response of the property collector's long poll.
//
// Version is the cursor that has to be supplied to the next
// WaitForUpdates() call to only receive further changes.
type UpdateSet struct {
	Version   string                 `json:"version"`
	FilterSet []PropertyFilterUpdate `json:"filterSet,omitempty"`
	Truncated bool                   `json:"truncated,omitempty"`
}

type PropertyFilterUpdate struct {
	Filter    ManagedObjectReference `json:"filter"`
	ObjectSet []ObjectUpdate         `json:"objectSet,omitempty"`
}

type ObjectUpdate struct {
	Kind      ObjectUpdateKind       `json:"kind"`
	Obj       ManagedObjectReference `json:"obj"`
	ChangeSet []PropertyChange       `json:"changeSet,omitempty"`
}

type ObjectUpdateKind string

const (
	ObjectUpdateKindEnter  ObjectUpdateKind = "enter"
	ObjectUpdateKindModify ObjectUpdateKind = "modify"
	ObjectUpdateKindLeave  ObjectUpdateKind = "leave"
)

type PropertyChange struct {
	Name string           `json:"name"`
	Op   PropertyChangeOp `json:"op"`
	Val  json.RawMessage  `json:"val,omitempty"`
}

type PropertyChangeOp string

const (
	PropertyChangeOpAssign PropertyChangeOp = "assign"
	PropertyChangeOpRemove PropertyChangeOp = "remove"
)

// Property paths of the Task object that the collector reports.
const (
	PropertyPathInfo             = "info"
	PropertyPathInfoState        = "info.state"
	PropertyPathInfoProgress     = "info.progress"
	PropertyPathInfoError        = "info.error"
	PropertyPathInfoStartTime    = "info.startTime"
	PropertyPathInfoCompleteTime = "info.completeTime"
)
