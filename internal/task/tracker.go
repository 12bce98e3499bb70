package task

import (
	v1 "github.com/cirruslabs/vmpower/pkg/resource/v1"
	mapset "github.com/deckarep/golang-set/v2"
)

// Tracker keeps track of tasks from a single batch that haven't succeeded yet.
//
// The outstanding set only ever shrinks.
type Tracker struct {
	outstanding mapset.Set[v1.ManagedObjectReference]
}

func NewTracker(tasks ...v1.ManagedObjectReference) *Tracker {
	return &Tracker{
		outstanding: mapset.NewThreadUnsafeSet(tasks...),
	}
}

// MarkDone removes the task from the outstanding set. Tasks
// that are not tracked (or were already marked) are ignored.
func (tracker *Tracker) MarkDone(task v1.ManagedObjectReference) {
	tracker.outstanding.Remove(task)
}

func (tracker *Tracker) Tracks(task v1.ManagedObjectReference) bool {
	return tracker.outstanding.ContainsOne(task)
}

func (tracker *Tracker) IsComplete() bool {
	return tracker.outstanding.Cardinality() == 0
}

func (tracker *Tracker) Len() int {
	return tracker.outstanding.Cardinality()
}

func (tracker *Tracker) Outstanding() []v1.ManagedObjectReference {
	return tracker.outstanding.ToSlice()
}
