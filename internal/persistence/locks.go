package persistence

import (
	"sort"
	"sync"
)

// ResourceLocks serializes admission decisions per resource id. Locks for
// distinct resources are independent, so admission on one instrument never
// blocks admission on another.
//
// The registry grows with the number of distinct resource ids seen by the
// process. Entries are never evicted: evicting a mutex another goroutine
// still holds would break mutual exclusion, and the population is bounded by
// the facility's instrument and equipment count.
type ResourceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewResourceLocks constructs an empty lock registry.
func NewResourceLocks() *ResourceLocks {
	return &ResourceLocks{locks: make(map[string]*sync.Mutex)}
}

func (r *ResourceLocks) lockFor(resourceID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[resourceID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[resourceID] = lock
	}
	return lock
}

// Acquire takes the exclusive section for every named resource and returns a
// release function. Duplicate ids are collapsed and acquisition follows the
// sorted id order, so two callers locking overlapping resource sets cannot
// deadlock.
func (r *ResourceLocks) Acquire(resourceIDs ...string) func() {
	unique := make(map[string]struct{}, len(resourceIDs))
	ordered := make([]string, 0, len(resourceIDs))
	for _, id := range resourceIDs {
		if id == "" {
			continue
		}
		if _, ok := unique[id]; ok {
			continue
		}
		unique[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Strings(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, id := range ordered {
		lock := r.lockFor(id)
		lock.Lock()
		held = append(held, lock)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
