package chart

import "sort"

// Registry maps slot names to their single live chart handle. Replacing a
// slot disposes the prior handle so repeated renders never leak drawing
// resources.
type Registry struct {
	slots map[string]*Handle
}

func NewRegistry() *Registry {
	return &Registry{slots: map[string]*Handle{}}
}

// Replace installs a handle for the slot, disposing any prior one first.
func (r *Registry) Replace(slot string, handle *Handle) *Handle {
	if prior, ok := r.slots[slot]; ok && prior != nil {
		prior.Dispose()
	}
	if handle == nil {
		delete(r.slots, slot)
		return nil
	}
	r.slots[slot] = handle
	return handle
}

// Get returns the live handle for a slot, or nil.
func (r *Registry) Get(slot string) *Handle {
	return r.slots[slot]
}

// DisposeGroup disposes and removes every slot with the given prefix.
// The EDA controller uses this to clear its run-group before a new run
// creates fresh instances.
func (r *Registry) DisposeGroup(prefix string) {
	for slot, handle := range r.slots {
		if len(slot) >= len(prefix) && slot[:len(prefix)] == prefix {
			if handle != nil {
				handle.Dispose()
			}
			delete(r.slots, slot)
		}
	}
}

// LiveCount reports the number of live handles.
func (r *Registry) LiveCount() int {
	count := 0
	for _, handle := range r.slots {
		if handle != nil && !handle.Disposed() {
			count++
		}
	}
	return count
}

// Slots lists the registered slot names in stable order.
func (r *Registry) Slots() []string {
	names := make([]string, 0, len(r.slots))
	for slot := range r.slots {
		names = append(names, slot)
	}
	sort.Strings(names)
	return names
}
