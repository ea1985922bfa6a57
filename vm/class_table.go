package vm

import (
	"slices"
	"sync"
	"weak"
)

// ---------------------------------------------------------------------------
// ClassTable: handle registry for classes
// ---------------------------------------------------------------------------

// ClassTable maps stable class handles to classes.
//
// Entries are weak: the table never keeps a class alive. A class stays
// reachable through its instances, its subclasses' Bases and whatever
// the embedding program holds. It's thread-safe for concurrent access.
type ClassTable struct {
	mu      sync.RWMutex
	classes map[ClassID]weak.Pointer[Class]
}

// NewClassTable creates a new empty class table.
func NewClassTable() *ClassTable {
	return &ClassTable{
		classes: make(map[ClassID]weak.Pointer[Class]),
	}
}

// Register adds a class to the table.
func (ct *ClassTable) Register(c *Class) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.classes[c.ID] = weak.Make(c)
}

// Unregister removes a class from the table.
func (ct *ClassTable) Unregister(c *Class) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	delete(ct.classes, c.ID)
}

// Lookup returns the class with the given handle, or nil if it is unknown or
// has been reclaimed.
func (ct *ClassTable) Lookup(id ClassID) *Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	if wp, ok := ct.classes[id]; ok {
		return wp.Value()
	}
	return nil
}

// LookupName returns the most recently created live class with this name.
func (ct *ClassTable) LookupName(name string) *Class {
	var found *Class
	for _, c := range ct.All() {
		if c.Name == name {
			found = c
		}
	}
	return found
}

// All returns all live classes in creation order.
func (ct *ClassTable) All() []*Class {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	result := make([]*Class, 0, len(ct.classes))
	for _, wp := range ct.classes {
		if c := wp.Value(); c != nil {
			result = append(result, c)
		}
	}
	slices.SortFunc(result, func(a, b *Class) int {
		return int(a.ID) - int(b.ID)
	})
	return result
}

// Len returns the number of entries, including ones not yet swept.
func (ct *ClassTable) Len() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.classes)
}

// Sweep drops entries whose class has been reclaimed and returns how many
// were removed.
func (ct *ClassTable) Sweep() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	swept := 0
	for id, wp := range ct.classes {
		if wp.Value() == nil {
			delete(ct.classes, id)
			swept++
		}
	}
	return swept
}
