package vm

import (
	"slices"
	"sync/atomic"
	"weak"
)

// ---------------------------------------------------------------------------
// Class: the class (type) record
// ---------------------------------------------------------------------------

// ClassID is a stable handle for a class. IDs are never reused.
type ClassID uint32

var nextClassID atomic.Uint32

func newClassID() ClassID {
	return ClassID(nextClassID.Add(1))
}

// ClassFlags describe how a class was created and what it permits.
type ClassFlags uint32

const (
	FlagHeapType  ClassFlags = 1 << iota // created at run time by NewClass
	FlagBaseType                         // may be used as a base class
	FlagImmutable                        // namespace may not be written through SetAttr
	FlagReady                            // finalized
	FlagNoInstances                      // may not be instantiated
)

// Class represents a class (type).
//
// Bases, MRO, Base and Layout are fixed once the class is finalized. The
// namespace may still change; every write of a dunder name re-synchronizes
// the matching slot. Namespace writes and slot stores happen under the
// owning runtime's lock; slot reads are lock-free.
type Class struct {
	ID    ClassID
	Name  string
	Doc   string
	Flags ClassFlags

	meta  *Class   // The class of this class
	Bases []*Class // Declared bases (owning)
	Base  *Class   // Best base: fixes layout and default slot inheritance
	MRO   []*Class // Linearized ancestors, MRO[0] == the class itself

	Dict   *Namespace // Named attributes
	Layout Layout     // Instance layout
	solid  *Class     // Solid base

	slots [NumSlots]atomic.Pointer[SlotImpl]

	// Non-owning back references to known subclasses.
	subclasses map[ClassID]weak.Pointer[Class]

	// Shared key table for compact instance attribute stores.
	keys *sharedKeys
}

// Meta returns the class of this class (its metaclass).
func (c *Class) Meta() *Class {
	return c.meta
}

// Slot returns the slot table entry for id, or nil if the slot is empty.
func (c *Class) Slot(id SlotID) *SlotImpl {
	return c.slots[id].Load()
}

// setSlot replaces a slot table entry. Callers hold the runtime lock.
func (c *Class) setSlot(id SlotID, impl *SlotImpl) {
	c.slots[id].Store(impl)
}

// SolidBase returns the most derived ancestor that fixes this class's
// instance layout.
func (c *Class) SolidBase() *Class {
	return c.solid
}

// IsHeapType reports whether the class was created at run time.
func (c *Class) IsHeapType() bool {
	return c.Flags&FlagHeapType != 0
}

// IsReady reports whether the class has been finalized.
func (c *Class) IsReady() bool {
	return c.Flags&FlagReady != 0
}

// IsSubclassOf returns true if c is a subclass of other (or is the same class).
func (c *Class) IsSubclassOf(other *Class) bool {
	if c == other {
		return true
	}
	if c.MRO != nil {
		for _, m := range c.MRO {
			if m == other {
				return true
			}
		}
		return false
	}
	// Not finalized yet: walk the best-base chain.
	for current := c.Base; current != nil; current = current.Base {
		if current == other {
			return true
		}
	}
	return false
}

// IsSuperclassOf returns true if c is a superclass of other (or is the same class).
func (c *Class) IsSuperclassOf(other *Class) bool {
	return other.IsSubclassOf(c)
}

// MRONames returns the names of the classes in the MRO.
func (c *Class) MRONames() []string {
	names := make([]string, len(c.MRO))
	for i, m := range c.MRO {
		names[i] = m.Name
	}
	return names
}

// String implements the Stringer interface.
func (c *Class) String() string {
	return c.Name
}

// ---------------------------------------------------------------------------
// Subclass registry
// ---------------------------------------------------------------------------

// addSubclass records sub as a subclass of c. Callers hold the runtime lock.
func (c *Class) addSubclass(sub *Class) {
	if c.subclasses == nil {
		c.subclasses = make(map[ClassID]weak.Pointer[Class])
	}
	c.subclasses[sub.ID] = weak.Make(sub)
}

// removeSubclass drops sub from c's registry. Callers hold the runtime lock.
func (c *Class) removeSubclass(sub *Class) {
	delete(c.subclasses, sub.ID)
}

// liveSubclasses returns the still-reachable direct subclasses in creation
// order and drops dead entries. Callers hold the runtime lock.
func (c *Class) liveSubclasses() []*Class {
	var result []*Class
	for id, wp := range c.subclasses {
		if sub := wp.Value(); sub != nil {
			result = append(result, sub)
		} else {
			delete(c.subclasses, id)
		}
	}
	slices.SortFunc(result, func(a, b *Class) int {
		return int(a.ID) - int(b.ID)
	})
	return result
}

// ---------------------------------------------------------------------------
// Namespace
// ---------------------------------------------------------------------------

// Namespace is an insertion-ordered name -> value mapping.
// It is not safe for concurrent use on its own; class namespaces are guarded
// by the runtime lock.
type Namespace struct {
	names  []string
	values map[string]Value
}

// NewNamespace creates an empty namespace.
func NewNamespace() *Namespace {
	return &Namespace{values: make(map[string]Value)}
}

// Get returns the value bound to name.
func (ns *Namespace) Get(name string) (Value, bool) {
	v, ok := ns.values[name]
	return v, ok
}

// Has returns true if name is bound.
func (ns *Namespace) Has(name string) bool {
	_, ok := ns.values[name]
	return ok
}

// Set binds name to value, keeping the original position of an existing name.
func (ns *Namespace) Set(name string, value Value) {
	if _, ok := ns.values[name]; !ok {
		ns.names = append(ns.names, name)
	}
	ns.values[name] = value
}

// Delete unbinds name. Returns false if it was not bound.
func (ns *Namespace) Delete(name string) bool {
	if _, ok := ns.values[name]; !ok {
		return false
	}
	delete(ns.values, name)
	ns.names = slices.DeleteFunc(ns.names, func(n string) bool { return n == name })
	return true
}

// Names returns the bound names in insertion order.
func (ns *Namespace) Names() []string {
	return slices.Clone(ns.names)
}

// Len returns the number of bound names.
func (ns *Namespace) Len() int {
	return len(ns.names)
}

// Copy returns a shallow copy.
func (ns *Namespace) Copy() *Namespace {
	c := &Namespace{
		names:  slices.Clone(ns.names),
		values: make(map[string]Value, len(ns.values)),
	}
	for k, v := range ns.values {
		c.values[k] = v
	}
	return c
}

// isDunder reports whether name has the __name__ form.
func isDunder(name string) bool {
	return len(name) > 4 && name[:2] == "__" && name[len(name)-2:] == "__"
}
