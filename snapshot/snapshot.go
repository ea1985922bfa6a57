// Package snapshot records the structure of classes (bases, MRO, layout
// and slot table) so it can be stored, compared and inspected.
package snapshot

import (
	"github.com/chazu/dunder/vm"
)

// Slot states. Absent slots are not recorded.
const (
	StateAbsent = "absent"
)

// SlotRecord is one populated slot table entry.
type SlotRecord struct {
	Slot  string `cbor:"1,keyasint"`
	State string `cbor:"2,keyasint"` // native, generic, poison or nonext
	Impl  string `cbor:"3,keyasint"`
}

// ClassRecord describes one class.
type ClassRecord struct {
	Name      string       `cbor:"1,keyasint"`
	ID        uint32       `cbor:"2,keyasint"`
	Meta      string       `cbor:"3,keyasint"`
	Bases     []string     `cbor:"4,keyasint,omitempty"`
	MRO       []string     `cbor:"5,keyasint"`
	Base      string       `cbor:"6,keyasint,omitempty"`
	SolidBase string       `cbor:"7,keyasint,omitempty"`
	Basis     string       `cbor:"8,keyasint"`
	NumFields int          `cbor:"9,keyasint"`
	Members   []string     `cbor:"10,keyasint,omitempty"`
	HasDict   bool         `cbor:"11,keyasint"`
	Heap      bool         `cbor:"12,keyasint"`
	Slots     []SlotRecord `cbor:"13,keyasint,omitempty"`
}

// Snapshot is a set of class records in the order they were taken.
type Snapshot struct {
	Classes []ClassRecord `cbor:"1,keyasint"`
}

// Take records the given classes, or every live class in rt when none are
// given. Only fixed structure and atomically published slots are read, so
// no runtime lock is needed.
func Take(rt *vm.Runtime, classes ...*vm.Class) *Snapshot {
	if len(classes) == 0 {
		classes = rt.Classes.All()
	}
	s := &Snapshot{Classes: make([]ClassRecord, 0, len(classes))}
	for _, c := range classes {
		s.Classes = append(s.Classes, Record(c))
	}
	return s
}

// Record describes a single class.
func Record(c *vm.Class) ClassRecord {
	r := ClassRecord{
		Name:      c.Name,
		ID:        uint32(c.ID),
		MRO:       c.MRONames(),
		Basis:     basisName(c.Layout.Basis),
		NumFields: c.Layout.NumFields,
		Members:   c.Layout.Members,
		HasDict:   c.Layout.HasDict,
		Heap:      c.IsHeapType(),
	}
	if m := c.Meta(); m != nil {
		r.Meta = m.Name
	}
	for _, b := range c.Bases {
		r.Bases = append(r.Bases, b.Name)
	}
	if c.Base != nil {
		r.Base = c.Base.Name
	}
	if sb := c.SolidBase(); sb != nil {
		r.SolidBase = sb.Name
	}
	for id := vm.SlotID(0); id < vm.NumSlots; id++ {
		impl := c.Slot(id)
		if impl == nil {
			continue
		}
		r.Slots = append(r.Slots, SlotRecord{
			Slot:  id.String(),
			State: impl.Kind.String(),
			Impl:  impl.Name,
		})
	}
	return r
}

// Class returns the record named name, or nil.
func (s *Snapshot) Class(name string) *ClassRecord {
	for i := range s.Classes {
		if s.Classes[i].Name == name {
			return &s.Classes[i]
		}
	}
	return nil
}

// SlotState returns the state of the named slot ("absent" if unpopulated).
func (r *ClassRecord) SlotState(slot string) string {
	for _, sr := range r.Slots {
		if sr.Slot == slot {
			return sr.State
		}
	}
	return StateAbsent
}

func basisName(b vm.Basis) string {
	switch b {
	case vm.BasisObject:
		return "object"
	case vm.BasisClass:
		return "class"
	case vm.BasisNative:
		return "native"
	}
	return "unknown"
}
