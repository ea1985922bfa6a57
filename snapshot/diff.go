package snapshot

import (
	"fmt"
	"slices"
	"strings"
)

// Change is one difference between two snapshots. Class handles are not
// compared: they differ between runtimes even for identical hierarchies.
type Change struct {
	Class string
	Field string
	Old   string
	New   string
}

func (c Change) String() string {
	return fmt.Sprintf("%s.%s: %s -> %s", c.Class, c.Field, c.Old, c.New)
}

// Diff lists the differences from a to b, class by class in a's order
// followed by classes only b has.
func Diff(a, b *Snapshot) []Change {
	var changes []Change
	for _, ra := range a.Classes {
		rb := b.Class(ra.Name)
		if rb == nil {
			changes = append(changes, Change{Class: ra.Name, Field: "class", Old: "present", New: "absent"})
			continue
		}
		changes = append(changes, diffClass(&ra, rb)...)
	}
	for _, rb := range b.Classes {
		if a.Class(rb.Name) == nil {
			changes = append(changes, Change{Class: rb.Name, Field: "class", Old: "absent", New: "present"})
		}
	}
	return changes
}

func diffClass(a, b *ClassRecord) []Change {
	var changes []Change
	field := func(name, before, after string) {
		if before != after {
			changes = append(changes, Change{Class: a.Name, Field: name, Old: before, New: after})
		}
	}
	list := func(names []string) string {
		return "[" + strings.Join(names, " ") + "]"
	}

	field("meta", a.Meta, b.Meta)
	field("bases", list(a.Bases), list(b.Bases))
	field("mro", list(a.MRO), list(b.MRO))
	field("base", a.Base, b.Base)
	field("solid_base", a.SolidBase, b.SolidBase)
	field("basis", a.Basis, b.Basis)
	field("fields", fmt.Sprint(a.NumFields), fmt.Sprint(b.NumFields))
	field("members", list(a.Members), list(b.Members))
	field("dict", fmt.Sprint(a.HasDict), fmt.Sprint(b.HasDict))

	for _, slot := range slotNames(a, b) {
		field("slot."+slot, slotDesc(a, slot), slotDesc(b, slot))
	}
	return changes
}

func slotDesc(r *ClassRecord, slot string) string {
	for _, sr := range r.Slots {
		if sr.Slot == slot {
			return sr.State + ":" + sr.Impl
		}
	}
	return StateAbsent
}

func slotNames(a, b *ClassRecord) []string {
	var names []string
	for _, r := range []*ClassRecord{a, b} {
		for _, sr := range r.Slots {
			if !slices.Contains(names, sr.Slot) {
				names = append(names, sr.Slot)
			}
		}
	}
	return names
}
