package vm

// ---------------------------------------------------------------------------
// Instance layouts and solid bases
// ---------------------------------------------------------------------------

// Basis names the Go representation an instance is stored in.
type Basis uint8

const (
	BasisObject Basis = iota // *Object
	BasisClass               // *Class
	BasisNative              // a Go value owned by a native class (int64, string, ...)
)

// Layout describes the storage every instance of a class carries.
type Layout struct {
	Basis     Basis
	NumFields int      // Fixed member fields (inherited ones included)
	Members   []string // Member field names this class added
	HasDict   bool     // Instances carry an attribute store
}

// extraIvars reports whether c adds instance storage beyond base.
// The attribute store does not count: adding one never changes layout
// compatibility.
func extraIvars(c, base *Class) bool {
	return c.Layout.Basis != base.Layout.Basis || c.Layout.NumFields != base.Layout.NumFields
}

// solidBase computes the solid base of c from its best base.
// The root class is its own solid base.
func solidBase(c *Class) *Class {
	if c.Base == nil {
		return c
	}
	base := c.Base.solid
	if base == nil {
		base = solidBase(c.Base)
	}
	if extraIvars(c, base) {
		return c
	}
	return base
}

// ResolveBestBase chooses the base that fixes the layout of a class with the
// given declared bases: the one whose solid base is a subtype of every other
// candidate's solid base.
//
// Every base must be a finalized class flagged as a base type.
func (rt *Runtime) ResolveBestBase(bases []Value) (*Class, error) {
	classes := make([]*Class, len(bases))
	for i, b := range bases {
		c, ok := b.(*Class)
		if !ok {
			return nil, ConstructionError("", "bases must be types, not '%s'", rt.TypeName(b))
		}
		classes[i] = c
	}
	return rt.bestBase(classes)
}

func (rt *Runtime) bestBase(bases []*Class) (*Class, error) {
	return rt.bestBaseOf(bases, false)
}

// bestBaseOf is bestBase; native class definitions may derive from classes
// not flagged as base types.
func (rt *Runtime) bestBaseOf(bases []*Class, native bool) (*Class, error) {
	if len(bases) == 0 {
		return rt.ObjectClass, nil
	}

	var base, winner *Class
	for _, b := range bases {
		if !b.IsReady() {
			return nil, ConstructionError(b.Name, "base class '%s' is not finalized", b.Name)
		}
		if !native && b.Flags&FlagBaseType == 0 {
			return nil, ConstructionError(b.Name, "type '%s' is not an acceptable base type", b.Name)
		}
		candidate := b.solid
		switch {
		case winner == nil:
			winner = candidate
			base = b
		case winner.IsSubclassOf(candidate):
			// current winner already covers this layout
		case candidate.IsSubclassOf(winner):
			winner = candidate
			base = b
		default:
			return nil, &Error{
				Kind:       KindLayoutConflict,
				Class:      b.Name,
				Detail:     "multiple bases have instance lay-out conflict",
				Candidates: []string{winner.Name, candidate.Name},
			}
		}
	}
	return base, nil
}

// calculateMetaclass returns the most derived metaclass among meta and the
// metaclasses of bases.
func (rt *Runtime) calculateMetaclass(meta *Class, bases []*Class) (*Class, error) {
	winner := meta
	for _, b := range bases {
		tmp := b.meta
		switch {
		case winner.IsSubclassOf(tmp):
			continue
		case tmp.IsSubclassOf(winner):
			winner = tmp
		default:
			return nil, &Error{
				Kind:       KindMetaclassConflict,
				Class:      b.Name,
				Detail:     "the metaclass of a derived class must be a (non-strict) subclass of the metaclasses of all its bases",
				Candidates: []string{winner.Name, tmp.Name},
			}
		}
	}
	return winner, nil
}

// ---------------------------------------------------------------------------
// __class__ assignment
// ---------------------------------------------------------------------------

// layoutBase walks up from c while the best base has the same layout.
func layoutBase(c *Class) *Class {
	for c.Base != nil && !extraIvars(c, c.Base) && c.Layout.HasDict == c.Base.Layout.HasDict {
		c = c.Base
	}
	return c
}

func sameMembersAdded(a, b *Class) bool {
	if a.Layout.HasDict != b.Layout.HasDict || len(a.Layout.Members) != len(b.Layout.Members) {
		return false
	}
	for i := range a.Layout.Members {
		if a.Layout.Members[i] != b.Layout.Members[i] {
			return false
		}
	}
	return true
}

// compatibleForAssignment reports whether an instance of from may have its
// class changed to to.
func compatibleForAssignment(from, to *Class) error {
	if !from.IsHeapType() || !to.IsHeapType() {
		return TypeError("__class__ assignment only supported for heap types")
	}
	newBase, oldBase := layoutBase(to), layoutBase(from)
	if newBase != oldBase && (newBase.Base != oldBase.Base || !sameMembersAdded(newBase, oldBase)) {
		return &Error{
			Kind:   KindLayoutConflict,
			Class:  to.Name,
			Detail: "__class__ assignment: '" + to.Name + "' object layout differs from '" + from.Name + "'",
		}
	}
	return nil
}
