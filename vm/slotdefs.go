package vm

import "fmt"

// ---------------------------------------------------------------------------
// Slot ids and slot function signatures
// ---------------------------------------------------------------------------

// SlotID indexes a class's slot table. The order is the slot offset order
// the static slotdefs table is sorted by.
type SlotID uint8

const (
	SlotRepr SlotID = iota
	SlotHash
	SlotCall
	SlotStr
	SlotGetattro
	SlotSetattro
	SlotRichCompare
	SlotIter
	SlotNext
	SlotDescrGet
	SlotDescrSet
	SlotInit
	SlotNew
	SlotAdd
	SlotSub
	SlotMul
	SlotNeg
	SlotBool
	SlotLen
	SlotGetItem
	SlotSetItem
	SlotContains
	NumSlots
)

var slotNames = [NumSlots]string{
	SlotRepr:        "repr",
	SlotHash:        "hash",
	SlotCall:        "call",
	SlotStr:         "str",
	SlotGetattro:    "getattro",
	SlotSetattro:    "setattro",
	SlotRichCompare: "richcompare",
	SlotIter:        "iter",
	SlotNext:        "iternext",
	SlotDescrGet:    "descr_get",
	SlotDescrSet:    "descr_set",
	SlotInit:        "init",
	SlotNew:         "new",
	SlotAdd:         "add",
	SlotSub:         "subtract",
	SlotMul:         "multiply",
	SlotNeg:         "negative",
	SlotBool:        "bool",
	SlotLen:         "length",
	SlotGetItem:     "subscript",
	SlotSetItem:     "ass_subscript",
	SlotContains:    "contains",
}

// String returns the slot's short name.
func (id SlotID) String() string {
	if id < NumSlots {
		return slotNames[id]
	}
	return fmt.Sprintf("slot(%d)", id)
}

// CompareOp is a rich comparison operator.
type CompareOp uint8

const (
	OpLT CompareOp = iota
	OpLE
	OpEQ
	OpNE
	OpGT
	OpGE
)

var compareDunders = [...]string{"__lt__", "__le__", "__eq__", "__ne__", "__gt__", "__ge__"}
var compareSymbols = [...]string{"<", "<=", "==", "!=", ">", ">="}

// swapped returns the operator to try on the reflected operand.
func (op CompareOp) swapped() CompareOp {
	return [...]CompareOp{OpGT, OpGE, OpEQ, OpNE, OpLT, OpLE}[op]
}

// String returns the operator symbol.
func (op CompareOp) String() string {
	return compareSymbols[op]
}

// Slot function signatures. A nil Value argument or result means absent:
// a nil value passed to a setter deletes, a nil instance passed to a
// descriptor getter means the attribute was reached through the class, and
// a nil result from an iternext function means the iterator is exhausted.
type (
	UnaryFunc       func(rt *Runtime, self Value) (Value, error)
	HashFunc        func(rt *Runtime, self Value) (int64, error)
	LenFunc         func(rt *Runtime, self Value) (int, error)
	InquiryFunc     func(rt *Runtime, self Value) (bool, error)
	BinaryFunc      func(rt *Runtime, left, right Value) (Value, error)
	ContainsFunc    func(rt *Runtime, self, item Value) (bool, error)
	RichCompareFunc func(rt *Runtime, self, other Value, op CompareOp) (Value, error)
	CallFunc        func(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error)
	GetattroFunc    func(rt *Runtime, obj Value, name string) (Value, error)
	SetattroFunc    func(rt *Runtime, obj Value, name string, value Value) error
	DescrGetFunc    func(rt *Runtime, descr, instance Value, owner *Class) (Value, error)
	DescrSetFunc    func(rt *Runtime, descr, instance, value Value) error
	SetItemFunc     func(rt *Runtime, self, key, value Value) error
	InitFunc        func(rt *Runtime, self Value, args []Value, kw Kwargs) error
	NewFunc         func(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error)
)

// checkSlotFunc verifies fn has the signature the slot expects.
func checkSlotFunc(id SlotID, fn any) bool {
	switch id {
	case SlotRepr, SlotStr, SlotIter, SlotNext, SlotNeg:
		_, ok := fn.(UnaryFunc)
		return ok
	case SlotHash:
		_, ok := fn.(HashFunc)
		return ok
	case SlotLen:
		_, ok := fn.(LenFunc)
		return ok
	case SlotBool:
		_, ok := fn.(InquiryFunc)
		return ok
	case SlotAdd, SlotSub, SlotMul, SlotGetItem:
		_, ok := fn.(BinaryFunc)
		return ok
	case SlotContains:
		_, ok := fn.(ContainsFunc)
		return ok
	case SlotRichCompare:
		_, ok := fn.(RichCompareFunc)
		return ok
	case SlotCall:
		_, ok := fn.(CallFunc)
		return ok
	case SlotGetattro:
		_, ok := fn.(GetattroFunc)
		return ok
	case SlotSetattro:
		_, ok := fn.(SetattroFunc)
		return ok
	case SlotDescrGet:
		_, ok := fn.(DescrGetFunc)
		return ok
	case SlotDescrSet:
		_, ok := fn.(DescrSetFunc)
		return ok
	case SlotSetItem:
		_, ok := fn.(SetItemFunc)
		return ok
	case SlotInit:
		_, ok := fn.(InitFunc)
		return ok
	case SlotNew:
		_, ok := fn.(NewFunc)
		return ok
	}
	return false
}

// ---------------------------------------------------------------------------
// SlotImpl: a slot table entry
// ---------------------------------------------------------------------------

// SlotKind classifies a slot table entry.
type SlotKind uint8

const (
	SlotNative  SlotKind = iota // a Go implementation
	SlotGeneric                 // a trampoline that re-resolves the dunder on every call
	SlotPoison                  // the hash slot of a class that disabled hashing
	SlotNoNext                  // the iternext stand-in of a class without __next__
)

var slotKindNames = [...]string{"native", "generic", "poison", "nonext"}

// String returns the kind's name.
func (k SlotKind) String() string {
	return slotKindNames[k]
}

// SlotImpl is one slot table entry. Entries are compared by pointer: two
// classes share an implementation iff they hold the same *SlotImpl.
type SlotImpl struct {
	Slot SlotID
	Name string
	Kind SlotKind
	Fn   any
}

// NewSlot creates a native slot implementation. It panics if fn does not
// have the signature slot id expects.
func NewSlot(id SlotID, name string, fn any) *SlotImpl {
	if !checkSlotFunc(id, fn) {
		panic(fmt.Sprintf("vm.NewSlot: %T is not a valid %s function", fn, id))
	}
	return &SlotImpl{Slot: id, Name: name, Kind: SlotNative, Fn: fn}
}

// ---------------------------------------------------------------------------
// The static slotdefs table
// ---------------------------------------------------------------------------

// wrapperFunc exposes a native slot implementation as a named method.
type wrapperFunc func(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error)

// slotDef maps a dunder name onto a slot.
type slotDef struct {
	name    string
	slot    SlotID
	wrapper wrapperFunc // nil: the name has no wrapper descriptor
	op      CompareOp   // rich comparison wrappers
	doc     string
}

// slotdefs is ordered by slot. Several names may share one slot; they are
// always adjacent.
var slotdefs []*slotDef

// slotdefsByName maps a dunder name to its entries.
var slotdefsByName map[string][]*slotDef

// trampolines holds the generic implementation of each slot.
var trampolines [NumSlots]*SlotImpl

// Stand-ins for disabled operations.
var (
	hashNotImplemented = &SlotImpl{Slot: SlotHash, Name: "hash_not_implemented", Kind: SlotPoison,
		Fn: HashFunc(func(rt *Runtime, self Value) (int64, error) {
			return 0, UnhashableError(rt.TypeName(self))
		})}
	nextNotImplemented = &SlotImpl{Slot: SlotNext, Name: "next_not_implemented", Kind: SlotNoNext,
		Fn: UnaryFunc(func(rt *Runtime, self Value) (Value, error) {
			return nil, TypeErrorFor(rt.TypeName(self), "'%s' object is not an iterator", rt.TypeName(self))
		})}
)

func init() {
	def := func(name string, slot SlotID, wrapper wrapperFunc, doc string) *slotDef {
		return &slotDef{name: name, slot: slot, wrapper: wrapper, doc: doc}
	}
	cmp := func(op CompareOp) *slotDef {
		d := def(compareDunders[op], SlotRichCompare, wrapRichCompare, "Return self"+compareSymbols[op]+"value.")
		d.op = op
		return d
	}

	slotdefs = []*slotDef{
		def("__repr__", SlotRepr, wrapUnary, "Return repr(self)."),
		def("__hash__", SlotHash, wrapHash, "Return hash(self)."),
		def("__call__", SlotCall, wrapCall, "Call self as a function."),
		def("__str__", SlotStr, wrapUnary, "Return str(self)."),
		def("__getattribute__", SlotGetattro, wrapGetattr, "Return getattr(self, name)."),
		def("__getattr__", SlotGetattro, nil, ""),
		def("__setattr__", SlotSetattro, wrapSetattr, "Implement setattr(self, name, value)."),
		def("__delattr__", SlotSetattro, wrapDelattr, "Implement delattr(self, name)."),
		cmp(OpLT),
		cmp(OpLE),
		cmp(OpEQ),
		cmp(OpNE),
		cmp(OpGT),
		cmp(OpGE),
		def("__iter__", SlotIter, wrapUnary, "Implement iter(self)."),
		def("__next__", SlotNext, wrapNext, "Implement next(self)."),
		def("__get__", SlotDescrGet, wrapDescrGet, "Return an attribute of instance, which is of type owner."),
		def("__set__", SlotDescrSet, wrapDescrSet, "Set an attribute of instance to value."),
		def("__delete__", SlotDescrSet, wrapDescrDelete, "Delete an attribute of instance."),
		def("__init__", SlotInit, wrapInit, "Initialize self."),
		def("__new__", SlotNew, nil, ""),
		def("__add__", SlotAdd, wrapBinaryLeft, "Return self+value."),
		def("__radd__", SlotAdd, wrapBinaryRight, "Return value+self."),
		def("__sub__", SlotSub, wrapBinaryLeft, "Return self-value."),
		def("__rsub__", SlotSub, wrapBinaryRight, "Return value-self."),
		def("__mul__", SlotMul, wrapBinaryLeft, "Return self*value."),
		def("__rmul__", SlotMul, wrapBinaryRight, "Return value*self."),
		def("__neg__", SlotNeg, wrapUnary, "-self"),
		def("__bool__", SlotBool, wrapInquiry, "True if self else False"),
		def("__len__", SlotLen, wrapLen, "Return len(self)."),
		def("__getitem__", SlotGetItem, wrapBinaryLeft, "Return self[key]."),
		def("__setitem__", SlotSetItem, wrapSetItem, "Set self[key] to value."),
		def("__delitem__", SlotSetItem, wrapDelItem, "Delete self[key]."),
		def("__contains__", SlotContains, wrapContains, "Return key in self."),
	}

	slotdefsByName = make(map[string][]*slotDef)
	for i, d := range slotdefs {
		if i > 0 && slotdefs[i-1].slot > d.slot {
			panic("vm: slotdefs not ordered by slot")
		}
		slotdefsByName[d.name] = append(slotdefsByName[d.name], d)
	}

	trampolines = [NumSlots]*SlotImpl{
		SlotRepr:        generic(SlotRepr, UnaryFunc(slotRepr)),
		SlotHash:        generic(SlotHash, HashFunc(slotHash)),
		SlotCall:        generic(SlotCall, CallFunc(slotCall)),
		SlotStr:         generic(SlotStr, UnaryFunc(slotStr)),
		SlotGetattro:    generic(SlotGetattro, GetattroFunc(slotGetattrHook)),
		SlotSetattro:    generic(SlotSetattro, SetattroFunc(slotSetattro)),
		SlotRichCompare: generic(SlotRichCompare, RichCompareFunc(slotRichCompare)),
		SlotIter:        generic(SlotIter, UnaryFunc(slotIter)),
		SlotNext:        generic(SlotNext, UnaryFunc(slotNext)),
		SlotDescrGet:    generic(SlotDescrGet, DescrGetFunc(slotDescrGet)),
		SlotDescrSet:    generic(SlotDescrSet, DescrSetFunc(slotDescrSet)),
		SlotInit:        generic(SlotInit, InitFunc(slotInit)),
		SlotNew:         generic(SlotNew, NewFunc(slotNew)),
		SlotAdd:         generic(SlotAdd, BinaryFunc(binarySlot(SlotAdd, "__add__", "__radd__"))),
		SlotSub:         generic(SlotSub, BinaryFunc(binarySlot(SlotSub, "__sub__", "__rsub__"))),
		SlotMul:         generic(SlotMul, BinaryFunc(binarySlot(SlotMul, "__mul__", "__rmul__"))),
		SlotNeg:         generic(SlotNeg, UnaryFunc(slotNeg)),
		SlotBool:        generic(SlotBool, InquiryFunc(slotBool)),
		SlotLen:         generic(SlotLen, LenFunc(slotLen)),
		SlotGetItem:     generic(SlotGetItem, BinaryFunc(slotGetItem)),
		SlotSetItem:     generic(SlotSetItem, SetItemFunc(slotSetItem)),
		SlotContains:    generic(SlotContains, ContainsFunc(slotContains)),
	}
}

func generic(id SlotID, fn any) *SlotImpl {
	return &SlotImpl{Slot: id, Name: "slot_" + id.String(), Kind: SlotGeneric, Fn: fn}
}

// Trampoline returns the generic implementation of slot id.
func Trampoline(id SlotID) *SlotImpl {
	return trampolines[id]
}

// SlotNamesFor returns the dunder names that map onto slot id.
func SlotNamesFor(id SlotID) []string {
	var names []string
	for _, d := range slotdefs {
		if d.slot == id {
			names = append(names, d.name)
		}
	}
	return names
}
