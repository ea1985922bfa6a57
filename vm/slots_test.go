package vm

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Slot and namespace equivalence tests
// ---------------------------------------------------------------------------

func TestSlotDefsOrdered(t *testing.T) {
	for i := 1; i < len(slotdefs); i++ {
		if slotdefs[i-1].slot > slotdefs[i].slot {
			t.Errorf("slotdefs[%d] (%s) out of order", i, slotdefs[i].name)
		}
	}
	names := SlotNamesFor(SlotAdd)
	if !equalStrings(names, []string{"__add__", "__radd__"}) {
		t.Errorf("SlotNamesFor(add) = %v", names)
	}
}

func TestNativeSlotInherited(t *testing.T) {
	rt := newTestRuntime(t)
	c := mustClass(t, rt, "C", nil, nil)

	if c.Slot(SlotRepr) != rt.ObjectClass.Slot(SlotRepr) {
		t.Errorf("repr slot = %s, want object's", implName(c.Slot(SlotRepr)))
	}
	if c.Slot(SlotNew) != rt.objectNew {
		t.Errorf("new slot = %s, want object_new", implName(c.Slot(SlotNew)))
	}
	if c.Slot(SlotInit) != rt.objectInit {
		t.Errorf("init slot = %s, want object_init", implName(c.Slot(SlotInit)))
	}
	if c.Slot(SlotAdd) != nil {
		t.Error("add slot should be empty")
	}
	if c.Slot(SlotNext) != nextNotImplemented {
		t.Errorf("next slot = %s, want the not-implemented stand-in", implName(c.Slot(SlotNext)))
	}
}

func TestOverrideInstallsTrampoline(t *testing.T) {
	rt := newTestRuntime(t)
	repr := constFn("__repr__", "<custom>")
	c := mustClass(t, rt, "C", nil, nsOf("__repr__", repr))
	obj := mustCall(t, rt, c)

	if c.Slot(SlotRepr) != Trampoline(SlotRepr) {
		t.Errorf("repr slot = %s, want trampoline", implName(c.Slot(SlotRepr)))
	}
	got, err := rt.Repr(obj)
	if err != nil || got != "<custom>" {
		t.Errorf("Repr = %q, %v, want <custom>", got, err)
	}

	sub := mustClass(t, rt, "Sub", []*Class{c}, nil)
	if got, _ := rt.Repr(mustCall(t, rt, sub)); got != "<custom>" {
		t.Errorf("subclass Repr = %q, want <custom>", got)
	}
}

func TestSlotFollowsNamespaceWrites(t *testing.T) {
	rt := newTestRuntime(t)
	c := mustClass(t, rt, "C", nil, nil)
	obj := mustCall(t, rt, c)

	if _, err := rt.Len(obj); err == nil {
		t.Fatal("Len should fail before __len__ exists")
	}
	if err := rt.SetAttr(c, "__len__", constFn("__len__", int64(4))); err != nil {
		t.Fatal(err)
	}
	n, err := rt.Len(obj)
	if err != nil || n != 4 {
		t.Errorf("Len = %d, %v, want 4", n, err)
	}

	if err := rt.DelAttr(c, "__len__"); err != nil {
		t.Fatal(err)
	}
	if c.Slot(SlotLen) != nil {
		t.Errorf("len slot = %s after delete, want absent", implName(c.Slot(SlotLen)))
	}
}

func TestUpdateSlotDoesNotCascade(t *testing.T) {
	rt := newTestRuntime(t)
	base := mustClass(t, rt, "Base", nil, nil)
	sub := mustClass(t, rt, "Sub", []*Class{base}, nil)

	if err := rt.SetAttr(base, "__len__", constFn("__len__", int64(1))); err != nil {
		t.Fatal(err)
	}
	if base.Slot(SlotLen) != Trampoline(SlotLen) {
		t.Errorf("Base len slot = %s, want trampoline", implName(base.Slot(SlotLen)))
	}
	if sub.Slot(SlotLen) != nil {
		t.Errorf("Sub len slot = %s, want unchanged (absent)", implName(sub.Slot(SlotLen)))
	}

	// Explicit resynchronization picks up the inherited method.
	rt.SynchronizeSlots(sub)
	if sub.Slot(SlotLen) != Trampoline(SlotLen) {
		t.Errorf("Sub len slot after sync = %s, want trampoline", implName(sub.Slot(SlotLen)))
	}
}

func TestUpdateSlotDirect(t *testing.T) {
	rt := newTestRuntime(t)
	c := mustClass(t, rt, "C", nil, nil)

	rt.mu.Lock()
	c.Dict.Set("__neg__", constFn("__neg__", "negated"))
	rt.mu.Unlock()
	if c.Slot(SlotNeg) != nil {
		t.Fatal("raw namespace write should not touch the slot")
	}
	rt.UpdateSlot(c, "__neg__")

	got, err := rt.Neg(mustCall(t, rt, c))
	if err != nil || got != "negated" {
		t.Errorf("Neg = %v, %v, want negated", got, err)
	}
}

func TestHashNone(t *testing.T) {
	rt := newTestRuntime(t)
	c := mustClass(t, rt, "C", nil, nsOf("__hash__", None))
	obj := mustCall(t, rt, c)

	if c.Slot(SlotHash) != hashNotImplemented {
		t.Errorf("hash slot = %s, want the poison stand-in", implName(c.Slot(SlotHash)))
	}
	_, err := rt.Hash(obj)
	wantKind(t, err, KindUnhashableType)

	// A subclass inherits unhashability through the namespace.
	sub := mustClass(t, rt, "Sub", []*Class{c}, nil)
	_, err = rt.Hash(mustCall(t, rt, sub))
	wantKind(t, err, KindUnhashableType)
}

func TestEqWithoutHashIsUnhashable(t *testing.T) {
	rt := newTestRuntime(t)
	eq := constFn("__eq__", true)
	c := mustClass(t, rt, "C", nil, nsOf("__eq__", eq))

	if v, _ := c.Dict.Get("__hash__"); !isNone(v) {
		t.Errorf("__hash__ = %v, want None", v)
	}
	_, err := rt.Hash(mustCall(t, rt, c))
	wantKind(t, err, KindUnhashableType)
}

func TestPlainClassHashable(t *testing.T) {
	rt := newTestRuntime(t)
	c := mustClass(t, rt, "C", nil, nil)
	a, b := mustCall(t, rt, c), mustCall(t, rt, c)

	ha, err := rt.Hash(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, _ := rt.Hash(b)
	if ha == hb {
		t.Error("distinct instances should hash by identity")
	}
	again, _ := rt.Hash(a)
	if ha != again {
		t.Error("hash should be stable")
	}
}

func TestWrapperDescriptorPublished(t *testing.T) {
	rt := newTestRuntime(t)
	d, ok := rt.IntClass.Dict.Get("__add__")
	if !ok {
		t.Fatal("int should publish __add__")
	}
	w, ok := d.(*WrapperDescriptor)
	if !ok {
		t.Fatalf("int.__add__ = %T, want *WrapperDescriptor", d)
	}
	if w.Impl() != rt.IntClass.Slot(SlotAdd) {
		t.Error("wrapper should expose int's own add slot")
	}

	bound := mustGet(t, rt, int64(2), "__add__")
	if got := mustCall(t, rt, bound, int64(3)); got != Value(int64(5)) {
		t.Errorf("(2).__add__(3) = %v, want 5", got)
	}
	if got := mustCall(t, rt, w, int64(2), int64(3)); got != Value(int64(5)) {
		t.Errorf("int.__add__(2, 3) = %v, want 5", got)
	}
	if got := mustCall(t, rt, bound, "x"); got != Value(NotImplemented) {
		t.Errorf("(2).__add__('x') = %v, want NotImplemented", got)
	}

	if v, _ := rt.DictClass.Dict.Get("__hash__"); !isNone(v) {
		t.Errorf("dict.__hash__ = %v, want None", v)
	}
}

func TestNativeSlotReusedWhenWrapperInherited(t *testing.T) {
	rt := newTestRuntime(t)
	// A heap class that copies object's own __repr__ wrapper keeps the
	// native implementation instead of the trampoline.
	wrapper, _ := rt.ObjectClass.Dict.Get("__repr__")
	c := mustClass(t, rt, "C", nil, nsOf("__repr__", wrapper))
	if c.Slot(SlotRepr) != rt.ObjectClass.Slot(SlotRepr) {
		t.Errorf("repr slot = %s, want object_repr", implName(c.Slot(SlotRepr)))
	}
}

func TestSuperWrapperCall(t *testing.T) {
	rt := newTestRuntime(t)
	initCalls := 0
	initFn := NewFunction("__init__", func(rt *Runtime, args []Value, kw Kwargs) (Value, error) {
		initCalls++
		parent, _ := rt.ObjectClass.Dict.Get("__init__")
		return rt.Call(parent, args[:1], nil)
	})
	c := mustClass(t, rt, "C", nil, nsOf("__init__", initFn))
	mustCall(t, rt, c)
	if initCalls != 1 {
		t.Errorf("__init__ ran %d times, want 1", initCalls)
	}
}

func TestNewSlotPanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewSlot with the wrong function type should panic")
		}
	}()
	NewSlot(SlotRepr, "bad", HashFunc(objectHash))
}

func TestOperatorMatchesNamedCall(t *testing.T) {
	rt := newTestRuntime(t)
	override := mustClass(t, rt, "Override", nil, nsOf("__len__", constFn("__len__", int64(3))))
	inherit := mustClass(t, rt, "Inherit", []*Class{override}, nil)
	disabled := mustClass(t, rt, "Disabled", nil, nsOf("__hash__", None))

	for _, c := range []*Class{override, inherit} {
		obj := mustCall(t, rt, c)
		n, err := rt.Len(obj)
		if err != nil {
			t.Fatalf("%s: Len: %v", c.Name, err)
		}
		named := mustCall(t, rt, mustGet(t, rt, obj, "__len__"))
		if named != Value(int64(n)) {
			t.Errorf("%s: Len = %d, __len__() = %v", c.Name, n, named)
		}

		r, _ := rt.Repr(obj)
		if named := mustCall(t, rt, mustGet(t, rt, obj, "__repr__")); named != Value(r) {
			t.Errorf("%s: Repr = %q, __repr__() = %v", c.Name, r, named)
		}
	}

	obj := mustCall(t, rt, disabled)
	_, err := rt.Hash(obj)
	wantKind(t, err, KindUnhashableType)
	if v := mustGet(t, rt, obj, "__hash__"); !isNone(v) {
		t.Errorf("Disabled().__hash__ = %v, want None", v)
	}
}
