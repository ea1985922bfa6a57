package vm

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// AttrStore tests
// ---------------------------------------------------------------------------

func TestAttrStoreCompact(t *testing.T) {
	keys := newSharedKeys()
	a := newAttrStore(keys, 4)
	b := newAttrStore(keys, 4)

	a.Set("x", int64(1))
	a.Set("y", int64(2))
	b.Set("y", int64(3))

	if !a.Compact() || !b.Compact() {
		t.Fatal("stores should stay compact under the limit")
	}
	if v, ok := b.Get("y"); !ok || v != Value(int64(3)) {
		t.Errorf("b.y = %v, %v, want 3", v, ok)
	}
	if _, ok := b.Get("x"); ok {
		t.Error("b should not see a's x")
	}
	if got := a.Names(); !equalStrings(got, []string{"x", "y"}) {
		t.Errorf("a.Names = %v", got)
	}
	if b.Len() != 1 {
		t.Errorf("b.Len = %d, want 1", b.Len())
	}
}

func TestAttrStoreDegradesWhenFull(t *testing.T) {
	keys := newSharedKeys()
	s := newAttrStore(keys, 2)
	s.Set("a", int64(1))
	s.Set("b", int64(2))
	s.Set("c", int64(3))

	if s.Compact() {
		t.Error("store should degrade past the shared key limit")
	}
	for i, n := range []string{"a", "b", "c"} {
		if v, ok := s.Get(n); !ok || v != Value(int64(i+1)) {
			t.Errorf("%s = %v, %v", n, v, ok)
		}
	}
	if got := s.Names(); !equalStrings(got, []string{"a", "b", "c"}) {
		t.Errorf("Names = %v, want insertion order", got)
	}
}

func TestAttrStoreDeleteDegrades(t *testing.T) {
	s := newAttrStore(newSharedKeys(), 10)
	s.Set("a", int64(1))
	s.Set("b", int64(2))

	if !s.Delete("a") {
		t.Fatal("Delete(a) should succeed")
	}
	if s.Delete("a") {
		t.Error("second Delete(a) should fail")
	}
	if s.Compact() {
		t.Error("delete should convert the store to generic")
	}
	if got := s.Names(); !equalStrings(got, []string{"b"}) {
		t.Errorf("Names = %v, want [b]", got)
	}
}

func TestCompactLimitConfig(t *testing.T) {
	rt, err := New(&Config{CompactLimit: 1})
	if err != nil {
		t.Fatal(err)
	}
	c := mustClass(t, rt, "C", nil, nil)
	obj := mustCall(t, rt, c).(*Object)
	rt.SetAttr(obj, "a", int64(1))
	rt.SetAttr(obj, "b", int64(2))
	if obj.Store().Compact() {
		t.Error("store should degrade with a limit of 1")
	}
	if got := mustGet(t, rt, obj, "b"); got != Value(int64(2)) {
		t.Errorf("obj.b = %v, want 2", got)
	}
}

func TestObjectIdentity(t *testing.T) {
	rt := newTestRuntime(t)
	c := mustClass(t, rt, "C", nil, nil)
	a := mustCall(t, rt, c).(*Object)
	b := mustCall(t, rt, c).(*Object)

	if a.ID() == b.ID() {
		t.Error("instances should have distinct IDs")
	}
	if !Is(a, a) || Is(a, b) {
		t.Error("Is should compare identity")
	}
	if Is(Tuple{int64(1)}, Tuple{int64(1)}) {
		t.Error("tuples are never identical")
	}
	r, _ := rt.Repr(a)
	if !strings.HasPrefix(r, "<C object at 0x") {
		t.Errorf("Repr = %q", r)
	}
}

// ---------------------------------------------------------------------------
// ClassTable tests
// ---------------------------------------------------------------------------

func TestClassTable(t *testing.T) {
	ct := NewClassTable()
	a := &Class{ID: newClassID(), Name: "A"}
	b := &Class{ID: newClassID(), Name: "B"}
	ct.Register(a)
	ct.Register(b)

	if ct.Lookup(a.ID) != a {
		t.Error("Lookup(a) failed")
	}
	if ct.LookupName("B") != b {
		t.Error("LookupName(B) failed")
	}
	all := ct.All()
	if len(all) != 2 || all[0] != a || all[1] != b {
		t.Errorf("All = %v, want creation order", classNames(all))
	}

	ct.Unregister(a)
	if ct.Lookup(a.ID) != nil {
		t.Error("unregistered class should not be found")
	}
	if ct.Sweep() != 0 {
		t.Error("nothing should be swept while b is alive")
	}
	if ct.Len() != 1 {
		t.Errorf("Len = %d, want 1", ct.Len())
	}
}

func TestRuntimeRegistersBuiltins(t *testing.T) {
	rt := newTestRuntime(t)
	for _, name := range []string{"object", "type", "int", "bool", "float", "str", "tuple", "dict",
		"function", "property", "classmethod", "staticmethod", "NoneType"} {
		if rt.Classes.LookupName(name) == nil {
			t.Errorf("built-in class %s not registered", name)
		}
	}
	if rt.TypeOf(rt.TypeClass) != rt.TypeClass {
		t.Error("type should be its own metaclass")
	}
	if rt.TypeOf(rt.ObjectClass) != rt.TypeClass {
		t.Error("object's metaclass should be type")
	}
}

// ---------------------------------------------------------------------------
// Error tests
// ---------------------------------------------------------------------------

func TestErrorFormatting(t *testing.T) {
	err := AttributeError("C", "x", "'%s' object has no attribute '%s'", "C", "x")
	want := "attribute_not_found [C.x]: 'C' object has no attribute 'x'"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	conflict := &Error{Kind: KindMroConflict, Class: "Z", Detail: "bad", Candidates: []string{"X", "Y"}}
	if got := conflict.Error(); got != "mro_conflict [Z]: bad (X, Y)" {
		t.Errorf("Error() = %q", got)
	}
}

func TestErrorWrapping(t *testing.T) {
	base := ConstructionError("C", "boom")
	wrapped := fmt.Errorf("creating instance: %w", base)

	if !errors.Is(wrapped, ErrConstructionType) {
		t.Error("errors.Is should see through wrapping")
	}
	if KindOf(wrapped) != KindConstructionType {
		t.Errorf("KindOf = %q", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("KindOf(plain error) should be empty")
	}
	if !IsStopIteration(StopIteration()) {
		t.Error("IsStopIteration failed")
	}
}
