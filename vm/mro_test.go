package vm

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// C3 linearization tests
// ---------------------------------------------------------------------------

func TestMROSingleInheritance(t *testing.T) {
	rt := newTestRuntime(t)
	a := mustClass(t, rt, "A", nil, nil)
	b := mustClass(t, rt, "B", []*Class{a}, nil)

	want := []string{"B", "A", "object"}
	if got := b.MRONames(); !equalStrings(got, want) {
		t.Errorf("MRO = %v, want %v", got, want)
	}
	if b.MRO[0] != b {
		t.Error("MRO[0] should be the class itself")
	}
}

func TestMRODiamond(t *testing.T) {
	rt := newTestRuntime(t)
	d := mustClass(t, rt, "D", nil, nil)
	b := mustClass(t, rt, "B", []*Class{d}, nil)
	c := mustClass(t, rt, "C", []*Class{d}, nil)
	e := mustClass(t, rt, "E", []*Class{b, c}, nil)

	want := []string{"E", "B", "C", "D", "object"}
	if got := e.MRONames(); !equalStrings(got, want) {
		t.Errorf("MRO = %v, want %v", got, want)
	}
}

func TestMROClassicExample(t *testing.T) {
	rt := newTestRuntime(t)
	o := rt.ObjectClass
	f := mustClass(t, rt, "F", []*Class{o}, nil)
	e := mustClass(t, rt, "E", []*Class{o}, nil)
	d := mustClass(t, rt, "D", []*Class{o}, nil)
	c := mustClass(t, rt, "C", []*Class{d, f}, nil)
	b := mustClass(t, rt, "B", []*Class{d, e}, nil)
	a := mustClass(t, rt, "A", []*Class{b, c}, nil)

	want := []string{"A", "B", "C", "D", "E", "F", "object"}
	if got := a.MRONames(); !equalStrings(got, want) {
		t.Errorf("MRO = %v, want %v", got, want)
	}
}

func TestMROMonotonic(t *testing.T) {
	rt := newTestRuntime(t)
	x := mustClass(t, rt, "X", nil, nil)
	y := mustClass(t, rt, "Y", nil, nil)
	a := mustClass(t, rt, "A", []*Class{x, y}, nil)
	b := mustClass(t, rt, "B", []*Class{a}, nil)

	// Every base's MRO appears in the subclass MRO in the same order.
	pos := make(map[*Class]int)
	for i, c := range b.MRO {
		pos[c] = i
	}
	for _, base := range b.Bases {
		for i := 1; i < len(base.MRO); i++ {
			if pos[base.MRO[i-1]] >= pos[base.MRO[i]] {
				t.Errorf("%s precedes %s in %s but not in %s",
					base.MRO[i-1].Name, base.MRO[i].Name, base.Name, b.Name)
			}
		}
	}
}

func TestMROConflict(t *testing.T) {
	rt := newTestRuntime(t)
	x := mustClass(t, rt, "X", nil, nil)
	y := mustClass(t, rt, "Y", nil, nil)
	a := mustClass(t, rt, "A", []*Class{x, y}, nil)
	b := mustClass(t, rt, "B", []*Class{y, x}, nil)

	_, err := rt.NewClass("Z", []*Class{a, b}, nil)
	wantKind(t, err, KindMroConflict)
	if !errors.Is(err, ErrMroConflict) {
		t.Error("errors.Is(err, ErrMroConflict) should be true")
	}

	var e *Error
	errors.As(err, &e)
	if !equalStrings(e.Candidates, []string{"X", "Y"}) {
		t.Errorf("Candidates = %v, want [X Y]", e.Candidates)
	}
	if rt.Classes.LookupName("Z") != nil {
		t.Error("failed class should not be registered")
	}
	for _, sub := range a.liveSubclasses() {
		if sub.Name == "Z" {
			t.Error("failed class should not be recorded as a subclass of A")
		}
	}
}

func TestMROObjectBeforeSubclass(t *testing.T) {
	rt := newTestRuntime(t)
	a := mustClass(t, rt, "A", nil, nil)

	_, err := rt.NewClass("Bad", []*Class{rt.ObjectClass, a}, nil)
	wantKind(t, err, KindMroConflict)
}

func TestDuplicateBase(t *testing.T) {
	rt := newTestRuntime(t)
	a := mustClass(t, rt, "A", nil, nil)

	_, err := rt.NewClass("B", []*Class{a, a}, nil)
	wantKind(t, err, KindDuplicateBase)
	if !errors.Is(err, ErrDuplicateBase) {
		t.Error("errors.Is(err, ErrDuplicateBase) should be true")
	}
}

func TestComputeMROIsPure(t *testing.T) {
	rt := newTestRuntime(t)
	a := mustClass(t, rt, "A", nil, nil)
	b := mustClass(t, rt, "B", []*Class{a}, nil)

	mro, err := rt.ComputeMRO(b)
	if err != nil {
		t.Fatalf("ComputeMRO: %v", err)
	}
	mro[0] = a
	if b.MRO[0] != b {
		t.Error("ComputeMRO result should not alias the class MRO")
	}
}

// ---------------------------------------------------------------------------
// Metaclass mro() override
// ---------------------------------------------------------------------------

func TestMetaclassMROOverride(t *testing.T) {
	rt := newTestRuntime(t)
	a := mustClass(t, rt, "A", nil, nil)

	reversed := NewFunction("mro", func(rt *Runtime, args []Value, kw Kwargs) (Value, error) {
		cls := args[0].(*Class)
		mro, err := rt.ComputeMRO(cls)
		if err != nil {
			return nil, err
		}
		// Keep the class first; drop nothing, just reorder the tail.
		out := Tuple{mro[0]}
		for i := len(mro) - 1; i >= 1; i-- {
			out = append(out, mro[i])
		}
		return out, nil
	})
	meta := mustClass(t, rt, "Meta", []*Class{rt.TypeClass}, nsOf("mro", reversed))

	c, err := rt.DefineClass(meta, "C", []*Class{a}, nil, nil)
	if err != nil {
		t.Fatalf("DefineClass: %v", err)
	}
	want := []string{"C", "object", "A"}
	if got := c.MRONames(); !equalStrings(got, want) {
		t.Errorf("MRO = %v, want %v", got, want)
	}
	if c.Meta() != meta {
		t.Errorf("Meta = %v, want Meta", c.Meta())
	}
}

func TestMetaclassMROOverrideRejectsNonClass(t *testing.T) {
	rt := newTestRuntime(t)
	bad := constFn("mro", Tuple{int64(1)})
	meta := mustClass(t, rt, "Meta", []*Class{rt.TypeClass}, nsOf("mro", bad))

	_, err := rt.DefineClass(meta, "C", nil, nil, nil)
	wantKind(t, err, KindType)
}
