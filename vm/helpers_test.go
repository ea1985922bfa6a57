package vm

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt, err := New(&Config{CompactLimit: DefaultCompactLimit})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rt
}

// nsOf builds a namespace from alternating names and values.
func nsOf(pairs ...Value) *Namespace {
	ns := NewNamespace()
	for i := 0; i+1 < len(pairs); i += 2 {
		ns.Set(pairs[i].(string), pairs[i+1])
	}
	return ns
}

// constFn returns a function that ignores its arguments.
func constFn(name string, result Value) *Function {
	return NewFunction(name, func(rt *Runtime, args []Value, kw Kwargs) (Value, error) {
		return result, nil
	})
}

func mustClass(t *testing.T, rt *Runtime, name string, bases []*Class, ns *Namespace) *Class {
	t.Helper()
	c, err := rt.NewClass(name, bases, ns)
	if err != nil {
		t.Fatalf("NewClass(%s): %v", name, err)
	}
	return c
}

func mustCall(t *testing.T, rt *Runtime, callable Value, args ...Value) Value {
	t.Helper()
	v, err := rt.Call(callable, args, nil)
	if err != nil {
		t.Fatalf("Call(%v): %v", callable, err)
	}
	return v
}

func mustGet(t *testing.T, rt *Runtime, obj Value, name string) Value {
	t.Helper()
	v, err := rt.GetAttr(obj, name)
	if err != nil {
		t.Fatalf("GetAttr(%s): %v", name, err)
	}
	return v
}

func wantKind(t *testing.T, err error, kind Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("error %v is not an *Error", err)
	}
	if e.Kind != kind {
		t.Errorf("Kind = %s, want %s (%v)", e.Kind, kind, err)
	}
}

func classNames(cs []*Class) []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
