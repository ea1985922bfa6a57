package vm

import (
	"testing"
)

// ---------------------------------------------------------------------------
// Native value tests
// ---------------------------------------------------------------------------

func TestReprOfValues(t *testing.T) {
	rt := newTestRuntime(t)
	tests := []struct {
		v    Value
		want string
	}{
		{None, "None"},
		{NotImplemented, "NotImplemented"},
		{int64(-3), "-3"},
		{true, "True"},
		{2.0, "2.0"},
		{0.5, "0.5"},
		{"it's", `'it\'s'`},
		{Tuple{int64(1)}, "(1,)"},
		{Tuple{int64(1), "a"}, "(1, 'a')"},
		{Tuple{}, "()"},
	}
	for _, tt := range tests {
		got, err := rt.Repr(tt.v)
		if err != nil {
			t.Errorf("Repr(%v): %v", tt.v, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Repr(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}

	d := NewDict()
	d.Set("k", int64(1))
	if got, _ := rt.Repr(d); got != "{'k': 1}" {
		t.Errorf("Repr(dict) = %q", got)
	}
	if got, _ := rt.Repr(rt.IntClass); got != "<class 'int'>" {
		t.Errorf("Repr(int) = %q", got)
	}
}

func TestStrFallsBackToRepr(t *testing.T) {
	rt := newTestRuntime(t)
	c := mustClass(t, rt, "C", nil, nsOf("__repr__", constFn("__repr__", "R")))
	got, err := rt.Str(mustCall(t, rt, c))
	if err != nil || got != "R" {
		t.Errorf("Str = %q, %v, want R", got, err)
	}

	bad := mustClass(t, rt, "Bad", nil, nsOf("__repr__", constFn("__repr__", int64(1))))
	_, err = rt.Repr(mustCall(t, rt, bad))
	wantKind(t, err, KindType)
}

func TestHashValues(t *testing.T) {
	rt := newTestRuntime(t)

	h1, _ := rt.Hash("abc")
	h2, _ := rt.Hash("abc")
	if h1 != h2 {
		t.Error("equal strings should hash equally")
	}
	hi, _ := rt.Hash(int64(5))
	hf, _ := rt.Hash(5.0)
	if hi != hf {
		t.Errorf("hash(5) = %d, hash(5.0) = %d, want equal", hi, hf)
	}
	ht1, _ := rt.Hash(Tuple{int64(1), "x"})
	ht2, _ := rt.Hash(Tuple{int64(1), "x"})
	if ht1 != ht2 {
		t.Error("equal tuples should hash equally")
	}

	_, err := rt.Hash(NewDict())
	wantKind(t, err, KindUnhashableType)
	_, err = rt.Hash(Tuple{NewDict()})
	wantKind(t, err, KindUnhashableType)
}

func TestArithmetic(t *testing.T) {
	rt := newTestRuntime(t)
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want Value
	}{
		{"int+int", rt.Add, int64(2), int64(3), int64(5)},
		{"int-int", rt.Sub, int64(2), int64(3), int64(-1)},
		{"int*int", rt.Mul, int64(4), int64(3), int64(12)},
		{"bool+int", rt.Add, true, int64(1), int64(2)},
		{"int+float", rt.Add, int64(1), 0.5, 1.5},
		{"float*int", rt.Mul, 1.5, int64(2), 3.0},
		{"str+str", rt.Add, "ab", "cd", "abcd"},
		{"str*int", rt.Mul, "ab", int64(2), "abab"},
		{"int*str", rt.Mul, int64(3), "x", "xxx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}

	got, err := rt.Add(Tuple{int64(1)}, Tuple{int64(2)})
	if err != nil || len(got.(Tuple)) != 2 {
		t.Errorf("tuple concat = %v, %v", got, err)
	}

	_, err = rt.Add(int64(1), "x")
	wantKind(t, err, KindNotImplementedOp)

	neg, err := rt.Neg(int64(4))
	if err != nil || neg != Value(int64(-4)) {
		t.Errorf("Neg(4) = %v, %v", neg, err)
	}
}

// ---------------------------------------------------------------------------
// User-defined operators
// ---------------------------------------------------------------------------

func TestUserBinaryOperators(t *testing.T) {
	rt := newTestRuntime(t)
	add := constFn("__add__", "left")
	radd := constFn("__radd__", "right")
	c := mustClass(t, rt, "V", nil, nsOf("__add__", add, "__radd__", radd))
	v := mustCall(t, rt, c)

	if got, _ := rt.Add(v, int64(1)); got != "left" {
		t.Errorf("v + 1 = %v, want left", got)
	}
	if got, _ := rt.Add(int64(1), v); got != "right" {
		t.Errorf("1 + v = %v, want right", got)
	}
}

func TestReflectedSubclassOperatorFirst(t *testing.T) {
	rt := newTestRuntime(t)
	base := mustClass(t, rt, "Base", nil, nsOf(
		"__add__", constFn("__add__", "base add"),
		"__radd__", constFn("__radd__", "base radd"),
	))
	sub := mustClass(t, rt, "Sub", []*Class{base}, nsOf(
		"__radd__", constFn("__radd__", "sub radd"),
	))
	b, s := mustCall(t, rt, base), mustCall(t, rt, sub)

	if got, _ := rt.Add(b, s); got != "sub radd" {
		t.Errorf("base + sub = %v, want the subclass's reflected method", got)
	}
	if got, _ := rt.Add(s, b); got != "base add" {
		t.Errorf("sub + base = %v, want base add", got)
	}
}

func TestUnsupportedOperands(t *testing.T) {
	rt := newTestRuntime(t)
	c := mustClass(t, rt, "C", nil, nsOf("__add__", constFn("__add__", NotImplemented)))
	_, err := rt.Add(mustCall(t, rt, c), int64(1))
	wantKind(t, err, KindNotImplementedOp)
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

func TestCompareValues(t *testing.T) {
	rt := newTestRuntime(t)
	tests := []struct {
		a, b Value
		op   CompareOp
		want bool
	}{
		{int64(1), int64(2), OpLT, true},
		{int64(2), 2.0, OpEQ, true},
		{2.5, int64(2), OpGT, true},
		{"a", "b", OpLT, true},
		{"a", "a", OpNE, false},
		{Tuple{int64(1), "x"}, Tuple{int64(1), "x"}, OpEQ, true},
		{Tuple{int64(1)}, Tuple{int64(2)}, OpNE, true},
		{int64(1), "1", OpEQ, false},
		{None, None, OpEQ, true},
	}
	for _, tt := range tests {
		res, err := rt.Compare(tt.a, tt.b, tt.op)
		if err != nil {
			t.Errorf("Compare(%v %s %v): %v", tt.a, tt.op, tt.b, err)
			continue
		}
		if res != Value(tt.want) {
			t.Errorf("%v %s %v = %v, want %v", tt.a, tt.op, tt.b, res, tt.want)
		}
	}

	_, err := rt.Compare(int64(1), "x", OpLT)
	wantKind(t, err, KindNotImplementedOp)
}

func TestUserEquality(t *testing.T) {
	rt := newTestRuntime(t)
	eq := NewFunction("__eq__", func(rt *Runtime, args []Value, kw Kwargs) (Value, error) {
		return rt.IsInstance(args[1], rt.TypeOf(args[0])), nil
	})
	c := mustClass(t, rt, "C", nil, nsOf("__eq__", eq))
	a, b := mustCall(t, rt, c), mustCall(t, rt, c)

	if ok, _ := rt.Equal(a, b); !ok {
		t.Error("a == b should use __eq__")
	}
	ne, err := rt.Compare(a, b, OpNE)
	if err != nil || ne != Value(false) {
		t.Errorf("a != b = %v, %v, want false through the inverted __eq__", ne, err)
	}

	plain := mustClass(t, rt, "P", nil, nil)
	x, y := mustCall(t, rt, plain), mustCall(t, rt, plain)
	if ok, _ := rt.Equal(x, y); ok {
		t.Error("distinct plain instances should not be equal")
	}
	if ok, _ := rt.Equal(x, x); !ok {
		t.Error("an instance should equal itself")
	}
}

func TestReflectedCompareForSubclass(t *testing.T) {
	rt := newTestRuntime(t)
	base := mustClass(t, rt, "Base", nil, nsOf("__lt__", constFn("__lt__", "base lt")))
	sub := mustClass(t, rt, "Sub", []*Class{base}, nsOf("__gt__", constFn("__gt__", "sub gt")))

	res, err := rt.Compare(mustCall(t, rt, base), mustCall(t, rt, sub), OpLT)
	if err != nil || res != "sub gt" {
		t.Errorf("base < sub = %v, %v, want the subclass's reflected __gt__", res, err)
	}
}

// ---------------------------------------------------------------------------
// Containers and iteration
// ---------------------------------------------------------------------------

func TestTupleIteration(t *testing.T) {
	rt := newTestRuntime(t)
	var seen []Value
	err := rt.ForEach(Tuple{int64(1), int64(2), int64(3)}, func(v Value) error {
		seen = append(seen, v)
		return nil
	})
	if err != nil || len(seen) != 3 || seen[2] != Value(int64(3)) {
		t.Errorf("ForEach = %v, %v", seen, err)
	}

	it, err := rt.Iter(Tuple{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := rt.Next(it); ok || err != nil {
		t.Errorf("Next on empty = ok %v, err %v", ok, err)
	}

	_, err = rt.Iter(int64(1))
	wantKind(t, err, KindType)
}

func TestUserIterator(t *testing.T) {
	rt := newTestRuntime(t)
	next := NewFunction("__next__", func(rt *Runtime, args []Value, kw Kwargs) (Value, error) {
		n, _ := rt.GetAttr(args[0], "n")
		i := n.(int64)
		if i >= 3 {
			return nil, StopIteration()
		}
		return i, rt.SetAttr(args[0], "n", i+1)
	})
	iter := NewFunction("__iter__", func(rt *Runtime, args []Value, kw Kwargs) (Value, error) {
		return args[0], nil
	})
	counter := mustClass(t, rt, "Counter", nil, nsOf("__iter__", iter, "__next__", next, "n", int64(0)))
	c := mustCall(t, rt, counter)

	var total int64
	err := rt.ForEach(c, func(v Value) error {
		total += v.(int64)
		return nil
	})
	if err != nil || total != 3 {
		t.Errorf("sum = %d, %v, want 3", total, err)
	}

	c2 := mustCall(t, rt, counter)
	found, err := rt.Contains(c2, int64(2))
	if err != nil || !found {
		t.Errorf("2 in counter = %v, %v, want true by iteration", found, err)
	}
}

func TestIterRejectsNonIterator(t *testing.T) {
	rt := newTestRuntime(t)
	other := mustClass(t, rt, "NotIter", nil, nil)
	iter := NewFunction("__iter__", func(rt *Runtime, args []Value, kw Kwargs) (Value, error) {
		return rt.Call(other, nil, nil)
	})
	c := mustClass(t, rt, "C", nil, nsOf("__iter__", iter))

	_, err := rt.Iter(mustCall(t, rt, c))
	wantKind(t, err, KindType)
}

func TestStringAndTupleContainers(t *testing.T) {
	rt := newTestRuntime(t)

	if n, _ := rt.Len("héllo"); n != 5 {
		t.Errorf("len = %d, want 5", n)
	}
	if c, _ := rt.GetItem("héllo", int64(-4)); c != "é" {
		t.Errorf("s[-4] = %v, want é", c)
	}
	_, err := rt.GetItem("abc", int64(3))
	wantKind(t, err, KindLookup)
	if ok, _ := rt.Contains("hello", "ell"); !ok {
		t.Error("'ell' in 'hello' should be true")
	}

	tup := Tuple{int64(1), "a"}
	if ok, _ := rt.Contains(tup, "a"); !ok {
		t.Error("'a' in tuple should be true")
	}
	if v, _ := rt.GetItem(tup, int64(0)); v != Value(int64(1)) {
		t.Errorf("t[0] = %v, want 1", v)
	}
}

func TestDictContainer(t *testing.T) {
	rt := newTestRuntime(t)
	d := NewDict()

	if err := rt.SetItem(d, "a", int64(1)); err != nil {
		t.Fatal(err)
	}
	if v, err := rt.GetItem(d, "a"); err != nil || v != Value(int64(1)) {
		t.Errorf("d['a'] = %v, %v", v, err)
	}
	if ok, _ := rt.Contains(d, "a"); !ok {
		t.Error("'a' in d should be true")
	}
	if n, _ := rt.Len(d); n != 1 {
		t.Errorf("len(d) = %d, want 1", n)
	}
	if err := rt.DelItem(d, "a"); err != nil {
		t.Fatal(err)
	}
	_, err := rt.GetItem(d, "a")
	wantKind(t, err, KindLookup)
	wantKind(t, rt.DelItem(d, "a"), KindLookup)
	wantKind(t, rt.SetItem(d, int64(1), int64(2)), KindType)
}

func TestTruth(t *testing.T) {
	rt := newTestRuntime(t)
	sized := mustClass(t, rt, "Sized", nil, nsOf("__len__", constFn("__len__", int64(0))))
	plain := mustClass(t, rt, "Plain", nil, nil)

	tests := []struct {
		v    Value
		want bool
	}{
		{None, false},
		{int64(0), false},
		{int64(2), true},
		{0.0, false},
		{"", false},
		{"x", true},
		{Tuple{}, false},
		{NewDict(), false},
		{mustCall(t, rt, sized), false},
		{mustCall(t, rt, plain), true},
	}
	for _, tt := range tests {
		got, err := rt.Truth(tt.v)
		if err != nil {
			t.Errorf("Truth(%v): %v", tt.v, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Truth(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestCallableInstance(t *testing.T) {
	rt := newTestRuntime(t)
	call := NewFunction("__call__", func(rt *Runtime, args []Value, kw Kwargs) (Value, error) {
		return int64(len(args) - 1), nil
	})
	c := mustClass(t, rt, "Fn", nil, nsOf("__call__", call))

	if got := mustCall(t, rt, mustCall(t, rt, c), int64(1), int64(2)); got != Value(int64(2)) {
		t.Errorf("f(1, 2) = %v, want 2", got)
	}

	_, err := rt.Call(int64(1), nil, nil)
	wantKind(t, err, KindType)
}

func TestTypeErrorsNameTheClass(t *testing.T) {
	rt := newTestRuntime(t)
	obj := mustCall(t, rt, mustClass(t, rt, "Opaque", nil, nil))

	tests := []struct {
		name string
		err  func() error
		want string
	}{
		{"call", func() error { _, err := rt.Call(int64(1), nil, nil); return err }, "int"},
		{"iter", func() error { _, err := rt.Iter(obj); return err }, "Opaque"},
		{"len", func() error { _, err := rt.Len(obj); return err }, "Opaque"},
		{"getitem", func() error { _, err := rt.GetItem(obj, int64(0)); return err }, "Opaque"},
		{"neg", func() error { _, err := rt.Neg("s"); return err }, "str"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.err()
			wantKind(t, err, KindType)
			if e := err.(*Error); e.Class != tt.want {
				t.Errorf("Class = %q, want %q", e.Class, tt.want)
			}
		})
	}
}
