package manifest

import (
	"slices"
	"strings"
	"testing"

	"github.com/chazu/dunder/vm"
)

func mustBuild(t *testing.T, rt *vm.Runtime, content string) map[string]*vm.Class {
	t.Helper()
	m, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	classes, err := m.Build(rt)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	byName := make(map[string]*vm.Class, len(classes))
	for _, c := range classes {
		byName[c.Name] = c
	}
	return byName
}

// ---------------------------------------------------------------------------
// Building hierarchies
// ---------------------------------------------------------------------------

const diamond = `
[[class]]
name = "E"
bases = ["B", "C"]

[[class]]
name = "B"
bases = ["D"]

[[class]]
name = "C"
bases = ["D"]

[[class]]
name = "D"
`

func TestBuildMatchesHandBuilt(t *testing.T) {
	rt := newRuntime(t)
	built := mustBuild(t, rt, diamond)

	hand := newRuntime(t)
	d, _ := hand.NewClass("D", nil, nil)
	b, _ := hand.NewClass("B", []*vm.Class{d}, nil)
	c, _ := hand.NewClass("C", []*vm.Class{d}, nil)
	e, err := hand.NewClass("E", []*vm.Class{b, c}, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, want := range []*vm.Class{b, c, d, e} {
		got := built[want.Name]
		if got == nil {
			t.Fatalf("class %s not built", want.Name)
		}
		if !slices.Equal(got.MRONames(), want.MRONames()) {
			t.Errorf("%s MRO = %v, want %v", want.Name, got.MRONames(), want.MRONames())
		}
		if got.Base.Name != want.Base.Name {
			t.Errorf("%s best base = %s, want %s", want.Name, got.Base.Name, want.Base.Name)
		}
		for id := vm.SlotID(0); id < vm.NumSlots; id++ {
			if gk, wk := slotState(got.Slot(id)), slotState(want.Slot(id)); gk != wk {
				t.Errorf("%s %s slot = %s, want %s", want.Name, id, gk, wk)
			}
		}
	}
}

func slotState(impl *vm.SlotImpl) string {
	if impl == nil {
		return "absent"
	}
	return impl.Kind.String() + ":" + impl.Name
}

func TestBuildOrdersDependencies(t *testing.T) {
	m, err := Parse([]byte(diamond))
	if err != nil {
		t.Fatal(err)
	}
	classes, err := m.Build(newRuntime(t))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, c := range classes {
		names = append(names, c.Name)
	}
	if !slices.Equal(names, []string{"D", "B", "C", "E"}) {
		t.Errorf("build order = %v, want [D B C E]", names)
	}
}

func TestBuildAttributesAndMethods(t *testing.T) {
	rt := newRuntime(t)
	classes := mustBuild(t, rt, `
[[class]]
name = "Point"
doc = "A point."
slots = ["x", "y"]
attrs = { origin = [0, 0], scale = 1.5, meta = { unit = "px" } }

[class.methods]
__init__ = "setattr:x"
__repr__ = "const:<point>"
__len__ = "const:2"
__neg__ = "self"
get_x = "attr:x"
first = "arg:1"
__add__ = "notimplemented"
`)
	p := classes["Point"]
	if p.Doc != "A point." {
		t.Errorf("Doc = %q", p.Doc)
	}
	if !slices.Equal(p.Layout.Members, []string{"x", "y"}) || p.Layout.HasDict {
		t.Errorf("Layout = %+v, want members [x y] without a dict", p.Layout)
	}

	obj, err := rt.Call(p, []vm.Value{int64(3)}, nil)
	if err != nil {
		t.Fatalf("Point(3): %v", err)
	}
	if r, _ := rt.Repr(obj); r != "<point>" {
		t.Errorf("Repr = %q, want <point>", r)
	}
	if n, _ := rt.Len(obj); n != 2 {
		t.Errorf("Len = %d, want 2", n)
	}
	if v, _ := rt.Neg(obj); v != obj {
		t.Error("__neg__ = self should return the receiver")
	}
	getX, _ := rt.GetAttr(obj, "get_x")
	if v, _ := rt.Call(getX, nil, nil); v != vm.Value(int64(3)) {
		t.Errorf("get_x() = %v, want 3", v)
	}
	first, _ := rt.GetAttr(obj, "first")
	if v, _ := rt.Call(first, []vm.Value{"a"}, nil); v != vm.Value("a") {
		t.Errorf("first('a') = %v, want a", v)
	}
	if _, err := rt.Add(obj, obj); vm.KindOf(err) != vm.KindNotImplementedOp {
		t.Errorf("Add error = %v, want not implemented", err)
	}

	origin, _ := rt.GetAttr(p, "origin")
	if tup, ok := origin.(vm.Tuple); !ok || len(tup) != 2 {
		t.Errorf("origin = %v, want a 2-tuple", origin)
	}
	if v, _ := rt.GetAttr(p, "scale"); v != vm.Value(1.5) {
		t.Errorf("scale = %v, want 1.5", v)
	}
	meta, _ := rt.GetAttr(p, "meta")
	if d, ok := meta.(*vm.Dict); !ok {
		t.Errorf("meta = %T, want *vm.Dict", meta)
	} else if v, _ := d.Get("unit"); v != vm.Value("px") {
		t.Errorf("meta['unit'] = %v, want px", v)
	}
}

func TestBuildHashNone(t *testing.T) {
	rt := newRuntime(t)
	classes := mustBuild(t, rt, "[[class]]\nname = \"Key\"\nhash = \"none\"\n")
	obj, _ := rt.Call(classes["Key"], nil, nil)
	if _, err := rt.Hash(obj); vm.KindOf(err) != vm.KindUnhashableType {
		t.Errorf("Hash error = %v, want unhashable", err)
	}
}

func TestBuildIterator(t *testing.T) {
	rt := newRuntime(t)
	classes := mustBuild(t, rt, `
[[class]]
name = "Empty"
methods = { __iter__ = "self", __next__ = "stop" }
`)
	obj, _ := rt.Call(classes["Empty"], nil, nil)
	n := 0
	err := rt.ForEach(obj, func(v vm.Value) error {
		n++
		return nil
	})
	if err != nil || n != 0 {
		t.Errorf("ForEach = %d items, %v, want an empty iteration", n, err)
	}
}

func TestBuildMetaclassAndKeywords(t *testing.T) {
	rt := newRuntime(t)
	classes := mustBuild(t, rt, `
[[class]]
name = "Meta"
bases = ["type"]
methods = { describe = "const:meta" }

[[class]]
name = "Plugin"
metaclass = "Meta"

[[class]]
name = "Child"
bases = ["Plugin"]
`)
	if classes["Plugin"].Meta() != classes["Meta"] {
		t.Errorf("Plugin metaclass = %v, want Meta", classes["Plugin"].Meta())
	}
	if classes["Child"].Meta() != classes["Meta"] {
		t.Errorf("Child metaclass = %v, want the inherited Meta", classes["Child"].Meta())
	}
	describe, err := rt.GetAttr(classes["Child"], "describe")
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := rt.Call(describe, nil, nil); v != vm.Value("meta") {
		t.Errorf("Child.describe() = %v, want meta", v)
	}

	// object.__init_subclass__ rejects unexpected keywords.
	m, _ := Parse([]byte("[[class]]\nname = \"K\"\nkeywords = { flavour = \"x\" }\n"))
	if _, err := m.Build(rt); err == nil {
		t.Error("Build should surface the __init_subclass__ keyword error")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown base", "[[class]]\nname = \"A\"\nbases = [\"Missing\"]\n", "unknown class"},
		{"cycle", "[[class]]\nname = \"A\"\nbases = [\"B\"]\n[[class]]\nname = \"B\"\nbases = [\"A\"]\n", "depends on itself"},
		{"mro conflict", `
[[class]]
name = "X"
[[class]]
name = "Y"
[[class]]
name = "A"
bases = ["X", "Y"]
[[class]]
name = "B"
bases = ["Y", "X"]
[[class]]
name = "Z"
bases = ["A", "B"]
`, "building class Z"},
		{"layout conflict", "[[class]]\nname = \"N\"\nbases = [\"int\", \"str\"]\n", "building class N"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse([]byte(tt.content))
			if err != nil {
				t.Fatal(err)
			}
			_, err = m.Build(newRuntime(t))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Build error = %v, want one containing %q", err, tt.want)
			}
		})
	}
}

func TestBuildMROConflictKind(t *testing.T) {
	m, _ := Parse([]byte(`
[[class]]
name = "X"
[[class]]
name = "Y"
[[class]]
name = "A"
bases = ["X", "Y"]
[[class]]
name = "B"
bases = ["Y", "X"]
[[class]]
name = "Z"
bases = ["A", "B"]
`))
	_, err := m.Build(newRuntime(t))
	if vm.KindOf(err) != vm.KindMroConflict {
		t.Errorf("KindOf = %q, want mro_conflict", vm.KindOf(err))
	}
}

func TestParseLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want vm.Value
	}{
		{"none", vm.None},
		{"true", true},
		{"false", false},
		{"42", int64(42)},
		{"-1", int64(-1)},
		{"2.5", 2.5},
		{"hello", "hello"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseLiteral(tt.in); got != tt.want {
			t.Errorf("parseLiteral(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}
}
