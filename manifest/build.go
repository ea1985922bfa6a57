package manifest

import (
	"fmt"
	"slices"

	"github.com/tliron/commonlog"

	"github.com/chazu/dunder/vm"
)

var log = commonlog.GetLogger("dunder.manifest")

// Build creates the classes declared by m and the manifests it includes,
// in dependency order (bases and metaclasses before the classes that use
// them), and returns them in that order. Bases and metaclasses may name a
// declared class or a built-in one.
func (m *Manifest) Build(rt *vm.Runtime) ([]*vm.Class, error) {
	manifests, err := m.ResolveIncludes()
	if err != nil {
		return nil, err
	}

	var decls []ClassDecl
	seen := make(map[string]bool)
	for _, mm := range manifests {
		for _, d := range mm.Classes {
			if seen[d.Name] {
				return nil, fmt.Errorf("class %s declared twice (in %s)", d.Name, mm.Dir)
			}
			seen[d.Name] = true
			decls = append(decls, d)
		}
	}

	order, err := sortDecls(decls)
	if err != nil {
		return nil, err
	}

	built := make(map[string]*vm.Class, len(order))
	classes := make([]*vm.Class, 0, len(order))
	for _, d := range order {
		c, err := buildClass(rt, d, built)
		if err != nil {
			return nil, fmt.Errorf("building class %s: %w", d.Name, err)
		}
		built[d.Name] = c
		classes = append(classes, c)
	}
	log.Infof("built %d classes from %d manifests", len(classes), len(manifests))

	if m.Runtime.Sweep {
		if n := rt.Classes.Sweep(); n > 0 {
			log.Debugf("swept %d dead classes", n)
		}
	}
	return classes, nil
}

// sortDecls orders declarations so that every class comes after the
// declared classes it names as a base or metaclass. Declaration order is
// kept where the dependencies allow it.
func sortDecls(decls []ClassDecl) ([]ClassDecl, error) {
	byName := make(map[string]ClassDecl, len(decls))
	for _, d := range decls {
		byName[d.Name] = d
	}

	state := make(map[string]int, len(decls))
	order := make([]ClassDecl, 0, len(decls))
	var visit func(d ClassDecl) error
	visit = func(d ClassDecl) error {
		switch state[d.Name] {
		case visiting:
			return fmt.Errorf("class %s depends on itself", d.Name)
		case visited:
			return nil
		}
		state[d.Name] = visiting
		deps := d.Bases
		if d.Metaclass != "" {
			deps = append(slices.Clone(deps), d.Metaclass)
		}
		for _, dep := range deps {
			if next, ok := byName[dep]; ok {
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		state[d.Name] = visited
		order = append(order, d)
		return nil
	}

	for _, d := range decls {
		if err := visit(d); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func buildClass(rt *vm.Runtime, d ClassDecl, built map[string]*vm.Class) (*vm.Class, error) {
	resolve := func(name string) (*vm.Class, error) {
		if c, ok := built[name]; ok {
			return c, nil
		}
		if IsReservedName(name) {
			if c := rt.Classes.LookupName(name); c != nil {
				return c, nil
			}
		}
		return nil, fmt.Errorf("unknown class %q", name)
	}

	bases := make([]*vm.Class, 0, len(d.Bases))
	for _, name := range d.Bases {
		b, err := resolve(name)
		if err != nil {
			return nil, err
		}
		bases = append(bases, b)
	}
	var meta *vm.Class
	if d.Metaclass != "" {
		var err error
		if meta, err = resolve(d.Metaclass); err != nil {
			return nil, err
		}
	}

	ns := vm.NewNamespace()
	if d.Doc != "" {
		ns.Set("__doc__", d.Doc)
	}
	for _, name := range sortedKeys(d.Attrs) {
		v, err := convertValue(d.Attrs[name])
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		ns.Set(name, v)
	}
	if d.Slots != nil {
		slots := make(vm.Tuple, len(*d.Slots))
		for i, s := range *d.Slots {
			slots[i] = s
		}
		ns.Set("__slots__", slots)
	}
	for _, name := range sortedKeys(d.Methods) {
		b, err := parseBehavior(d.Methods[name])
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", name, err)
		}
		ns.Set(name, b.function(name))
	}
	if d.Hash == "none" {
		ns.Set("__hash__", vm.None)
	}

	var kw vm.Kwargs
	for _, name := range sortedKeys(d.Keywords) {
		v, err := convertValue(d.Keywords[name])
		if err != nil {
			return nil, fmt.Errorf("keyword %s: %w", name, err)
		}
		kw = append(kw, vm.Keyword{Name: name, Value: v})
	}

	return rt.DefineClass(meta, d.Name, bases, ns, kw)
}

// convertValue maps a decoded TOML value to a runtime value: arrays become
// tuples and tables become dicts.
func convertValue(v any) (vm.Value, error) {
	switch x := v.(type) {
	case int64, float64, bool, string:
		return x, nil
	case []any:
		t := make(vm.Tuple, len(x))
		for i, item := range x {
			cv, err := convertValue(item)
			if err != nil {
				return nil, err
			}
			t[i] = cv
		}
		return t, nil
	case map[string]any:
		d := vm.NewDict()
		for _, k := range sortedKeys(x) {
			cv, err := convertValue(x[k])
			if err != nil {
				return nil, err
			}
			d.Set(k, cv)
		}
		return d, nil
	}
	return nil, fmt.Errorf("unsupported value %v (%T)", v, v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
