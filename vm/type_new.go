package vm

import (
	"slices"
	"unicode"
)

// ---------------------------------------------------------------------------
// Defining classes
// ---------------------------------------------------------------------------

// NewClass creates a class from a name, bases and namespace, using the
// metaclass its bases imply.
func (rt *Runtime) NewClass(name string, bases []*Class, ns *Namespace) (*Class, error) {
	return rt.DefineClass(nil, name, bases, ns, nil)
}

// DefineClass creates a class the way a class statement does: the most
// derived of meta and the bases' metaclasses is called with
// (name, bases, namespace) and kw. A nil meta defaults to the first base's
// metaclass, or type.
func (rt *Runtime) DefineClass(meta *Class, name string, bases []*Class, ns *Namespace, kw Kwargs) (*Class, error) {
	if meta == nil {
		meta = rt.TypeClass
		if len(bases) > 0 {
			meta = bases[0].meta
		}
	}
	winner, err := rt.calculateMetaclass(meta, bases)
	if err != nil {
		return nil, err
	}
	if ns == nil {
		ns = NewNamespace()
	}

	baseTuple := make(Tuple, len(bases))
	for i, b := range bases {
		baseTuple[i] = b
	}
	res, err := rt.Call(winner, []Value{name, baseTuple, DictFromNamespace(ns)}, kw)
	if err != nil {
		return nil, err
	}
	c, ok := res.(*Class)
	if !ok {
		return nil, TypeErrorFor(winner.Name, "metaclass '%s' returned a '%s' instead of a class", winner.Name, rt.TypeName(res))
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// type.__new__ / type.__init__
// ---------------------------------------------------------------------------

// typeNew implements type(x) and type(name, bases, namespace).
func typeNew(rt *Runtime, metatype *Class, args []Value, kw Kwargs) (Value, error) {
	if metatype == rt.TypeClass && len(args) == 1 && len(kw) == 0 {
		return rt.TypeOf(args[0]), nil
	}
	if len(args) != 3 {
		return nil, TypeError("type() takes 1 or 3 arguments")
	}

	name, ok := args[0].(string)
	if !ok {
		return nil, TypeError("type.__new__() argument 1 must be str, not %s", rt.TypeName(args[0]))
	}
	baseTuple, ok := args[1].(Tuple)
	if !ok {
		return nil, TypeError("type.__new__() argument 2 must be tuple, not %s", rt.TypeName(args[1]))
	}
	dict, ok := args[2].(*Dict)
	if !ok {
		return nil, TypeError("type.__new__() argument 3 must be dict, not %s", rt.TypeName(args[2]))
	}

	bases := make([]*Class, len(baseTuple))
	for i, b := range baseTuple {
		c, ok := b.(*Class)
		if !ok {
			return nil, ConstructionError(name, "bases must be types, not '%s'", rt.TypeName(b))
		}
		bases[i] = c
	}

	winner, err := rt.calculateMetaclass(metatype, bases)
	if err != nil {
		return nil, err
	}
	if winner != metatype {
		if impl := winner.Slot(SlotNew); impl != rt.typeNew {
			return impl.Fn.(NewFunc)(rt, winner, args, kw)
		}
		metatype = winner
	}

	return rt.createClass(metatype, name, bases, dict.Namespace(), kw)
}

func typeInit(rt *Runtime, self Value, args []Value, kw Kwargs) error {
	if len(args) == 1 && len(kw) != 0 {
		return TypeError("type.__init__() takes no keyword arguments")
	}
	if len(args) != 1 && len(args) != 3 {
		return TypeError("type.__init__() takes 1 or 3 arguments")
	}
	return nil
}

// ---------------------------------------------------------------------------
// Class creation
// ---------------------------------------------------------------------------

// createClass builds, finalizes and publishes a heap class. Layout, MRO and
// duplicate-base errors abort before the class is registered anywhere.
func (rt *Runtime) createClass(meta *Class, name string, bases []*Class, ns *Namespace, kw Kwargs) (*Class, error) {
	if len(bases) == 0 {
		bases = []*Class{rt.ObjectClass}
	}
	base, err := rt.bestBase(bases)
	if err != nil {
		return nil, err
	}

	rt.mu.RLock()
	dict := ns.Copy()
	rt.mu.RUnlock()

	c := &Class{
		ID:    newClassID(),
		Name:  name,
		meta:  meta,
		Bases: slices.Clone(bases),
		Base:  base,
		Dict:  dict,
		Flags: FlagHeapType | FlagBaseType,
	}
	if doc, ok := dict.Get("__doc__"); ok {
		if s, ok := doc.(string); ok {
			c.Doc = s
		}
	}

	if err := rt.buildLayout(c); err != nil {
		return nil, err
	}

	if f, ok := dict.Get("__new__"); ok {
		if _, isFunc := f.(*Function); isFunc {
			dict.Set("__new__", &StaticMethod{Func: f})
		}
	}
	if f, ok := dict.Get("__init_subclass__"); ok {
		if _, isFunc := f.(*Function); isFunc {
			dict.Set("__init_subclass__", &ClassMethod{Func: f})
		}
	}
	if dict.Has("__eq__") && !dict.Has("__hash__") {
		dict.Set("__hash__", None)
	}

	c.solid = solidBase(c)

	// The mro() override is user code: run it unlocked.
	mro, err := rt.mroInternal(c)
	if err != nil {
		log.Debugf("class %s: %s", name, err)
		return nil, err
	}

	rt.mu.Lock()
	c.MRO = mro
	if err := rt.readyClass(c, false); err != nil {
		rt.mu.Unlock()
		return nil, err
	}
	rt.synchronizeSlots(c)
	rt.mu.Unlock()
	rt.Classes.Register(c)

	log.Debugf("created class %s (meta %s, mro %v)", c.Name, meta.Name, c.MRONames())

	if err := rt.notifySetName(c); err != nil {
		rt.discardClass(c)
		return nil, err
	}
	if err := rt.initSubclass(c, kw); err != nil {
		rt.discardClass(c)
		return nil, err
	}
	return c, nil
}

// discardClass withdraws a class whose creation failed after it was
// finalized.
func (rt *Runtime) discardClass(c *Class) {
	rt.mu.Lock()
	for _, b := range c.Bases {
		b.removeSubclass(c)
	}
	rt.mu.Unlock()
	rt.Classes.Unregister(c)
}

// buildLayout computes c's instance layout from its best base and its
// __slots__ declaration, and installs the member and __dict__ descriptors.
func (rt *Runtime) buildLayout(c *Class) error {
	base := c.Base
	c.Layout = Layout{
		Basis:     base.Layout.Basis,
		NumFields: base.Layout.NumFields,
		HasDict:   base.Layout.HasDict,
	}

	decl, hasSlots := c.Dict.Get("__slots__")
	if !hasSlots {
		if base.Layout.Basis == BasisObject {
			c.Layout.HasDict = true
		}
	} else {
		names, err := rt.parseSlots(c, decl)
		if err != nil {
			return err
		}
		var members []string
		addDict := false
		for _, n := range names {
			if n == "__dict__" {
				if base.Layout.HasDict || addDict {
					return ConstructionError(c.Name, "__dict__ slot disallowed: we already got one")
				}
				addDict = true
				continue
			}
			if c.Dict.Has(n) {
				return ConstructionError(c.Name, "'%s' in __slots__ conflicts with class variable", n)
			}
			members = append(members, n)
		}
		if (len(members) > 0 || addDict) && base.Layout.Basis != BasisObject {
			return ConstructionError(c.Name, "nonempty __slots__ not supported for subtype of '%s'", base.Name)
		}
		c.Layout.Members = members
		c.Layout.NumFields += len(members)
		c.Layout.HasDict = base.Layout.HasDict || addDict
		for i, n := range members {
			c.Dict.Set(n, &MemberDescriptor{Name: n, Owner: c, Index: base.Layout.NumFields + i})
		}
	}

	if c.Layout.HasDict && c.Layout.Basis == BasisObject {
		c.keys = newSharedKeys()
		if !base.Layout.HasDict && !c.Dict.Has("__dict__") {
			c.Dict.Set("__dict__", &GetSetDescriptor{
				Name:  "__dict__",
				Owner: c,
				Get:   instanceDictGet,
				Set:   instanceDictSet,
				Doc:   "dictionary for instance variables",
			})
		}
	}
	return nil
}

// parseSlots accepts a single name or a tuple of names.
func (rt *Runtime) parseSlots(c *Class, decl Value) ([]string, error) {
	var items []Value
	switch d := decl.(type) {
	case string:
		items = []Value{d}
	case Tuple:
		items = d
	default:
		return nil, ConstructionError(c.Name, "__slots__ must be a str or a tuple of str, not '%s'", rt.TypeName(decl))
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		n, ok := item.(string)
		if !ok {
			return nil, ConstructionError(c.Name, "__slots__ items must be strings, not '%s'", rt.TypeName(item))
		}
		if !isIdentifier(n) {
			return nil, ConstructionError(c.Name, "__slots__ must be identifiers")
		}
		if slices.Contains(names, n) {
			return nil, ConstructionError(c.Name, "duplicate name '%s' in __slots__", n)
		}
		names = append(names, n)
	}
	return names, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// notifySetName calls __set_name__(cls, name) on every namespace value
// whose class defines it.
func (rt *Runtime) notifySetName(c *Class) error {
	rt.mu.RLock()
	names := c.Dict.Names()
	values := make([]Value, len(names))
	for i, n := range names {
		values[i], _ = c.Dict.Get(n)
	}
	rt.mu.RUnlock()

	for i, v := range values {
		fn, unbound, err := rt.lookupSpecial(v, "__set_name__")
		if err != nil {
			return err
		}
		if fn == nil {
			continue
		}
		if _, err := rt.callSpecial(fn, unbound, v, []Value{c, names[i]}, nil); err != nil {
			return err
		}
	}
	return nil
}

// initSubclass calls the parent's __init_subclass__ bound to c, passing
// the class keywords.
func (rt *Runtime) initSubclass(c *Class, kw Kwargs) error {
	var hook Value
	rt.mu.RLock()
	for _, m := range c.MRO[1:] {
		if v, ok := m.Dict.Get("__init_subclass__"); ok {
			hook = v
			break
		}
	}
	rt.mu.RUnlock()
	if hook == nil {
		return nil
	}

	fn := hook
	if get := rt.descrGetter(hook); get != nil {
		bound, err := get(rt, hook, nil, c)
		if err != nil {
			return err
		}
		fn = bound
	}
	_, err := rt.Call(fn, nil, kw)
	return err
}

// ---------------------------------------------------------------------------
// Instance __dict__
// ---------------------------------------------------------------------------

func instanceDictGet(rt *Runtime, obj Value) (Value, error) {
	store := storeOf(obj)
	if store == nil {
		return nil, AttributeError(rt.TypeName(obj), "__dict__", "'%s' object has no attribute '__dict__'", rt.TypeName(obj))
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	d := NewDict()
	for _, n := range store.Names() {
		v, _ := store.Get(n)
		d.Set(n, v)
	}
	return d, nil
}

func instanceDictSet(rt *Runtime, obj Value, value Value) error {
	if value == nil {
		return TypeErrorFor(rt.TypeName(obj), "cannot delete __dict__")
	}
	d, ok := value.(*Dict)
	if !ok {
		return TypeErrorFor(rt.TypeName(obj), "__dict__ must be set to a dictionary, not a '%s'", rt.TypeName(value))
	}
	store := storeOf(obj)
	if store == nil {
		return AttributeError(rt.TypeName(obj), "__dict__", "'%s' object has no attribute '__dict__'", rt.TypeName(obj))
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	store.clear()
	for _, n := range d.ns.Names() {
		v, _ := d.ns.Get(n)
		store.Set(n, v)
	}
	return nil
}
