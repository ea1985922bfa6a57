package vm

import (
	"slices"
)

// ---------------------------------------------------------------------------
// MRO lookup
// ---------------------------------------------------------------------------

// LookupInMRO returns the first value bound to name in the namespaces of
// c's MRO, or nil. No descriptor semantics are applied.
func (rt *Runtime) LookupInMRO(c *Class, name string) Value {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return lookupInMRO(c, name)
}

// lookupInMRO is LookupInMRO for callers already holding the runtime lock.
func lookupInMRO(c *Class, name string) Value {
	for _, m := range c.MRO {
		if v, ok := m.Dict.Get(name); ok {
			return v
		}
	}
	return nil
}

// lookupOwner is lookupInMRO that also reports which class bound the name.
func lookupOwner(c *Class, name string) (Value, *Class) {
	for _, m := range c.MRO {
		if v, ok := m.Dict.Get(name); ok {
			return v, m
		}
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Descriptor classification
// ---------------------------------------------------------------------------

// descrGetter returns the __get__ slot of descr's class, or nil.
func (rt *Runtime) descrGetter(descr Value) DescrGetFunc {
	if impl := rt.TypeOf(descr).Slot(SlotDescrGet); impl != nil {
		return impl.Fn.(DescrGetFunc)
	}
	return nil
}

// descrSetter returns the __set__/__delete__ slot of descr's class, or nil.
func (rt *Runtime) descrSetter(descr Value) DescrSetFunc {
	if impl := rt.TypeOf(descr).Slot(SlotDescrSet); impl != nil {
		return impl.Fn.(DescrSetFunc)
	}
	return nil
}

// IsDescriptor reports whether v has a __get__.
func (rt *Runtime) IsDescriptor(v Value) bool {
	return rt.descrGetter(v) != nil
}

// IsDataDescriptor reports whether v has __get__ and __set__ or __delete__.
func (rt *Runtime) IsDataDescriptor(v Value) bool {
	return rt.descrGetter(v) != nil && rt.descrSetter(v) != nil
}

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// GetAttr resolves obj.name through obj's class's attribute slot.
func (rt *Runtime) GetAttr(obj Value, name string) (Value, error) {
	tp := rt.TypeOf(obj)
	impl := tp.Slot(SlotGetattro)
	if impl == nil {
		return nil, AttributeError(tp.Name, name, "'%s' object has no attribute '%s'", tp.Name, name)
	}
	return impl.Fn.(GetattroFunc)(rt, obj, name)
}

// SetAttr performs obj.name = value through obj's class's attribute slot.
func (rt *Runtime) SetAttr(obj Value, name string, value Value) error {
	if value == nil {
		return TypeError("cannot set '%s' to an absent value", name)
	}
	return rt.setattro(obj, name, value)
}

// DelAttr performs del obj.name through obj's class's attribute slot.
func (rt *Runtime) DelAttr(obj Value, name string) error {
	return rt.setattro(obj, name, nil)
}

func (rt *Runtime) setattro(obj Value, name string, value Value) error {
	tp := rt.TypeOf(obj)
	impl := tp.Slot(SlotSetattro)
	if impl == nil {
		if value == nil {
			return TypeErrorFor(tp.Name, "'%s' object has only read-only attributes (del .%s)", tp.Name, name)
		}
		return TypeErrorFor(tp.Name, "'%s' object has only read-only attributes (assign to .%s)", tp.Name, name)
	}
	return impl.Fn.(SetattroFunc)(rt, obj, name, value)
}

// HasAttr reports whether GetAttr succeeds. Errors other than an attribute
// miss are returned.
func (rt *Runtime) HasAttr(obj Value, name string) (bool, error) {
	_, err := rt.GetAttr(obj, name)
	if err == nil {
		return true, nil
	}
	if IsAttributeNotFound(err) {
		return false, nil
	}
	return false, err
}

// IsInstance reports whether obj's class is cls or a subclass of it.
func (rt *Runtime) IsInstance(obj Value, cls *Class) bool {
	return rt.TypeOf(obj).IsSubclassOf(cls)
}

// IsSubclass reports whether c is cls or derives from it. A class's MRO is
// fixed before it is published, so no lock is taken.
func (rt *Runtime) IsSubclass(c, cls *Class) bool {
	return c.IsSubclassOf(cls)
}

// ---------------------------------------------------------------------------
// Generic attribute access for instances
// ---------------------------------------------------------------------------

// storeOf returns obj's own attribute store, or nil.
func storeOf(obj Value) *AttrStore {
	if o, ok := obj.(*Object); ok {
		return o.store
	}
	return nil
}

// GenericGetAttr resolves an attribute with the standard precedence:
// data descriptor on the class, then the instance's own store, then a
// non-data descriptor or plain value on the class.
func GenericGetAttr(rt *Runtime, obj Value, name string) (Value, error) {
	tp := rt.TypeOf(obj)
	descr := rt.LookupInMRO(tp, name)

	var get DescrGetFunc
	if descr != nil {
		get = rt.descrGetter(descr)
		if get != nil && rt.descrSetter(descr) != nil {
			return get(rt, descr, obj, tp)
		}
	}

	if store := storeOf(obj); store != nil {
		rt.mu.RLock()
		v, ok := store.Get(name)
		rt.mu.RUnlock()
		if ok {
			return v, nil
		}
	}

	if get != nil {
		return get(rt, descr, obj, tp)
	}
	if descr != nil {
		return descr, nil
	}
	return nil, AttributeError(tp.Name, name, "'%s' object has no attribute '%s'", tp.Name, name)
}

// GenericSetAttr stores or deletes (value == nil) an attribute: through a
// data descriptor on the class if there is one, otherwise in the instance's
// own store.
func GenericSetAttr(rt *Runtime, obj Value, name string, value Value) error {
	tp := rt.TypeOf(obj)
	descr := rt.LookupInMRO(tp, name)

	if descr != nil {
		if set := rt.descrSetter(descr); set != nil {
			return set(rt, descr, obj, value)
		}
	}

	store := storeOf(obj)
	if store == nil {
		if descr == nil {
			return AttributeError(tp.Name, name, "'%s' object has no attribute '%s'", tp.Name, name)
		}
		return AttributeError(tp.Name, name, "'%s' object attribute '%s' is read-only", tp.Name, name)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if value == nil {
		if !store.Delete(name) {
			return AttributeError(tp.Name, name, "'%s' object has no attribute '%s'", tp.Name, name)
		}
		return nil
	}
	store.Set(name, value)
	return nil
}

// ---------------------------------------------------------------------------
// Attribute access on classes
// ---------------------------------------------------------------------------

// typeGetattro resolves an attribute of a class: a data descriptor on the
// metaclass wins, then the class's own MRO (descriptors bound with no
// instance), then a non-data descriptor or plain value on the metaclass.
func typeGetattro(rt *Runtime, obj Value, name string) (Value, error) {
	c := obj.(*Class)
	meta := rt.TypeOf(c)

	metaAttr := rt.LookupInMRO(meta, name)
	var metaGet DescrGetFunc
	if metaAttr != nil {
		metaGet = rt.descrGetter(metaAttr)
		if metaGet != nil && rt.descrSetter(metaAttr) != nil {
			return metaGet(rt, metaAttr, c, meta)
		}
	}

	if attr := rt.LookupInMRO(c, name); attr != nil {
		if get := rt.descrGetter(attr); get != nil {
			return get(rt, attr, nil, c)
		}
		return attr, nil
	}

	if metaGet != nil {
		return metaGet(rt, metaAttr, c, meta)
	}
	if metaAttr != nil {
		return metaAttr, nil
	}
	return nil, AttributeError(c.Name, name, "type object '%s' has no attribute '%s'", c.Name, name)
}

// typeSetattro writes or deletes a class attribute and re-synchronizes the
// matching slot when name is a dunder.
func typeSetattro(rt *Runtime, obj Value, name string, value Value) error {
	c := obj.(*Class)
	if c.Flags&FlagImmutable != 0 {
		return TypeErrorFor(c.Name, "cannot set '%s' attribute of immutable type '%s'", name, c.Name)
	}

	meta := rt.TypeOf(c)
	if metaAttr := rt.LookupInMRO(meta, name); metaAttr != nil {
		if set := rt.descrSetter(metaAttr); set != nil {
			return set(rt, metaAttr, c, value)
		}
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if value == nil {
		if !c.Dict.Delete(name) {
			return AttributeError(c.Name, name, "type object '%s' has no attribute '%s'", c.Name, name)
		}
	} else {
		c.Dict.Set(name, value)
	}
	if isDunder(name) {
		rt.updateSlot(c, name)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// Dir returns the sorted attribute names visible on obj: its own store plus
// every namespace in its class's MRO (or its own MRO for a class).
func (rt *Runtime) Dir(obj Value) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}

	if store := storeOf(obj); store != nil {
		for _, n := range store.Names() {
			add(n)
		}
	}
	cls, ok := obj.(*Class)
	if !ok {
		cls = rt.TypeOf(obj)
	}
	for _, m := range cls.MRO {
		for _, n := range m.Dict.Names() {
			add(n)
		}
	}
	slices.Sort(names)
	return names
}
