package vm

// ---------------------------------------------------------------------------
// Slot synchronization
// ---------------------------------------------------------------------------

// UpdateSlot re-synchronizes the slot(s) that dunder name maps onto after a
// write to c's namespace.
//
// Only c itself is updated. Subclasses finalized before the write keep the
// slot values they computed when they were created.
func (rt *Runtime) UpdateSlot(c *Class, name string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.updateSlot(c, name)
}

// updateSlot is UpdateSlot for callers holding the runtime lock.
func (rt *Runtime) updateSlot(c *Class, name string) {
	defs := slotdefsByName[name]
	for _, d := range defs {
		rt.updateOneSlot(c, d.slot)
	}
}

// SynchronizeSlots recomputes every slot of c from its namespace and MRO.
func (rt *Runtime) SynchronizeSlots(c *Class) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.synchronizeSlots(c)
}

func (rt *Runtime) synchronizeSlots(c *Class) {
	for id := SlotID(0); id < NumSlots; id++ {
		rt.updateOneSlot(c, id)
	}
}

// updateOneSlot considers every dunder name sharing slot id together.
//
// A native implementation is copied directly when every name that resolves
// finds a wrapper descriptor of that same implementation, defined on an
// ancestor of c for exactly this name. Anything else (an ordinary callable,
// or names resolving to different implementations) installs the generic
// trampoline. Nothing found clears the slot.
func (rt *Runtime) updateOneSlot(c *Class, id SlotID) {
	var specific, gen *SlotImpl
	useGeneric := false

	for _, p := range slotdefs {
		if p.slot != id {
			continue
		}
		descr := lookupInMRO(c, p.name)
		if descr == nil {
			if id == SlotNext {
				specific = nextNotImplemented
			}
			continue
		}

		switch d := descr.(type) {
		case *WrapperDescriptor:
			gen = trampolines[id]
			if d.def == p && c.IsSubclassOf(d.Owner) {
				if specific == nil || specific == d.impl {
					specific = d.impl
				} else {
					useGeneric = true
				}
			} else {
				useGeneric = true
			}
		case *NewWrapper:
			if id == SlotNew {
				specific = d.Impl
			} else {
				useGeneric = true
				gen = trampolines[id]
			}
		default:
			if id == SlotHash && isNone(descr) {
				specific = hashNotImplemented
			} else {
				useGeneric = true
				gen = trampolines[id]
			}
		}
	}

	impl := gen
	if specific != nil && !useGeneric {
		impl = specific
	}
	if old := c.Slot(id); old != impl {
		c.setSlot(id, impl)
		rt.debugf("%s: slot %s -> %s", c.Name, id, implName(impl))
	}
}

func implName(impl *SlotImpl) string {
	if impl == nil {
		return "absent"
	}
	return impl.Name
}

// ---------------------------------------------------------------------------
// Inheritance
// ---------------------------------------------------------------------------

// inheritSlots copies into c every slot it has not set itself from base,
// but only the ones base introduced (differing from base's own primary
// base). The rich comparison and hash slots are inherited together, and
// only when c's own namespace defines neither __eq__ nor __hash__.
func inheritSlots(c, base *Class) {
	basebase := base.Base
	for id := SlotID(0); id < NumSlots; id++ {
		switch id {
		case SlotNew, SlotRichCompare, SlotHash:
			continue
		}
		if c.Slot(id) != nil {
			continue
		}
		v := base.Slot(id)
		if v == nil || (basebase != nil && basebase.Slot(id) == v) {
			continue
		}
		c.setSlot(id, v)
	}

	if c.Slot(SlotRichCompare) == nil && c.Slot(SlotHash) == nil &&
		!c.Dict.Has("__eq__") && !c.Dict.Has("__hash__") {
		c.setSlot(SlotRichCompare, base.Slot(SlotRichCompare))
		c.setSlot(SlotHash, base.Slot(SlotHash))
	}
}

// addOperators publishes c's native slots in its namespace: a wrapper
// descriptor per dunder name that c does not already bind, or None for a
// disabled hash.
func addOperators(c *Class) {
	for _, p := range slotdefs {
		if p.wrapper == nil {
			continue
		}
		impl := c.Slot(p.slot)
		if impl == nil || c.Dict.Has(p.name) {
			continue
		}
		if impl == hashNotImplemented {
			c.Dict.Set(p.name, None)
			continue
		}
		c.Dict.Set(p.name, &WrapperDescriptor{Name: p.name, Owner: c, def: p, impl: impl})
	}
}

// readyClass finalizes c: solid base, MRO (unless already computed),
// native wrappers, slot inheritance and subclass registration. Callers hold
// the runtime lock.
func (rt *Runtime) readyClass(c *Class, native bool) error {
	c.solid = solidBase(c)
	if c.MRO == nil {
		mro, err := rt.ComputeMRO(c)
		if err != nil {
			return err
		}
		c.MRO = mro
	}

	if c.Slot(SlotNew) == nil && c.Base != nil && c.Flags&FlagNoInstances == 0 {
		c.setSlot(SlotNew, c.Base.Slot(SlotNew))
	} else if native && c.Slot(SlotNew) != nil && !c.Dict.Has("__new__") {
		c.Dict.Set("__new__", &NewWrapper{Owner: c, Impl: c.Slot(SlotNew)})
	}
	if native {
		addOperators(c)
	}

	for _, b := range c.MRO[1:] {
		inheritSlots(c, b)
	}
	for _, b := range c.Bases {
		b.addSubclass(c)
	}
	c.Flags |= FlagReady
	return nil
}
