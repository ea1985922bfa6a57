package vm

// ---------------------------------------------------------------------------
// Special method lookup
// ---------------------------------------------------------------------------

// lookupSpecial finds name on self's class, skipping the instance store.
// Functions and native method descriptors are returned unbound (the caller
// passes self explicitly); other descriptors are bound to self.
func (rt *Runtime) lookupSpecial(self Value, name string) (fn Value, unbound bool, err error) {
	tp := rt.TypeOf(self)
	res := rt.LookupInMRO(tp, name)
	if res == nil {
		return nil, false, nil
	}
	switch d := res.(type) {
	case *Function, *WrapperDescriptor:
		return res, true, nil
	case *MethodDescriptor:
		if !d.Static {
			return res, true, nil
		}
	}
	if get := rt.descrGetter(res); get != nil {
		v, err := get(rt, res, self, tp)
		return v, false, err
	}
	return res, false, nil
}

func (rt *Runtime) callSpecial(fn Value, unbound bool, self Value, args []Value, kw Kwargs) (Value, error) {
	if unbound {
		args = prepend(self, args)
	}
	return rt.Call(fn, args, kw)
}

// callMethod calls the special method name of self. A missing method is an
// attribute error.
func (rt *Runtime) callMethod(self Value, name string, args ...Value) (Value, error) {
	fn, unbound, err := rt.lookupSpecial(self, name)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		tp := rt.TypeName(self)
		return nil, AttributeError(tp, name, "'%s' object has no attribute '%s'", tp, name)
	}
	return rt.callSpecial(fn, unbound, self, args, nil)
}

// callMaybe is callMethod that reports a missing method as NotImplemented.
func (rt *Runtime) callMaybe(self Value, name string, args ...Value) (Value, error) {
	fn, unbound, err := rt.lookupSpecial(self, name)
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return NotImplemented, nil
	}
	return rt.callSpecial(fn, unbound, self, args, nil)
}

// ---------------------------------------------------------------------------
// Generic slot implementations
// ---------------------------------------------------------------------------

func slotRepr(rt *Runtime, self Value) (Value, error) {
	res, err := rt.callMethod(self, "__repr__")
	if err != nil {
		return nil, err
	}
	if _, ok := res.(string); !ok {
		return nil, TypeErrorFor(rt.TypeName(self), "__repr__ returned non-string (type %s)", rt.TypeName(res))
	}
	return res, nil
}

func slotStr(rt *Runtime, self Value) (Value, error) {
	res, err := rt.callMethod(self, "__str__")
	if err != nil {
		return nil, err
	}
	if _, ok := res.(string); !ok {
		return nil, TypeErrorFor(rt.TypeName(self), "__str__ returned non-string (type %s)", rt.TypeName(res))
	}
	return res, nil
}

func slotHash(rt *Runtime, self Value) (int64, error) {
	fn, unbound, err := rt.lookupSpecial(self, "__hash__")
	if err != nil {
		return 0, err
	}
	if fn == nil || isNone(fn) {
		return 0, UnhashableError(rt.TypeName(self))
	}
	res, err := rt.callSpecial(fn, unbound, self, nil, nil)
	if err != nil {
		return 0, err
	}
	h, ok := toInt64(res)
	if !ok {
		return 0, TypeErrorFor(rt.TypeName(self), "__hash__ method should return an integer")
	}
	return h, nil
}

func slotCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	fn, unbound, err := rt.lookupSpecial(self, "__call__")
	if err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, TypeErrorFor(rt.TypeName(self), "'%s' object is not callable", rt.TypeName(self))
	}
	return rt.callSpecial(fn, unbound, self, args, kw)
}

// slotGetattrHook resolves through __getattribute__ and falls back to
// __getattr__ on an attribute miss.
func slotGetattrHook(rt *Runtime, obj Value, name string) (Value, error) {
	tp := rt.TypeOf(obj)

	var res Value
	var err error
	getattribute := rt.LookupInMRO(tp, "__getattribute__")
	if w, ok := getattribute.(*WrapperDescriptor); ok && w.def.slot == SlotGetattro && w.impl.Kind == SlotNative {
		res, err = w.impl.Fn.(GetattroFunc)(rt, obj, name)
	} else {
		res, err = rt.callMethod(obj, "__getattribute__", name)
	}
	if err == nil || !IsAttributeNotFound(err) {
		return res, err
	}

	getattr, unbound, lerr := rt.lookupSpecial(obj, "__getattr__")
	if lerr != nil {
		return nil, lerr
	}
	if getattr == nil {
		return nil, err
	}
	return rt.callSpecial(getattr, unbound, obj, []Value{name}, nil)
}

func slotSetattro(rt *Runtime, obj Value, name string, value Value) error {
	var err error
	if value == nil {
		_, err = rt.callMethod(obj, "__delattr__", name)
	} else {
		_, err = rt.callMethod(obj, "__setattr__", name, value)
	}
	return err
}

func slotRichCompare(rt *Runtime, self, other Value, op CompareOp) (Value, error) {
	return rt.callMaybe(self, compareDunders[op], other)
}

func slotIter(rt *Runtime, self Value) (Value, error) {
	fn, unbound, err := rt.lookupSpecial(self, "__iter__")
	if err != nil {
		return nil, err
	}
	if fn == nil || isNone(fn) {
		return nil, TypeErrorFor(rt.TypeName(self), "'%s' object is not iterable", rt.TypeName(self))
	}
	return rt.callSpecial(fn, unbound, self, nil, nil)
}

func slotNext(rt *Runtime, self Value) (Value, error) {
	res, err := rt.callMethod(self, "__next__")
	if err != nil {
		if IsStopIteration(err) {
			return nil, nil
		}
		return nil, err
	}
	return res, nil
}

func slotDescrGet(rt *Runtime, descr, instance Value, owner *Class) (Value, error) {
	fn, unbound, err := rt.lookupSpecial(descr, "__get__")
	if err != nil || fn == nil {
		return descr, err
	}
	var ownerArg Value = None
	if owner != nil {
		ownerArg = owner
	}
	return rt.callSpecial(fn, unbound, descr, []Value{noneIfNil(instance), ownerArg}, nil)
}

func slotDescrSet(rt *Runtime, descr, instance, value Value) error {
	var err error
	if value == nil {
		_, err = rt.callMethod(descr, "__delete__", instance)
	} else {
		_, err = rt.callMethod(descr, "__set__", instance, value)
	}
	return err
}

func slotInit(rt *Runtime, self Value, args []Value, kw Kwargs) error {
	fn, unbound, err := rt.lookupSpecial(self, "__init__")
	if err != nil {
		return err
	}
	if fn == nil {
		return nil
	}
	res, err := rt.callSpecial(fn, unbound, self, args, kw)
	if err != nil {
		return err
	}
	if !isNone(res) {
		tp := rt.TypeName(self)
		return ConstructionError(tp, "__init__() should return None, not '%s'", rt.TypeName(res))
	}
	return nil
}

// slotNew looks __new__ up on the class itself, so a staticmethod yields
// the plain function, and calls it with the class prepended.
func slotNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	fn, err := rt.GetAttr(cls, "__new__")
	if err != nil {
		return nil, err
	}
	if rt.TypeOf(fn).Slot(SlotCall) == nil {
		return nil, ConstructionError(cls.Name, "__new__ of '%s' is not callable", cls.Name)
	}
	return rt.Call(fn, prepend(cls, args), kw)
}

// binarySlot builds the generic implementation of a binary operator. It
// is installed on both operands' classes, so it tries the reflected method
// of the right operand itself when that operand's class shares the same
// generic slot.
func binarySlot(id SlotID, name, rname string) func(rt *Runtime, self, other Value) (Value, error) {
	return func(rt *Runtime, self, other Value) (Value, error) {
		tself, tother := rt.TypeOf(self), rt.TypeOf(other)
		gen := trampolines[id]
		doOther := tself != tother && tother.Slot(id) == gen

		if tself.Slot(id) == gen {
			if doOther && tother.IsSubclassOf(tself) && rt.methodIsOverloaded(tself, tother, rname) {
				r, err := rt.callMaybe(other, rname, self)
				if err != nil || r != Value(NotImplemented) {
					return r, err
				}
				doOther = false
			}
			r, err := rt.callMaybe(self, name, other)
			if err != nil || r != Value(NotImplemented) || tother == tself {
				return r, err
			}
		}
		if doOther {
			return rt.callMaybe(other, rname, self)
		}
		return NotImplemented, nil
	}
}

// methodIsOverloaded reports whether sub binds name to something other than
// what base binds it to.
func (rt *Runtime) methodIsOverloaded(base, sub *Class, name string) bool {
	a := rt.LookupInMRO(sub, name)
	if a == nil {
		return false
	}
	b := rt.LookupInMRO(base, name)
	return b == nil || !Is(a, b)
}

func slotNeg(rt *Runtime, self Value) (Value, error) {
	return rt.callMethod(self, "__neg__")
}

// slotBool uses __bool__, then __len__; a class with neither is true.
func slotBool(rt *Runtime, self Value) (bool, error) {
	fn, unbound, err := rt.lookupSpecial(self, "__bool__")
	if err != nil {
		return false, err
	}
	if fn != nil {
		res, err := rt.callSpecial(fn, unbound, self, nil, nil)
		if err != nil {
			return false, err
		}
		b, ok := res.(bool)
		if !ok {
			return false, TypeErrorFor(rt.TypeName(self), "__bool__ should return bool, returned %s", rt.TypeName(res))
		}
		return b, nil
	}
	fn, unbound, err = rt.lookupSpecial(self, "__len__")
	if err != nil {
		return false, err
	}
	if fn == nil {
		return true, nil
	}
	res, err := rt.callSpecial(fn, unbound, self, nil, nil)
	if err != nil {
		return false, err
	}
	n, ok := toInt64(res)
	if !ok {
		return false, TypeError("'%s' object cannot be interpreted as an integer", rt.TypeName(res))
	}
	return n != 0, nil
}

func slotLen(rt *Runtime, self Value) (int, error) {
	res, err := rt.callMethod(self, "__len__")
	if err != nil {
		return 0, err
	}
	n, ok := toInt64(res)
	if !ok {
		return 0, TypeError("'%s' object cannot be interpreted as an integer", rt.TypeName(res))
	}
	if n < 0 {
		return 0, TypeErrorFor(rt.TypeName(self), "__len__() should return >= 0")
	}
	return int(n), nil
}

func slotGetItem(rt *Runtime, self, key Value) (Value, error) {
	return rt.callMethod(self, "__getitem__", key)
}

func slotSetItem(rt *Runtime, self, key, value Value) error {
	var err error
	if value == nil {
		_, err = rt.callMethod(self, "__delitem__", key)
	} else {
		_, err = rt.callMethod(self, "__setitem__", key, value)
	}
	return err
}

// slotContains uses __contains__, or searches by iteration when the class
// has none.
func slotContains(rt *Runtime, self, item Value) (bool, error) {
	fn, unbound, err := rt.lookupSpecial(self, "__contains__")
	if err != nil {
		return false, err
	}
	if fn == nil {
		return rt.iterSearch(self, item)
	}
	if isNone(fn) {
		return false, TypeErrorFor(rt.TypeName(self), "'%s' object is not a container", rt.TypeName(self))
	}
	res, err := rt.callSpecial(fn, unbound, self, []Value{item}, nil)
	if err != nil {
		return false, err
	}
	return rt.Truth(res)
}
