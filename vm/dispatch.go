package vm

// ---------------------------------------------------------------------------
// Operator entry points
//
// Every entry point reads a single slot of the operand's class without
// taking the runtime lock.
// ---------------------------------------------------------------------------

// Call invokes callable with positional and keyword arguments.
func (rt *Runtime) Call(callable Value, args []Value, kw Kwargs) (Value, error) {
	impl := rt.TypeOf(callable).Slot(SlotCall)
	if impl == nil {
		return nil, TypeErrorFor(rt.TypeName(callable), "'%s' object is not callable", rt.TypeName(callable))
	}
	return impl.Fn.(CallFunc)(rt, callable, args, kw)
}

// Repr returns the representation string of v.
func (rt *Runtime) Repr(v Value) (string, error) {
	return rt.stringSlot(v, SlotRepr)
}

// Str returns the string conversion of v.
func (rt *Runtime) Str(v Value) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return rt.stringSlot(v, SlotStr)
}

func (rt *Runtime) stringSlot(v Value, id SlotID) (string, error) {
	impl := rt.TypeOf(v).Slot(id)
	if impl == nil {
		impl = rt.TypeOf(v).Slot(SlotRepr)
	}
	if impl == nil {
		return "<" + rt.TypeName(v) + " object>", nil
	}
	res, err := impl.Fn.(UnaryFunc)(rt, v)
	if err != nil {
		return "", err
	}
	s, ok := res.(string)
	if !ok {
		return "", TypeErrorFor(rt.TypeName(v), "__%s__ returned non-string (type %s)", id, rt.TypeName(res))
	}
	return s, nil
}

// Hash returns the hash of v.
func (rt *Runtime) Hash(v Value) (int64, error) {
	impl := rt.TypeOf(v).Slot(SlotHash)
	if impl == nil {
		return 0, UnhashableError(rt.TypeName(v))
	}
	return impl.Fn.(HashFunc)(rt, v)
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

// Compare evaluates a op b. When the right operand's class is a proper
// subclass of the left's and overrides the comparison, its reflected
// method is tried first. If neither side implements the comparison,
// equality falls back to identity and ordering is an error.
func (rt *Runtime) Compare(a, b Value, op CompareOp) (Value, error) {
	ta, tb := rt.TypeOf(a), rt.TypeOf(b)
	checkedReverse := false

	if ta != tb && tb.IsSubclassOf(ta) {
		if impl := tb.Slot(SlotRichCompare); impl != nil {
			checkedReverse = true
			res, err := impl.Fn.(RichCompareFunc)(rt, b, a, op.swapped())
			if err != nil || res != Value(NotImplemented) {
				return res, err
			}
		}
	}
	if impl := ta.Slot(SlotRichCompare); impl != nil {
		res, err := impl.Fn.(RichCompareFunc)(rt, a, b, op)
		if err != nil || res != Value(NotImplemented) {
			return res, err
		}
	}
	if !checkedReverse {
		if impl := tb.Slot(SlotRichCompare); impl != nil {
			res, err := impl.Fn.(RichCompareFunc)(rt, b, a, op.swapped())
			if err != nil || res != Value(NotImplemented) {
				return res, err
			}
		}
	}

	switch op {
	case OpEQ:
		return Is(a, b), nil
	case OpNE:
		return !Is(a, b), nil
	}
	return nil, newError(KindNotImplementedOp, ta.Name,
		"'%s' not supported between instances of '%s' and '%s'", op, ta.Name, tb.Name)
}

// Equal reports whether a == b is true.
func (rt *Runtime) Equal(a, b Value) (bool, error) {
	if Is(a, b) {
		return true, nil
	}
	res, err := rt.Compare(a, b, OpEQ)
	if err != nil {
		return false, err
	}
	return rt.Truth(res)
}

// ---------------------------------------------------------------------------
// Iteration
// ---------------------------------------------------------------------------

// Iter returns an iterator over v.
func (rt *Runtime) Iter(v Value) (Value, error) {
	impl := rt.TypeOf(v).Slot(SlotIter)
	if impl == nil {
		return nil, TypeErrorFor(rt.TypeName(v), "'%s' object is not iterable", rt.TypeName(v))
	}
	it, err := impl.Fn.(UnaryFunc)(rt, v)
	if err != nil {
		return nil, err
	}
	if next := rt.TypeOf(it).Slot(SlotNext); next == nil || next.Kind == SlotNoNext {
		return nil, TypeErrorFor(rt.TypeName(it), "iter() returned non-iterator of type '%s'", rt.TypeName(it))
	}
	return it, nil
}

// Next advances an iterator. ok is false once it is exhausted.
func (rt *Runtime) Next(it Value) (v Value, ok bool, err error) {
	impl := rt.TypeOf(it).Slot(SlotNext)
	if impl == nil {
		return nil, false, TypeErrorFor(rt.TypeName(it), "'%s' object is not an iterator", rt.TypeName(it))
	}
	v, err = impl.Fn.(UnaryFunc)(rt, it)
	if err != nil {
		return nil, false, err
	}
	return v, v != nil, nil
}

// ForEach calls fn for every item of v. Iteration stops at the first error.
func (rt *Runtime) ForEach(v Value, fn func(item Value) error) error {
	it, err := rt.Iter(v)
	if err != nil {
		return err
	}
	for {
		item, ok, err := rt.Next(it)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(item); err != nil {
			return err
		}
	}
}

var errStopSearch = &Error{Kind: KindStopIteration, Detail: "found"}

// iterSearch reports whether iterating v yields a value equal to item.
func (rt *Runtime) iterSearch(v, item Value) (bool, error) {
	found := false
	err := rt.ForEach(v, func(x Value) error {
		eq, err := rt.Equal(x, item)
		if err != nil {
			return err
		}
		if eq {
			found = true
			return errStopSearch
		}
		return nil
	})
	if err == errStopSearch {
		err = nil
	}
	return found, err
}

// ---------------------------------------------------------------------------
// Containers
// ---------------------------------------------------------------------------

// Len returns the length of v.
func (rt *Runtime) Len(v Value) (int, error) {
	impl := rt.TypeOf(v).Slot(SlotLen)
	if impl == nil {
		return 0, TypeErrorFor(rt.TypeName(v), "object of type '%s' has no len()", rt.TypeName(v))
	}
	return impl.Fn.(LenFunc)(rt, v)
}

// GetItem returns v[key].
func (rt *Runtime) GetItem(v, key Value) (Value, error) {
	impl := rt.TypeOf(v).Slot(SlotGetItem)
	if impl == nil {
		return nil, TypeErrorFor(rt.TypeName(v), "'%s' object is not subscriptable", rt.TypeName(v))
	}
	return impl.Fn.(BinaryFunc)(rt, v, key)
}

// SetItem performs v[key] = value.
func (rt *Runtime) SetItem(v, key, value Value) error {
	impl := rt.TypeOf(v).Slot(SlotSetItem)
	if impl == nil {
		return TypeErrorFor(rt.TypeName(v), "'%s' object does not support item assignment", rt.TypeName(v))
	}
	return impl.Fn.(SetItemFunc)(rt, v, key, value)
}

// DelItem performs del v[key].
func (rt *Runtime) DelItem(v, key Value) error {
	impl := rt.TypeOf(v).Slot(SlotSetItem)
	if impl == nil {
		return TypeErrorFor(rt.TypeName(v), "'%s' object does not support item deletion", rt.TypeName(v))
	}
	return impl.Fn.(SetItemFunc)(rt, v, key, nil)
}

// Contains reports whether item is in v.
func (rt *Runtime) Contains(v, item Value) (bool, error) {
	impl := rt.TypeOf(v).Slot(SlotContains)
	if impl == nil {
		return rt.iterSearch(v, item)
	}
	return impl.Fn.(ContainsFunc)(rt, v, item)
}

// Truth returns the truth value of v.
func (rt *Runtime) Truth(v Value) (bool, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case nil:
		return false, nil
	}
	if isNone(v) {
		return false, nil
	}
	tp := rt.TypeOf(v)
	if impl := tp.Slot(SlotBool); impl != nil {
		return impl.Fn.(InquiryFunc)(rt, v)
	}
	if impl := tp.Slot(SlotLen); impl != nil {
		n, err := impl.Fn.(LenFunc)(rt, v)
		return n != 0, err
	}
	return true, nil
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

// Add returns a + b.
func (rt *Runtime) Add(a, b Value) (Value, error) { return rt.binaryOp(a, b, SlotAdd, "+") }

// Sub returns a - b.
func (rt *Runtime) Sub(a, b Value) (Value, error) { return rt.binaryOp(a, b, SlotSub, "-") }

// Mul returns a * b.
func (rt *Runtime) Mul(a, b Value) (Value, error) { return rt.binaryOp(a, b, SlotMul, "*") }

// Neg returns -v.
func (rt *Runtime) Neg(v Value) (Value, error) {
	impl := rt.TypeOf(v).Slot(SlotNeg)
	if impl == nil {
		return nil, TypeErrorFor(rt.TypeName(v), "bad operand type for unary -: '%s'", rt.TypeName(v))
	}
	return impl.Fn.(UnaryFunc)(rt, v)
}

// binaryOp tries the left operand's slot, then the right operand's. A right
// operand whose class is a proper subclass of the left's goes first.
func (rt *Runtime) binaryOp(a, b Value, id SlotID, sym string) (Value, error) {
	ta, tb := rt.TypeOf(a), rt.TypeOf(b)
	slotA := ta.Slot(id)
	var slotB *SlotImpl
	if ta != tb {
		slotB = tb.Slot(id)
		if slotB == slotA {
			slotB = nil
		}
	}

	if slotA != nil {
		if slotB != nil && tb.IsSubclassOf(ta) {
			res, err := slotB.Fn.(BinaryFunc)(rt, a, b)
			if err != nil || res != Value(NotImplemented) {
				return res, err
			}
			slotB = nil
		}
		res, err := slotA.Fn.(BinaryFunc)(rt, a, b)
		if err != nil || res != Value(NotImplemented) {
			return res, err
		}
	}
	if slotB != nil {
		res, err := slotB.Fn.(BinaryFunc)(rt, a, b)
		if err != nil || res != Value(NotImplemented) {
			return res, err
		}
	}
	return nil, UnsupportedOperands(sym, ta.Name, tb.Name)
}
