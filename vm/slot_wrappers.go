package vm

// ---------------------------------------------------------------------------
// Wrapper functions: call a native slot through its dunder name
// ---------------------------------------------------------------------------

func checkArity(def *slotDef, args []Value, kw Kwargs, n int) error {
	if len(kw) != 0 {
		return TypeError("wrapper %s() takes no keyword arguments", def.name)
	}
	if len(args) != n {
		return TypeError("expected %d argument(s) for %s(), got %d", n, def.name, len(args))
	}
	return nil
}

func wrapUnary(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 0); err != nil {
		return nil, err
	}
	return impl.Fn.(UnaryFunc)(rt, self)
}

func wrapNext(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 0); err != nil {
		return nil, err
	}
	res, err := impl.Fn.(UnaryFunc)(rt, self)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, StopIteration()
	}
	return res, nil
}

func wrapHash(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 0); err != nil {
		return nil, err
	}
	h, err := impl.Fn.(HashFunc)(rt, self)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func wrapCall(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	return impl.Fn.(CallFunc)(rt, self, args, kw)
}

func attrName(args []Value) (string, error) {
	name, ok := args[0].(string)
	if !ok {
		return "", TypeError("attribute name must be string, not '%T'", args[0])
	}
	return name, nil
}

func wrapGetattr(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 1); err != nil {
		return nil, err
	}
	name, err := attrName(args)
	if err != nil {
		return nil, err
	}
	return impl.Fn.(GetattroFunc)(rt, self, name)
}

func wrapSetattr(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 2); err != nil {
		return nil, err
	}
	name, err := attrName(args)
	if err != nil {
		return nil, err
	}
	return None, impl.Fn.(SetattroFunc)(rt, self, name, args[1])
}

func wrapDelattr(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 1); err != nil {
		return nil, err
	}
	name, err := attrName(args)
	if err != nil {
		return nil, err
	}
	return None, impl.Fn.(SetattroFunc)(rt, self, name, nil)
}

func wrapRichCompare(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 1); err != nil {
		return nil, err
	}
	return impl.Fn.(RichCompareFunc)(rt, self, args[0], def.op)
}

func wrapDescrGet(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if len(kw) != 0 || len(args) < 1 || len(args) > 2 {
		return nil, TypeError("__get__ expected 1 or 2 arguments, got %d", len(args))
	}
	instance := nilIfNone(args[0])
	var owner *Class
	if len(args) == 2 && !isNone(args[1]) {
		c, ok := args[1].(*Class)
		if !ok {
			return nil, TypeError("__get__(None, None) is invalid")
		}
		owner = c
	}
	if instance == nil && owner == nil {
		return nil, TypeError("__get__(None, None) is invalid")
	}
	return impl.Fn.(DescrGetFunc)(rt, self, instance, owner)
}

func wrapDescrSet(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 2); err != nil {
		return nil, err
	}
	return None, impl.Fn.(DescrSetFunc)(rt, self, args[0], args[1])
}

func wrapDescrDelete(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 1); err != nil {
		return nil, err
	}
	return None, impl.Fn.(DescrSetFunc)(rt, self, args[0], nil)
}

func wrapInit(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	return None, impl.Fn.(InitFunc)(rt, self, args, kw)
}

func wrapBinaryLeft(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 1); err != nil {
		return nil, err
	}
	return impl.Fn.(BinaryFunc)(rt, self, args[0])
}

func wrapBinaryRight(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 1); err != nil {
		return nil, err
	}
	return impl.Fn.(BinaryFunc)(rt, args[0], self)
}

func wrapInquiry(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 0); err != nil {
		return nil, err
	}
	b, err := impl.Fn.(InquiryFunc)(rt, self)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func wrapLen(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 0); err != nil {
		return nil, err
	}
	n, err := impl.Fn.(LenFunc)(rt, self)
	if err != nil {
		return nil, err
	}
	return int64(n), nil
}

func wrapSetItem(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 2); err != nil {
		return nil, err
	}
	return None, impl.Fn.(SetItemFunc)(rt, self, args[0], args[1])
}

func wrapDelItem(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 1); err != nil {
		return nil, err
	}
	return None, impl.Fn.(SetItemFunc)(rt, self, args[0], nil)
}

func wrapContains(rt *Runtime, def *slotDef, impl *SlotImpl, self Value, args []Value, kw Kwargs) (Value, error) {
	if err := checkArity(def, args, kw, 1); err != nil {
		return nil, err
	}
	b, err := impl.Fn.(ContainsFunc)(rt, self, args[0])
	if err != nil {
		return nil, err
	}
	return b, nil
}
