package vm

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// ---------------------------------------------------------------------------
// object
// ---------------------------------------------------------------------------

func (rt *Runtime) objectSpec() NativeClass {
	return NativeClass{
		Name:  "object",
		Doc:   "The base class of the class hierarchy.",
		Basis: BasisObject,
		Slots: []*SlotImpl{
			NewSlot(SlotRepr, "object_repr", UnaryFunc(objectRepr)),
			NewSlot(SlotStr, "object_str", UnaryFunc(objectStr)),
			NewSlot(SlotHash, "object_hash", HashFunc(objectHash)),
			NewSlot(SlotGetattro, "generic_getattr", GetattroFunc(GenericGetAttr)),
			NewSlot(SlotSetattro, "generic_setattr", SetattroFunc(GenericSetAttr)),
			NewSlot(SlotRichCompare, "object_richcompare", RichCompareFunc(objectRichCompare)),
			rt.objectInit,
			rt.objectNew,
		},
		Methods: []MethodDef{
			{Name: "__init_subclass__", Fn: objectInitSubclass, Class: true,
				Doc: "Called when a class is subclassed."},
			{Name: "__dir__", Fn: objectDir},
		},
		GetSets: []GetSetDef{
			{Name: "__class__", Get: objectClassGet, Set: objectClassSet},
		},
	}
}

// identityHash hashes a value by identity.
func identityHash(v Value) int64 {
	switch v := v.(type) {
	case *Object:
		return int64(v.ID())
	case *Class:
		return int64(v.ID)
	}
	return int64(xxh3.HashString(fmt.Sprintf("%T:%p", v, v)) >> 1)
}

func objectRepr(rt *Runtime, self Value) (Value, error) {
	return fmt.Sprintf("<%s object at %#x>", rt.TypeName(self), uint64(identityHash(self))), nil
}

func objectStr(rt *Runtime, self Value) (Value, error) {
	impl := rt.TypeOf(self).Slot(SlotRepr)
	if impl == nil {
		return objectRepr(rt, self)
	}
	return impl.Fn.(UnaryFunc)(rt, self)
}

func objectHash(rt *Runtime, self Value) (int64, error) {
	return identityHash(self), nil
}

// objectRichCompare implements identity equality; != inverts the class's
// own == when that is implemented.
func objectRichCompare(rt *Runtime, self, other Value, op CompareOp) (Value, error) {
	switch op {
	case OpEQ:
		if Is(self, other) {
			return true, nil
		}
		return NotImplemented, nil
	case OpNE:
		impl := rt.TypeOf(self).Slot(SlotRichCompare)
		if impl == nil {
			return NotImplemented, nil
		}
		res, err := impl.Fn.(RichCompareFunc)(rt, self, other, OpEQ)
		if err != nil || res == Value(NotImplemented) {
			return res, err
		}
		b, err := rt.Truth(res)
		if err != nil {
			return nil, err
		}
		return !b, nil
	}
	return NotImplemented, nil
}

func objectInitSubclass(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	if len(args) > 0 || len(kw) > 0 {
		return nil, TypeErrorFor(self.(*Class).Name, "%s.__init_subclass__() takes no keyword arguments", self.(*Class).Name)
	}
	return None, nil
}

func objectDir(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	names := rt.Dir(self)
	t := make(Tuple, len(names))
	for i, n := range names {
		t[i] = n
	}
	return t, nil
}

func objectClassGet(rt *Runtime, obj Value) (Value, error) {
	return rt.TypeOf(obj), nil
}

// objectClassSet implements __class__ assignment between layout-compatible
// heap classes.
func objectClassSet(rt *Runtime, obj Value, value Value) error {
	if value == nil {
		return TypeError("can't delete __class__ attribute")
	}
	cls, ok := value.(*Class)
	if !ok {
		return TypeError("__class__ must be set to a class, not '%s' object", rt.TypeName(value))
	}
	o, ok := obj.(*Object)
	if !ok {
		return TypeError("__class__ assignment only supported for heap types")
	}
	if err := compatibleForAssignment(o.Class(), cls); err != nil {
		return err
	}
	rt.mu.Lock()
	o.class.Store(cls)
	rt.mu.Unlock()
	return nil
}

// ---------------------------------------------------------------------------
// type
// ---------------------------------------------------------------------------

func (rt *Runtime) typeSpec() NativeClass {
	return NativeClass{
		Name:  "type",
		Doc:   "type(object) -> the object's type\ntype(name, bases, dict, **kwds) -> a new type",
		Basis: BasisClass,
		Slots: []*SlotImpl{
			NewSlot(SlotRepr, "type_repr", UnaryFunc(typeRepr)),
			NewSlot(SlotCall, "type_call", CallFunc(typeCall)),
			NewSlot(SlotGetattro, "type_getattro", GetattroFunc(typeGetattro)),
			NewSlot(SlotSetattro, "type_setattro", SetattroFunc(typeSetattro)),
			NewSlot(SlotInit, "type_init", InitFunc(typeInit)),
			rt.typeNew,
		},
		Methods: []MethodDef{
			{Name: "mro", Fn: typeMroMethod, Doc: "Return a type's method resolution order."},
			{Name: "__subclasses__", Fn: typeSubclasses, Doc: "Return a list of immediate subclasses."},
		},
		GetSets: []GetSetDef{
			{Name: "__name__", Get: typeNameGet, Set: typeNameSet},
			{Name: "__bases__", Get: typeBasesGet},
			{Name: "__base__", Get: typeBaseGet},
			{Name: "__mro__", Get: typeMroGet},
			{Name: "__dict__", Get: typeDictGet},
		},
	}
}

func classTuple(cs []*Class) Tuple {
	t := make(Tuple, len(cs))
	for i, c := range cs {
		t[i] = c
	}
	return t
}

func typeRepr(rt *Runtime, self Value) (Value, error) {
	return fmt.Sprintf("<class '%s'>", self.(*Class).Name), nil
}

func typeMroMethod(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	mro, err := rt.ComputeMRO(self.(*Class))
	if err != nil {
		return nil, err
	}
	return classTuple(mro), nil
}

func typeSubclasses(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return classTuple(self.(*Class).liveSubclasses()), nil
}

func typeNameGet(rt *Runtime, obj Value) (Value, error) {
	return obj.(*Class).Name, nil
}

func typeNameSet(rt *Runtime, obj Value, value Value) error {
	c := obj.(*Class)
	if value == nil {
		return TypeErrorFor(c.Name, "cannot delete '__name__' attribute of type '%s'", c.Name)
	}
	s, ok := value.(string)
	if !ok {
		return TypeErrorFor(c.Name, "can only assign string to %s.__name__, not '%s'", c.Name, rt.TypeName(value))
	}
	if !c.IsHeapType() {
		return TypeErrorFor(c.Name, "cannot set '__name__' attribute of immutable type '%s'", c.Name)
	}
	rt.mu.Lock()
	c.Name = s
	rt.mu.Unlock()
	return nil
}

func typeBasesGet(rt *Runtime, obj Value) (Value, error) {
	return classTuple(obj.(*Class).Bases), nil
}

func typeBaseGet(rt *Runtime, obj Value) (Value, error) {
	if b := obj.(*Class).Base; b != nil {
		return b, nil
	}
	return None, nil
}

func typeMroGet(rt *Runtime, obj Value) (Value, error) {
	return classTuple(obj.(*Class).MRO), nil
}

// typeDictGet returns a snapshot of the class namespace.
func typeDictGet(rt *Runtime, obj Value) (Value, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return DictFromNamespace(obj.(*Class).Dict), nil
}
