package vm

import "fmt"

// ---------------------------------------------------------------------------
// Native descriptors
// ---------------------------------------------------------------------------

// NativeMethod is the Go implementation of a method of a native class.
type NativeMethod func(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error)

// GetterFunc reads a computed attribute.
type GetterFunc func(rt *Runtime, obj Value) (Value, error)

// SetterFunc writes a computed attribute. A nil value deletes it.
type SetterFunc func(rt *Runtime, obj Value, value Value) error

// MethodDescriptor exposes a native method in a class namespace.
// A Static descriptor binds to the class instead of the instance.
type MethodDescriptor struct {
	Name   string
	Owner  *Class
	Fn     NativeMethod
	Static bool
	Doc    string
}

// BuiltinMethod is a native method bound to its receiver.
type BuiltinMethod struct {
	Name string
	Self Value
	Fn   NativeMethod
}

// GetSetDescriptor exposes a computed attribute of a native class.
// It is always a data descriptor; a nil Set makes it read-only.
type GetSetDescriptor struct {
	Name  string
	Owner *Class
	Get   GetterFunc
	Set   SetterFunc
	Doc   string
}

// MemberDescriptor exposes one fixed member field declared with __slots__.
type MemberDescriptor struct {
	Name     string
	Owner    *Class
	Index    int
	ReadOnly bool
}

// WrapperDescriptor exposes a native slot implementation under its dunder
// name.
type WrapperDescriptor struct {
	Name  string
	Owner *Class
	def   *slotDef
	impl  *SlotImpl
}

// Impl returns the wrapped slot implementation.
func (d *WrapperDescriptor) Impl() *SlotImpl { return d.impl }

// MethodWrapper is a WrapperDescriptor bound to an instance.
type MethodWrapper struct {
	Descr *WrapperDescriptor
	Self  Value
}

// NewWrapper exposes a native class's constructor as its __new__.
type NewWrapper struct {
	Owner *Class
	Impl  *SlotImpl
}

func ownerName(c *Class) string {
	if c == nil {
		return "?"
	}
	return c.Name
}

func (rt *Runtime) checkDescrSelf(name string, owner *Class, self Value) error {
	if owner != nil && !rt.IsInstance(self, owner) {
		return TypeErrorFor(rt.TypeName(self), "descriptor '%s' for '%s' objects doesn't apply to a '%s' object",
			name, owner.Name, rt.TypeName(self))
	}
	return nil
}

// ---------------------------------------------------------------------------
// method_descriptor / classmethod_descriptor / builtin_function_or_method
// ---------------------------------------------------------------------------

func methodDescrGet(rt *Runtime, descr, instance Value, owner *Class) (Value, error) {
	d := descr.(*MethodDescriptor)
	if d.Static {
		if owner == nil {
			owner = rt.TypeOf(instance)
		}
		if d.Owner != nil && !owner.IsSubclassOf(d.Owner) {
			return nil, TypeErrorFor(owner.Name, "descriptor '%s' for type '%s' doesn't apply to type '%s'",
				d.Name, d.Owner.Name, owner.Name)
		}
		return &BuiltinMethod{Name: d.Name, Self: owner, Fn: d.Fn}, nil
	}
	if instance == nil {
		return d, nil
	}
	if err := rt.checkDescrSelf(d.Name, d.Owner, instance); err != nil {
		return nil, err
	}
	return &BuiltinMethod{Name: d.Name, Self: instance, Fn: d.Fn}, nil
}

func methodDescrCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	d := self.(*MethodDescriptor)
	if len(args) < 1 {
		return nil, TypeError("descriptor '%s' of '%s' object needs an argument", d.Name, ownerName(d.Owner))
	}
	if d.Static {
		cls, ok := args[0].(*Class)
		if !ok || (d.Owner != nil && !cls.IsSubclassOf(d.Owner)) {
			return nil, TypeError("descriptor '%s' for type '%s' needs a subtype of '%s' as arg 1",
				d.Name, ownerName(d.Owner), ownerName(d.Owner))
		}
	} else if err := rt.checkDescrSelf(d.Name, d.Owner, args[0]); err != nil {
		return nil, err
	}
	return d.Fn(rt, args[0], args[1:], kw)
}

func methodDescrRepr(rt *Runtime, self Value) (Value, error) {
	d := self.(*MethodDescriptor)
	return fmt.Sprintf("<method '%s' of '%s' objects>", d.Name, ownerName(d.Owner)), nil
}

func builtinMethodCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	switch m := self.(type) {
	case *BuiltinMethod:
		return m.Fn(rt, m.Self, args, kw)
	case *NewWrapper:
		return newWrapperCall(rt, m, args, kw)
	}
	return nil, TypeErrorFor(rt.TypeName(self), "'%s' object is not callable", rt.TypeName(self))
}

func builtinMethodRepr(rt *Runtime, self Value) (Value, error) {
	switch m := self.(type) {
	case *BuiltinMethod:
		return fmt.Sprintf("<built-in method %s of %s object>", m.Name, rt.TypeName(m.Self)), nil
	case *NewWrapper:
		return fmt.Sprintf("<built-in method __new__ of type object '%s'>", m.Owner.Name), nil
	}
	return "<built-in function>", nil
}

// ---------------------------------------------------------------------------
// getset_descriptor
// ---------------------------------------------------------------------------

func getsetDescrGet(rt *Runtime, descr, instance Value, owner *Class) (Value, error) {
	d := descr.(*GetSetDescriptor)
	if instance == nil {
		return d, nil
	}
	if err := rt.checkDescrSelf(d.Name, d.Owner, instance); err != nil {
		return nil, err
	}
	if d.Get == nil {
		return nil, AttributeError(ownerName(d.Owner), d.Name,
			"attribute '%s' of '%s' objects is not readable", d.Name, ownerName(d.Owner))
	}
	return d.Get(rt, instance)
}

func getsetDescrSet(rt *Runtime, descr, instance, value Value) error {
	d := descr.(*GetSetDescriptor)
	if err := rt.checkDescrSelf(d.Name, d.Owner, instance); err != nil {
		return err
	}
	if d.Set == nil {
		return AttributeError(ownerName(d.Owner), d.Name,
			"attribute '%s' of '%s' objects is not writable", d.Name, ownerName(d.Owner))
	}
	return d.Set(rt, instance, value)
}

func getsetDescrRepr(rt *Runtime, self Value) (Value, error) {
	d := self.(*GetSetDescriptor)
	return fmt.Sprintf("<attribute '%s' of '%s' objects>", d.Name, ownerName(d.Owner)), nil
}

// ---------------------------------------------------------------------------
// member_descriptor
// ---------------------------------------------------------------------------

func memberDescrGet(rt *Runtime, descr, instance Value, owner *Class) (Value, error) {
	d := descr.(*MemberDescriptor)
	if instance == nil {
		return d, nil
	}
	if err := rt.checkDescrSelf(d.Name, d.Owner, instance); err != nil {
		return nil, err
	}
	obj, ok := instance.(*Object)
	if !ok {
		return nil, TypeError("member '%s' needs an object instance", d.Name)
	}
	rt.mu.RLock()
	v := obj.Field(d.Index)
	rt.mu.RUnlock()
	if v == nil {
		return nil, AttributeError(rt.TypeName(obj), d.Name,
			"'%s' object has no attribute '%s'", rt.TypeName(obj), d.Name)
	}
	return v, nil
}

func memberDescrSet(rt *Runtime, descr, instance, value Value) error {
	d := descr.(*MemberDescriptor)
	if err := rt.checkDescrSelf(d.Name, d.Owner, instance); err != nil {
		return err
	}
	if d.ReadOnly {
		return AttributeError(ownerName(d.Owner), d.Name, "readonly attribute")
	}
	obj, ok := instance.(*Object)
	if !ok || d.Index >= obj.NumFields() {
		return TypeError("member '%s' needs an object instance", d.Name)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if value == nil && obj.fields[d.Index] == nil {
		return AttributeError(rt.TypeName(obj), d.Name,
			"'%s' object has no attribute '%s'", rt.TypeName(obj), d.Name)
	}
	obj.fields[d.Index] = value
	return nil
}

func memberDescrRepr(rt *Runtime, self Value) (Value, error) {
	d := self.(*MemberDescriptor)
	return fmt.Sprintf("<member '%s' of '%s' objects>", d.Name, ownerName(d.Owner)), nil
}

// ---------------------------------------------------------------------------
// wrapper_descriptor / method-wrapper
// ---------------------------------------------------------------------------

func wrapperDescrGet(rt *Runtime, descr, instance Value, owner *Class) (Value, error) {
	d := descr.(*WrapperDescriptor)
	if instance == nil {
		return d, nil
	}
	if err := rt.checkDescrSelf(d.Name, d.Owner, instance); err != nil {
		return nil, err
	}
	return &MethodWrapper{Descr: d, Self: instance}, nil
}

func wrapperDescrCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	d := self.(*WrapperDescriptor)
	if len(args) < 1 {
		return nil, TypeError("descriptor '%s' of '%s' object needs an argument", d.Name, ownerName(d.Owner))
	}
	if err := rt.checkDescrSelf(d.Name, d.Owner, args[0]); err != nil {
		return nil, err
	}
	return d.def.wrapper(rt, d.def, d.impl, args[0], args[1:], kw)
}

func wrapperDescrRepr(rt *Runtime, self Value) (Value, error) {
	d := self.(*WrapperDescriptor)
	return fmt.Sprintf("<slot wrapper '%s' of '%s' objects>", d.Name, ownerName(d.Owner)), nil
}

func methodWrapperCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	w := self.(*MethodWrapper)
	return w.Descr.def.wrapper(rt, w.Descr.def, w.Descr.impl, w.Self, args, kw)
}

func methodWrapperRepr(rt *Runtime, self Value) (Value, error) {
	w := self.(*MethodWrapper)
	return fmt.Sprintf("<method-wrapper '%s' of %s object>", w.Descr.Name, rt.TypeName(w.Self)), nil
}

// ---------------------------------------------------------------------------
// __new__ of native classes
// ---------------------------------------------------------------------------

// newWrapperCall implements Owner.__new__(subtype, *args, **kwargs). The
// subtype must derive from Owner, and the most derived ancestor of subtype
// that does not route __new__ through the generic trampoline must use
// Owner's native constructor.
func newWrapperCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	w := self.(*NewWrapper)
	if len(args) < 1 {
		return nil, ConstructionError(w.Owner.Name, "%s.__new__(): not enough arguments", w.Owner.Name)
	}
	sub, ok := args[0].(*Class)
	if !ok {
		return nil, ConstructionError(w.Owner.Name, "%s.__new__(X): X is not a type object (%s)",
			w.Owner.Name, rt.TypeName(args[0]))
	}
	if !sub.IsSubclassOf(w.Owner) {
		return nil, ConstructionError(sub.Name, "%s.__new__(%s): %s is not a subtype of %s",
			w.Owner.Name, sub.Name, sub.Name, w.Owner.Name)
	}

	staticBase := sub
	for staticBase != nil && staticBase.Slot(SlotNew) == trampolines[SlotNew] {
		staticBase = staticBase.Base
	}
	if staticBase != nil && staticBase.Slot(SlotNew) != w.Impl {
		return nil, ConstructionError(sub.Name, "%s.__new__(%s) is not safe, use %s.__new__()",
			w.Owner.Name, sub.Name, staticBase.Name)
	}
	return w.Impl.Fn.(NewFunc)(rt, sub, args[1:], kw)
}
