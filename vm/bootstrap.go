package vm

// ---------------------------------------------------------------------------
// Native class definitions
// ---------------------------------------------------------------------------

// MethodDef declares a native method. Class methods bind to the class.
type MethodDef struct {
	Name  string
	Fn    NativeMethod
	Class bool
	Doc   string
}

// GetSetDef declares a computed attribute of a native class.
type GetSetDef struct {
	Name string
	Get  GetterFunc
	Set  SetterFunc
	Doc  string
}

// NativeClass declares a class implemented in Go. Its slots are filled
// directly; wrapper descriptors are published for them when it is readied.
type NativeClass struct {
	Name    string
	Doc     string
	Bases   []*Class // default object
	Meta    *Class   // default type
	Basis   Basis
	Flags   ClassFlags
	Slots   []*SlotImpl
	Methods []MethodDef
	GetSets []GetSetDef
	Attrs   []Keyword
}

// DefineNative creates and finalizes a native class. Native classes are
// immutable: their namespace cannot be written through SetAttr.
func (rt *Runtime) DefineNative(spec NativeClass) (*Class, error) {
	bases := spec.Bases
	if len(bases) == 0 {
		bases = []*Class{rt.ObjectClass}
	}
	base, err := rt.bestBaseOf(bases, true)
	if err != nil {
		return nil, err
	}
	meta := spec.Meta
	if meta == nil {
		meta = rt.TypeClass
	}

	c := &Class{
		ID:    newClassID(),
		Name:  spec.Name,
		meta:  meta,
		Bases: bases,
		Base:  base,
		Dict:  NewNamespace(),
		Flags: spec.Flags | FlagImmutable,
		Layout: Layout{
			Basis: spec.Basis,
		},
	}
	if spec.Basis == base.Layout.Basis {
		c.Layout.NumFields = base.Layout.NumFields
		c.Layout.HasDict = base.Layout.HasDict
	}
	if c.Layout.HasDict {
		c.keys = newSharedKeys()
	}
	rt.fillNative(c, spec)
	if err := rt.finishNative(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (rt *Runtime) fillNative(c *Class, spec NativeClass) {
	c.Doc = spec.Doc
	if spec.Doc != "" {
		c.Dict.Set("__doc__", spec.Doc)
	}
	for _, impl := range spec.Slots {
		c.setSlot(impl.Slot, impl)
	}
	for _, m := range spec.Methods {
		c.Dict.Set(m.Name, &MethodDescriptor{Name: m.Name, Owner: c, Fn: m.Fn, Static: m.Class, Doc: m.Doc})
	}
	for _, g := range spec.GetSets {
		c.Dict.Set(g.Name, &GetSetDescriptor{Name: g.Name, Owner: c, Get: g.Get, Set: g.Set, Doc: g.Doc})
	}
	for _, a := range spec.Attrs {
		c.Dict.Set(a.Name, a.Value)
	}
}

func (rt *Runtime) finishNative(c *Class) error {
	rt.mu.Lock()
	err := rt.readyClass(c, true)
	rt.mu.Unlock()
	if err != nil {
		return err
	}
	rt.Classes.Register(c)
	return nil
}

// ---------------------------------------------------------------------------
// Bootstrap
// ---------------------------------------------------------------------------

// bootstrap builds object and type, which refer to each other, and then
// every other built-in class.
func (rt *Runtime) bootstrap() error {
	rt.objectNew = NewSlot(SlotNew, "object_new", NewFunc(objectNew))
	rt.objectInit = NewSlot(SlotInit, "object_init", InitFunc(objectInit))
	rt.typeNew = NewSlot(SlotNew, "type_new", NewFunc(typeNew))

	object := &Class{
		ID:     newClassID(),
		Name:   "object",
		Dict:   NewNamespace(),
		Flags:  FlagBaseType | FlagImmutable,
		Layout: Layout{Basis: BasisObject},
	}
	typ := &Class{
		ID:     newClassID(),
		Name:   "type",
		Bases:  []*Class{object},
		Base:   object,
		Dict:   NewNamespace(),
		Flags:  FlagBaseType | FlagImmutable,
		Layout: Layout{Basis: BasisClass},
	}
	object.meta = typ
	typ.meta = typ
	rt.ObjectClass, rt.TypeClass = object, typ

	rt.fillNative(object, rt.objectSpec())
	if err := rt.finishNative(object); err != nil {
		return err
	}
	rt.fillNative(typ, rt.typeSpec())
	if err := rt.finishNative(typ); err != nil {
		return err
	}
	rt.typeMro, _ = lookupInMRO(typ, "mro").(*MethodDescriptor)

	var err error
	define := func(spec NativeClass) *Class {
		if err != nil {
			return nil
		}
		var c *Class
		c, err = rt.DefineNative(spec)
		return c
	}

	rt.FunctionClass = define(NativeClass{
		Name:  "function",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotCall, "function_call", CallFunc(functionCall)),
			NewSlot(SlotDescrGet, "function_get", DescrGetFunc(functionDescrGet)),
			NewSlot(SlotRepr, "function_repr", UnaryFunc(functionRepr)),
		},
		GetSets: []GetSetDef{
			{Name: "__name__", Get: funcNameGet, Set: funcNameSet},
			{Name: "__doc__", Get: funcDocGet},
		},
	})
	rt.MethodClass = define(NativeClass{
		Name:  "method",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotCall, "method_call", CallFunc(methodCall)),
			NewSlot(SlotRepr, "method_repr", UnaryFunc(methodRepr)),
		},
		GetSets: []GetSetDef{
			{Name: "__func__", Get: func(rt *Runtime, obj Value) (Value, error) { return obj.(*Method).Func, nil }},
			{Name: "__self__", Get: func(rt *Runtime, obj Value) (Value, error) { return obj.(*Method).Self, nil }},
		},
	})
	rt.BuiltinFunctionClass = define(NativeClass{
		Name:  "builtin_function_or_method",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotCall, "builtin_call", CallFunc(builtinMethodCall)),
			NewSlot(SlotRepr, "builtin_repr", UnaryFunc(builtinMethodRepr)),
		},
	})

	methodDescrSlots := func(prefix string) []*SlotImpl {
		return []*SlotImpl{
			NewSlot(SlotCall, prefix+"_call", CallFunc(methodDescrCall)),
			NewSlot(SlotDescrGet, prefix+"_get", DescrGetFunc(methodDescrGet)),
			NewSlot(SlotRepr, prefix+"_repr", UnaryFunc(methodDescrRepr)),
		}
	}
	rt.MethodDescriptorClass = define(NativeClass{
		Name:  "method_descriptor",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: methodDescrSlots("method_descr"),
	})
	rt.ClassMethodDescriptorClass = define(NativeClass{
		Name:  "classmethod_descriptor",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: methodDescrSlots("classmethod_descr"),
	})
	rt.GetSetDescriptorClass = define(NativeClass{
		Name:  "getset_descriptor",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotDescrGet, "getset_get", DescrGetFunc(getsetDescrGet)),
			NewSlot(SlotDescrSet, "getset_set", DescrSetFunc(getsetDescrSet)),
			NewSlot(SlotRepr, "getset_repr", UnaryFunc(getsetDescrRepr)),
		},
	})
	rt.MemberDescriptorClass = define(NativeClass{
		Name:  "member_descriptor",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotDescrGet, "member_get", DescrGetFunc(memberDescrGet)),
			NewSlot(SlotDescrSet, "member_set", DescrSetFunc(memberDescrSet)),
			NewSlot(SlotRepr, "member_repr", UnaryFunc(memberDescrRepr)),
		},
	})
	rt.WrapperDescriptorClass = define(NativeClass{
		Name:  "wrapper_descriptor",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotCall, "wrapper_call", CallFunc(wrapperDescrCall)),
			NewSlot(SlotDescrGet, "wrapper_get", DescrGetFunc(wrapperDescrGet)),
			NewSlot(SlotRepr, "wrapper_repr", UnaryFunc(wrapperDescrRepr)),
		},
	})
	rt.MethodWrapperClass = define(NativeClass{
		Name:  "method-wrapper",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotCall, "method_wrapper_call", CallFunc(methodWrapperCall)),
			NewSlot(SlotRepr, "method_wrapper_repr", UnaryFunc(methodWrapperRepr)),
		},
	})

	rt.PropertyClass = define(NativeClass{
		Name:  "property",
		Doc:   "Property attribute.",
		Basis: BasisNative,
		Slots: []*SlotImpl{
			NewSlot(SlotDescrGet, "property_get", DescrGetFunc(propertyGet)),
			NewSlot(SlotDescrSet, "property_set", DescrSetFunc(propertySet)),
			NewSlot(SlotNew, "property_new", NewFunc(propertyNew)),
		},
		Methods: []MethodDef{
			{Name: "getter", Fn: propertyCopy(0)},
			{Name: "setter", Fn: propertyCopy(1)},
			{Name: "deleter", Fn: propertyCopy(2)},
			{Name: "__set_name__", Fn: propertySetName},
		},
		GetSets: []GetSetDef{
			{Name: "fget", Get: func(rt *Runtime, obj Value) (Value, error) { return noneIfNil(obj.(*Property).Get), nil }},
			{Name: "fset", Get: func(rt *Runtime, obj Value) (Value, error) { return noneIfNil(obj.(*Property).Set), nil }},
			{Name: "fdel", Get: func(rt *Runtime, obj Value) (Value, error) { return noneIfNil(obj.(*Property).Del), nil }},
		},
	})
	rt.ClassMethodClass = define(NativeClass{
		Name:  "classmethod",
		Basis: BasisNative,
		Slots: []*SlotImpl{
			NewSlot(SlotDescrGet, "classmethod_get", DescrGetFunc(classMethodGet)),
			NewSlot(SlotNew, "classmethod_new", NewFunc(classMethodNew)),
		},
		GetSets: []GetSetDef{
			{Name: "__func__", Get: func(rt *Runtime, obj Value) (Value, error) { return obj.(*ClassMethod).Func, nil }},
		},
	})
	rt.StaticMethodClass = define(NativeClass{
		Name:  "staticmethod",
		Basis: BasisNative,
		Slots: []*SlotImpl{
			NewSlot(SlotDescrGet, "staticmethod_get", DescrGetFunc(staticMethodGet)),
			NewSlot(SlotCall, "staticmethod_call", CallFunc(staticMethodCall)),
			NewSlot(SlotNew, "staticmethod_new", NewFunc(staticMethodNew)),
		},
		GetSets: []GetSetDef{
			{Name: "__func__", Get: func(rt *Runtime, obj Value) (Value, error) { return obj.(*StaticMethod).Func, nil }},
		},
	})

	rt.defineValueClasses(define)
	return err
}

func funcNameGet(rt *Runtime, obj Value) (Value, error) {
	return obj.(*Function).Name, nil
}

func funcNameSet(rt *Runtime, obj Value, value Value) error {
	s, ok := value.(string)
	if !ok {
		return TypeError("__name__ must be set to a string object")
	}
	rt.mu.Lock()
	obj.(*Function).Name = s
	rt.mu.Unlock()
	return nil
}

func funcDocGet(rt *Runtime, obj Value) (Value, error) {
	if doc := obj.(*Function).Doc; doc != "" {
		return doc, nil
	}
	return None, nil
}
