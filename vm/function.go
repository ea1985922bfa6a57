package vm

import "fmt"

// ---------------------------------------------------------------------------
// User-level callables
// ---------------------------------------------------------------------------

// FuncBody is the Go closure behind a user-level function. Methods receive
// their instance as args[0]. A nil result is returned to callers as None.
type FuncBody func(rt *Runtime, args []Value, kw Kwargs) (Value, error)

// Function is a user-level function. Stored in a class namespace it binds
// to instances like a method.
type Function struct {
	Name string
	Doc  string
	Body FuncBody
}

// NewFunction creates a user-level function.
func NewFunction(name string, body FuncBody) *Function {
	return &Function{Name: name, Body: body}
}

// Method is a callable bound to its first argument.
type Method struct {
	Func Value
	Self Value
}

// Property is a data descriptor built from user-level accessors.
// Absent accessors are nil.
type Property struct {
	Name string
	Get  Value
	Set  Value
	Del  Value
	Doc  string
}

// ClassMethod binds its callable to the class it is looked up through.
type ClassMethod struct {
	Func Value
}

// StaticMethod returns its callable unbound.
type StaticMethod struct {
	Func Value
}

func prepend(first Value, args []Value) []Value {
	all := make([]Value, 0, len(args)+1)
	all = append(all, first)
	return append(all, args...)
}

// ---------------------------------------------------------------------------
// function / method
// ---------------------------------------------------------------------------

func functionCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	f := self.(*Function)
	if f.Body == nil {
		return None, nil
	}
	res, err := f.Body(rt, args, kw)
	if err != nil {
		return nil, err
	}
	return noneIfNil(res), nil
}

func functionDescrGet(rt *Runtime, descr, instance Value, owner *Class) (Value, error) {
	if instance == nil {
		return descr, nil
	}
	return &Method{Func: descr, Self: instance}, nil
}

func functionRepr(rt *Runtime, self Value) (Value, error) {
	return fmt.Sprintf("<function %s>", self.(*Function).Name), nil
}

func methodCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	m := self.(*Method)
	return rt.Call(m.Func, prepend(m.Self, args), kw)
}

func methodRepr(rt *Runtime, self Value) (Value, error) {
	m := self.(*Method)
	name := "?"
	if f, ok := m.Func.(*Function); ok {
		name = f.Name
	}
	r, err := rt.Repr(m.Self)
	if err != nil {
		return nil, err
	}
	return fmt.Sprintf("<bound method %s of %s>", name, r), nil
}

// ---------------------------------------------------------------------------
// property
// ---------------------------------------------------------------------------

func propertyName(p *Property) string {
	if p.Name == "" {
		return "?"
	}
	return p.Name
}

func propertyGet(rt *Runtime, descr, instance Value, owner *Class) (Value, error) {
	p := descr.(*Property)
	if instance == nil {
		return p, nil
	}
	if p.Get == nil {
		return nil, AttributeError(rt.TypeName(instance), p.Name,
			"property '%s' of '%s' object has no getter", propertyName(p), rt.TypeName(instance))
	}
	return rt.Call(p.Get, []Value{instance}, nil)
}

func propertySet(rt *Runtime, descr, instance, value Value) error {
	p := descr.(*Property)
	if value == nil {
		if p.Del == nil {
			return AttributeError(rt.TypeName(instance), p.Name,
				"property '%s' of '%s' object has no deleter", propertyName(p), rt.TypeName(instance))
		}
		_, err := rt.Call(p.Del, []Value{instance}, nil)
		return err
	}
	if p.Set == nil {
		return AttributeError(rt.TypeName(instance), p.Name,
			"property '%s' of '%s' object has no setter", propertyName(p), rt.TypeName(instance))
	}
	_, err := rt.Call(p.Set, []Value{instance, value}, nil)
	return err
}

// propertyNew implements property(fget=None, fset=None, fdel=None, doc=None).
func propertyNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	vals, err := parseArgs("property", args, kw, []string{"fget", "fset", "fdel", "doc"}, 0)
	if err != nil {
		return nil, err
	}
	p := &Property{Get: nilIfNone(vals[0]), Set: nilIfNone(vals[1]), Del: nilIfNone(vals[2])}
	if doc, ok := vals[3].(string); ok {
		p.Doc = doc
	}
	return p, nil
}

func propertyCopy(which int) NativeMethod {
	return func(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
		if len(args) != 1 || len(kw) != 0 {
			return nil, TypeError("property accessor takes exactly one argument")
		}
		p := *self.(*Property)
		switch which {
		case 0:
			p.Get = nilIfNone(args[0])
		case 1:
			p.Set = nilIfNone(args[0])
		case 2:
			p.Del = nilIfNone(args[0])
		}
		return &p, nil
	}
}

// propertySetName records the attribute name a property was bound to, for
// diagnostics.
func propertySetName(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	if len(args) != 2 {
		return nil, TypeError("__set_name__() takes exactly 2 arguments (%d given)", len(args))
	}
	if name, ok := args[1].(string); ok {
		self.(*Property).Name = name
	}
	return None, nil
}

// ---------------------------------------------------------------------------
// classmethod / staticmethod
// ---------------------------------------------------------------------------

func classMethodGet(rt *Runtime, descr, instance Value, owner *Class) (Value, error) {
	cm := descr.(*ClassMethod)
	if owner == nil {
		owner = rt.TypeOf(instance)
	}
	return &Method{Func: cm.Func, Self: owner}, nil
}

func classMethodNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	if len(args) != 1 || len(kw) != 0 {
		return nil, TypeError("classmethod expected 1 argument, got %d", len(args))
	}
	return &ClassMethod{Func: args[0]}, nil
}

func staticMethodGet(rt *Runtime, descr, instance Value, owner *Class) (Value, error) {
	return descr.(*StaticMethod).Func, nil
}

func staticMethodCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	return rt.Call(self.(*StaticMethod).Func, args, kw)
}

func staticMethodNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	if len(args) != 1 || len(kw) != 0 {
		return nil, TypeError("staticmethod expected 1 argument, got %d", len(args))
	}
	return &StaticMethod{Func: args[0]}, nil
}

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// parseArgs binds positional and keyword arguments to names. The first
// required names must be supplied; the rest default to None.
func parseArgs(fname string, args []Value, kw Kwargs, names []string, required int) ([]Value, error) {
	if len(args) > len(names) {
		return nil, TypeError("%s() takes at most %d arguments (%d given)", fname, len(names), len(args))
	}
	vals := make([]Value, len(names))
	copy(vals, args)
	for _, k := range kw {
		i := -1
		for j, n := range names {
			if n == k.Name {
				i = j
				break
			}
		}
		if i < 0 {
			return nil, TypeError("%s() got an unexpected keyword argument '%s'", fname, k.Name)
		}
		if vals[i] != nil {
			return nil, TypeError("%s() got multiple values for argument '%s'", fname, k.Name)
		}
		vals[i] = k.Value
	}
	for i := range vals {
		if vals[i] == nil {
			if i < required {
				return nil, TypeError("%s() missing required argument '%s'", fname, names[i])
			}
			vals[i] = None
		}
	}
	return vals, nil
}
