package vm

// Value is any value the object model can hold.
//
// Go nil means "absent" (an empty slot, a deleted attribute, a missing
// lookup result). The language-level none value is None.
//
// Besides the heap values defined in this package (*Object, *Class, the
// descriptor types, *Function, ...) a small set of Go primitives is accepted
// directly:
//   - int64   -> int
//   - bool    -> bool
//   - float64 -> float
//   - string  -> str
type Value = any

// Singleton is a named unique value such as None or NotImplemented.
type Singleton struct {
	name string
}

// String returns the singleton's name.
func (s *Singleton) String() string { return s.name }

// Pre-defined singletons
var (
	None           = &Singleton{name: "None"}
	NotImplemented = &Singleton{name: "NotImplemented"}
)

// ---------------------------------------------------------------------------
// Keyword arguments
// ---------------------------------------------------------------------------

// Keyword is a single name=value call argument.
type Keyword struct {
	Name  string
	Value Value
}

// Kwargs is an ordered list of keyword arguments.
type Kwargs []Keyword

// Get returns the value of the named keyword argument.
func (kw Kwargs) Get(name string) (Value, bool) {
	for _, k := range kw {
		if k.Name == name {
			return k.Value, true
		}
	}
	return nil, false
}

// Without returns a copy of kw with the named argument removed.
func (kw Kwargs) Without(name string) Kwargs {
	if _, ok := kw.Get(name); !ok {
		return kw
	}
	result := make(Kwargs, 0, len(kw)-1)
	for _, k := range kw {
		if k.Name != name {
			result = append(result, k)
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Tuple and Dict
// ---------------------------------------------------------------------------

// Tuple is an immutable sequence of values.
type Tuple []Value

// Dict is a mutable string-keyed mapping with insertion order.
// It is the language-level view of namespaces and keyword arguments.
type Dict struct {
	ns *Namespace
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{ns: NewNamespace()}
}

// DictFromNamespace creates a dict holding a copy of ns.
func DictFromNamespace(ns *Namespace) *Dict {
	return &Dict{ns: ns.Copy()}
}

// Namespace returns the dict's backing namespace.
func (d *Dict) Namespace() *Namespace { return d.ns }

// Get returns the value stored under key.
func (d *Dict) Get(key string) (Value, bool) { return d.ns.Get(key) }

// Set stores value under key.
func (d *Dict) Set(key string, value Value) { d.ns.Set(key, value) }

// Len returns the number of entries.
func (d *Dict) Len() int { return d.ns.Len() }

// ---------------------------------------------------------------------------
// Heap value interface
// ---------------------------------------------------------------------------

// Typed is implemented by heap values that know their own class.
type Typed interface {
	Class() *Class
}

// TypeOf returns the class of v.
//
// TypeOf never returns nil for a value created through this runtime. An
// unknown Go value maps to object so that generic attribute lookup still
// works on it.
func (rt *Runtime) TypeOf(v Value) *Class {
	switch v := v.(type) {
	case *Object:
		return v.Class()
	case *Class:
		return v.meta
	case Typed:
		return v.Class()
	case *Singleton:
		switch v {
		case None:
			return rt.NoneClass
		case NotImplemented:
			return rt.NotImplementedClass
		}
	case int64, int:
		return rt.IntClass
	case bool:
		return rt.BoolClass
	case float64:
		return rt.FloatClass
	case string:
		return rt.StrClass
	case Tuple:
		return rt.TupleClass
	case *Dict:
		return rt.DictClass
	case *Function:
		return rt.FunctionClass
	case *Method:
		return rt.MethodClass
	case *Property:
		return rt.PropertyClass
	case *ClassMethod:
		return rt.ClassMethodClass
	case *StaticMethod:
		return rt.StaticMethodClass
	case *MethodDescriptor:
		if v.Static {
			return rt.ClassMethodDescriptorClass
		}
		return rt.MethodDescriptorClass
	case *BuiltinMethod, *NewWrapper:
		return rt.BuiltinFunctionClass
	case *GetSetDescriptor:
		return rt.GetSetDescriptorClass
	case *MemberDescriptor:
		return rt.MemberDescriptorClass
	case *WrapperDescriptor:
		return rt.WrapperDescriptorClass
	case *MethodWrapper:
		return rt.MethodWrapperClass
	case *tupleIterator:
		return rt.TupleIteratorClass
	}
	return rt.ObjectClass
}

// TypeName returns the name of v's class, for diagnostics.
func (rt *Runtime) TypeName(v Value) string {
	if v == nil {
		return "NULL"
	}
	return rt.TypeOf(v).Name
}

// isNone reports whether v is the none value.
func isNone(v Value) bool {
	return v == Value(None)
}

// noneIfNil maps an absent value to None for language-level calls.
func noneIfNil(v Value) Value {
	if v == nil {
		return None
	}
	return v
}

// nilIfNone maps None back to absent.
func nilIfNone(v Value) Value {
	if isNone(v) {
		return nil
	}
	return v
}

// toInt64 converts the accepted integer representations to int64.
func toInt64(v Value) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
