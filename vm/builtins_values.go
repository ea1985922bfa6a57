package vm

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/zeebo/xxh3"
)

// defineValueClasses defines the classes of the primitive values. They are
// leaves: none of them is a base type, except that bool derives from int.
func (rt *Runtime) defineValueClasses(define func(NativeClass) *Class) {
	rt.NoneClass = define(NativeClass{
		Name:  "NoneType",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotRepr, "none_repr", UnaryFunc(constRepr("None"))),
			NewSlot(SlotBool, "none_bool", InquiryFunc(func(*Runtime, Value) (bool, error) { return false, nil })),
		},
	})
	rt.NotImplementedClass = define(NativeClass{
		Name:  "NotImplementedType",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotRepr, "notimplemented_repr", UnaryFunc(constRepr("NotImplemented"))),
		},
	})

	rt.IntClass = define(NativeClass{
		Name:  "int",
		Basis: BasisNative,
		Slots: []*SlotImpl{
			NewSlot(SlotRepr, "int_repr", UnaryFunc(intRepr)),
			NewSlot(SlotHash, "int_hash", HashFunc(intHash)),
			NewSlot(SlotRichCompare, "int_richcompare", RichCompareFunc(numberRichCompare(false))),
			NewSlot(SlotAdd, "int_add", BinaryFunc(intArith(func(a, b int64) int64 { return a + b }))),
			NewSlot(SlotSub, "int_sub", BinaryFunc(intArith(func(a, b int64) int64 { return a - b }))),
			NewSlot(SlotMul, "int_mul", BinaryFunc(intArith(func(a, b int64) int64 { return a * b }))),
			NewSlot(SlotNeg, "int_neg", UnaryFunc(intNeg)),
			NewSlot(SlotBool, "int_bool", InquiryFunc(intBool)),
			NewSlot(SlotNew, "int_new", NewFunc(intNew)),
		},
	})
	if rt.IntClass != nil {
		rt.BoolClass = define(NativeClass{
			Name:  "bool",
			Bases: []*Class{rt.IntClass},
			Basis: BasisNative,
			Slots: []*SlotImpl{
				NewSlot(SlotRepr, "bool_repr", UnaryFunc(boolRepr)),
				NewSlot(SlotNew, "bool_new", NewFunc(boolNew)),
			},
		})
	}
	rt.FloatClass = define(NativeClass{
		Name:  "float",
		Basis: BasisNative,
		Slots: []*SlotImpl{
			NewSlot(SlotRepr, "float_repr", UnaryFunc(floatRepr)),
			NewSlot(SlotHash, "float_hash", HashFunc(floatHash)),
			NewSlot(SlotRichCompare, "float_richcompare", RichCompareFunc(numberRichCompare(true))),
			NewSlot(SlotAdd, "float_add", BinaryFunc(floatArith(func(a, b float64) float64 { return a + b }))),
			NewSlot(SlotSub, "float_sub", BinaryFunc(floatArith(func(a, b float64) float64 { return a - b }))),
			NewSlot(SlotMul, "float_mul", BinaryFunc(floatArith(func(a, b float64) float64 { return a * b }))),
			NewSlot(SlotNeg, "float_neg", UnaryFunc(floatNeg)),
			NewSlot(SlotBool, "float_bool", InquiryFunc(floatBool)),
			NewSlot(SlotNew, "float_new", NewFunc(floatNew)),
		},
	})
	rt.StrClass = define(NativeClass{
		Name:  "str",
		Basis: BasisNative,
		Slots: []*SlotImpl{
			NewSlot(SlotRepr, "str_repr", UnaryFunc(strRepr)),
			NewSlot(SlotStr, "str_str", UnaryFunc(func(rt *Runtime, self Value) (Value, error) { return self, nil })),
			NewSlot(SlotHash, "str_hash", HashFunc(strHash)),
			NewSlot(SlotRichCompare, "str_richcompare", RichCompareFunc(strRichCompare)),
			NewSlot(SlotAdd, "str_concat", BinaryFunc(strConcat)),
			NewSlot(SlotMul, "str_repeat", BinaryFunc(strRepeat)),
			NewSlot(SlotIter, "str_iter", UnaryFunc(strIter)),
			NewSlot(SlotLen, "str_len", LenFunc(strLen)),
			NewSlot(SlotGetItem, "str_subscript", BinaryFunc(strGetItem)),
			NewSlot(SlotContains, "str_contains", ContainsFunc(strContains)),
			NewSlot(SlotNew, "str_new", NewFunc(strNew)),
		},
	})
	rt.TupleClass = define(NativeClass{
		Name:  "tuple",
		Basis: BasisNative,
		Slots: []*SlotImpl{
			NewSlot(SlotRepr, "tuple_repr", UnaryFunc(tupleRepr)),
			NewSlot(SlotHash, "tuple_hash", HashFunc(tupleHash)),
			NewSlot(SlotRichCompare, "tuple_richcompare", RichCompareFunc(tupleRichCompare)),
			NewSlot(SlotIter, "tuple_iter", UnaryFunc(tupleIter)),
			NewSlot(SlotAdd, "tuple_concat", BinaryFunc(tupleConcat)),
			NewSlot(SlotLen, "tuple_len", LenFunc(tupleLen)),
			NewSlot(SlotGetItem, "tuple_subscript", BinaryFunc(tupleGetItem)),
			NewSlot(SlotContains, "tuple_contains", ContainsFunc(tupleContains)),
			NewSlot(SlotNew, "tuple_new", NewFunc(tupleNew)),
		},
	})
	rt.TupleIteratorClass = define(NativeClass{
		Name:  "tuple_iterator",
		Basis: BasisNative,
		Flags: FlagNoInstances,
		Slots: []*SlotImpl{
			NewSlot(SlotIter, "tupleiter_iter", UnaryFunc(func(rt *Runtime, self Value) (Value, error) { return self, nil })),
			NewSlot(SlotNext, "tupleiter_next", UnaryFunc(tupleIterNext)),
		},
	})
	rt.DictClass = define(NativeClass{
		Name:  "dict",
		Basis: BasisNative,
		Slots: []*SlotImpl{
			NewSlot(SlotRepr, "dict_repr", UnaryFunc(dictRepr)),
			hashNotImplemented,
			NewSlot(SlotRichCompare, "dict_richcompare", RichCompareFunc(dictRichCompare)),
			NewSlot(SlotIter, "dict_iter", UnaryFunc(dictIter)),
			NewSlot(SlotLen, "dict_len", LenFunc(dictLen)),
			NewSlot(SlotGetItem, "dict_subscript", BinaryFunc(dictGetItem)),
			NewSlot(SlotSetItem, "dict_ass_subscript", SetItemFunc(dictSetItem)),
			NewSlot(SlotContains, "dict_contains", ContainsFunc(dictContains)),
			NewSlot(SlotInit, "dict_init", InitFunc(dictInit)),
			NewSlot(SlotNew, "dict_new", NewFunc(func(*Runtime, *Class, []Value, Kwargs) (Value, error) { return NewDict(), nil })),
		},
	})
}

func constRepr(s string) func(*Runtime, Value) (Value, error) {
	return func(*Runtime, Value) (Value, error) { return s, nil }
}

// ---------------------------------------------------------------------------
// Numbers
// ---------------------------------------------------------------------------

// asFloat converts an int, bool or float operand.
func asFloat(v Value) (float64, bool) {
	if f, ok := v.(float64); ok {
		return f, true
	}
	if n, ok := toInt64(v); ok {
		return float64(n), true
	}
	return 0, false
}

func intRepr(rt *Runtime, self Value) (Value, error) {
	n, _ := toInt64(self)
	return strconv.FormatInt(n, 10), nil
}

func intHash(rt *Runtime, self Value) (int64, error) {
	n, _ := toInt64(self)
	return n, nil
}

func intArith(op func(a, b int64) int64) func(*Runtime, Value, Value) (Value, error) {
	return func(rt *Runtime, a, b Value) (Value, error) {
		x, ok1 := toInt64(a)
		y, ok2 := toInt64(b)
		if !ok1 || !ok2 {
			return NotImplemented, nil
		}
		return op(x, y), nil
	}
}

func intNeg(rt *Runtime, self Value) (Value, error) {
	n, _ := toInt64(self)
	return -n, nil
}

func intBool(rt *Runtime, self Value) (bool, error) {
	n, _ := toInt64(self)
	return n != 0, nil
}

func intNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	vals, err := parseArgs("int", args, kw, []string{"x"}, 0)
	if err != nil {
		return nil, err
	}
	switch x := vals[0].(type) {
	case *Singleton:
		if isNone(x) && len(args) == 0 {
			return int64(0), nil
		}
	case float64:
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, ValueError("invalid literal for int(): '%s'", x)
		}
		return n, nil
	default:
		if n, ok := toInt64(x); ok {
			return n, nil
		}
	}
	return nil, TypeError("int() argument must be a string or a number, not '%s'", rt.TypeName(vals[0]))
}

func boolRepr(rt *Runtime, self Value) (Value, error) {
	if self.(bool) {
		return "True", nil
	}
	return "False", nil
}

func boolNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	if len(kw) != 0 || len(args) > 1 {
		return nil, TypeError("bool() takes at most 1 argument")
	}
	if len(args) == 0 {
		return false, nil
	}
	return rt.Truth(args[0])
}

// numberRichCompare compares ints (and, for float, mixed operands).
func numberRichCompare(acceptFloat bool) func(*Runtime, Value, Value, CompareOp) (Value, error) {
	return func(rt *Runtime, a, b Value, op CompareOp) (Value, error) {
		if x, ok := toInt64(a); ok {
			if y, ok := toInt64(b); ok {
				return compareOrdered(x, y, op), nil
			}
		}
		if !acceptFloat {
			return NotImplemented, nil
		}
		x, ok1 := asFloat(a)
		y, ok2 := asFloat(b)
		if !ok1 || !ok2 {
			return NotImplemented, nil
		}
		return compareOrdered(x, y, op), nil
	}
}

func compareOrdered[T int64 | float64 | string](x, y T, op CompareOp) bool {
	switch op {
	case OpLT:
		return x < y
	case OpLE:
		return x <= y
	case OpEQ:
		return x == y
	case OpNE:
		return x != y
	case OpGT:
		return x > y
	}
	return x >= y
}

func floatRepr(rt *Runtime, self Value) (Value, error) {
	f := self.(float64)
	switch {
	case math.IsNaN(f):
		return "nan", nil
	case math.IsInf(f, 1):
		return "inf", nil
	case math.IsInf(f, -1):
		return "-inf", nil
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s, nil
}

func floatHash(rt *Runtime, self Value) (int64, error) {
	f := self.(float64)
	if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
		return int64(f), nil
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	return int64(xxh3.Hash(buf[:]) >> 1), nil
}

// floatArith accepts a float and an int in either order.
func floatArith(op func(a, b float64) float64) func(*Runtime, Value, Value) (Value, error) {
	return func(rt *Runtime, a, b Value) (Value, error) {
		_, af := a.(float64)
		_, bf := b.(float64)
		if !af && !bf {
			return NotImplemented, nil
		}
		x, ok1 := asFloat(a)
		y, ok2 := asFloat(b)
		if !ok1 || !ok2 {
			return NotImplemented, nil
		}
		return op(x, y), nil
	}
}

func floatNeg(rt *Runtime, self Value) (Value, error) {
	return -self.(float64), nil
}

func floatBool(rt *Runtime, self Value) (bool, error) {
	return self.(float64) != 0, nil
}

func floatNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	vals, err := parseArgs("float", args, kw, []string{"x"}, 0)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 && len(kw) == 0 {
		return 0.0, nil
	}
	if s, ok := vals[0].(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, ValueError("could not convert string to float: '%s'", s)
		}
		return f, nil
	}
	if f, ok := asFloat(vals[0]); ok {
		return f, nil
	}
	return nil, TypeError("float() argument must be a string or a number, not '%s'", rt.TypeName(vals[0]))
}

// ---------------------------------------------------------------------------
// str
// ---------------------------------------------------------------------------

func strRepr(rt *Runtime, self Value) (Value, error) {
	s := self.(string)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return "'" + s + "'", nil
}

func strHash(rt *Runtime, self Value) (int64, error) {
	return int64(xxh3.HashString(self.(string)) >> 1), nil
}

func strRichCompare(rt *Runtime, a, b Value, op CompareOp) (Value, error) {
	x, ok1 := a.(string)
	y, ok2 := b.(string)
	if !ok1 || !ok2 {
		return NotImplemented, nil
	}
	return compareOrdered(x, y, op), nil
}

func strConcat(rt *Runtime, a, b Value) (Value, error) {
	x, ok1 := a.(string)
	y, ok2 := b.(string)
	if !ok1 || !ok2 {
		return NotImplemented, nil
	}
	return x + y, nil
}

// strRepeat handles both str*int and int*str.
func strRepeat(rt *Runtime, a, b Value) (Value, error) {
	s, ok := a.(string)
	n, nok := toInt64(b)
	if !ok {
		s, ok = b.(string)
		n, nok = toInt64(a)
	}
	if !ok || !nok {
		return NotImplemented, nil
	}
	if n <= 0 {
		return "", nil
	}
	return strings.Repeat(s, int(n)), nil
}

// strIter iterates over the characters of a string.
func strIter(rt *Runtime, self Value) (Value, error) {
	s := self.(string)
	items := make(Tuple, 0, len(s))
	for _, r := range s {
		items = append(items, string(r))
	}
	return &tupleIterator{items: items}, nil
}

func strLen(rt *Runtime, self Value) (int, error) {
	return utf8.RuneCountInString(self.(string)), nil
}

func normalizeIndex(key Value, n int, what string) (int, error) {
	i, ok := toInt64(key)
	if !ok {
		return 0, TypeError("%s indices must be integers", what)
	}
	if i < 0 {
		i += int64(n)
	}
	if i < 0 || i >= int64(n) {
		return 0, LookupError("%s index out of range", what)
	}
	return int(i), nil
}

func strGetItem(rt *Runtime, self, key Value) (Value, error) {
	runes := []rune(self.(string))
	i, err := normalizeIndex(key, len(runes), "string")
	if err != nil {
		return nil, err
	}
	return string(runes[i]), nil
}

func strContains(rt *Runtime, self, item Value) (bool, error) {
	sub, ok := item.(string)
	if !ok {
		return false, TypeError("'in <string>' requires string as left operand, not %s", rt.TypeName(item))
	}
	return strings.Contains(self.(string), sub), nil
}

func strNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	vals, err := parseArgs("str", args, kw, []string{"object"}, 0)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 && len(kw) == 0 {
		return "", nil
	}
	return rt.Str(vals[0])
}

// ---------------------------------------------------------------------------
// tuple
// ---------------------------------------------------------------------------

type tupleIterator struct {
	items Tuple
	pos   int
}

func tupleRepr(rt *Runtime, self Value) (Value, error) {
	t := self.(Tuple)
	var b strings.Builder
	b.WriteByte('(')
	for i, item := range t {
		if i > 0 {
			b.WriteString(", ")
		}
		r, err := rt.Repr(item)
		if err != nil {
			return nil, err
		}
		b.WriteString(r)
	}
	if len(t) == 1 {
		b.WriteByte(',')
	}
	b.WriteByte(')')
	return b.String(), nil
}

func tupleHash(rt *Runtime, self Value) (int64, error) {
	t := self.(Tuple)
	buf := make([]byte, 0, 8*len(t))
	for _, item := range t {
		h, err := rt.Hash(item)
		if err != nil {
			return 0, err
		}
		buf = binary.LittleEndian.AppendUint64(buf, uint64(h))
	}
	return int64(xxh3.Hash(buf) >> 1), nil
}

func tupleRichCompare(rt *Runtime, a, b Value, op CompareOp) (Value, error) {
	x, ok1 := a.(Tuple)
	y, ok2 := b.(Tuple)
	if !ok1 || !ok2 || (op != OpEQ && op != OpNE) {
		return NotImplemented, nil
	}
	eq := len(x) == len(y)
	for i := 0; eq && i < len(x); i++ {
		var err error
		if eq, err = rt.Equal(x[i], y[i]); err != nil {
			return nil, err
		}
	}
	if op == OpNE {
		return !eq, nil
	}
	return eq, nil
}

func tupleIter(rt *Runtime, self Value) (Value, error) {
	return &tupleIterator{items: self.(Tuple)}, nil
}

func tupleIterNext(rt *Runtime, self Value) (Value, error) {
	it := self.(*tupleIterator)
	if it.pos >= len(it.items) {
		return nil, nil
	}
	v := it.items[it.pos]
	it.pos++
	return v, nil
}

func tupleConcat(rt *Runtime, a, b Value) (Value, error) {
	x, ok1 := a.(Tuple)
	y, ok2 := b.(Tuple)
	if !ok1 || !ok2 {
		return NotImplemented, nil
	}
	out := make(Tuple, 0, len(x)+len(y))
	return append(append(out, x...), y...), nil
}

func tupleLen(rt *Runtime, self Value) (int, error) {
	return len(self.(Tuple)), nil
}

func tupleGetItem(rt *Runtime, self, key Value) (Value, error) {
	t := self.(Tuple)
	i, err := normalizeIndex(key, len(t), "tuple")
	if err != nil {
		return nil, err
	}
	return t[i], nil
}

func tupleContains(rt *Runtime, self, item Value) (bool, error) {
	for _, x := range self.(Tuple) {
		eq, err := rt.Equal(x, item)
		if err != nil || eq {
			return eq, err
		}
	}
	return false, nil
}

func tupleNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	if len(kw) != 0 || len(args) > 1 {
		return nil, TypeError("tuple expected at most 1 argument, got %d", len(args))
	}
	if len(args) == 0 {
		return Tuple{}, nil
	}
	if t, ok := args[0].(Tuple); ok {
		return t, nil
	}
	var out Tuple
	err := rt.ForEach(args[0], func(item Value) error {
		out = append(out, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = Tuple{}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// dict
// ---------------------------------------------------------------------------

func dictKey(rt *Runtime, key Value) (string, error) {
	s, ok := key.(string)
	if !ok {
		return "", TypeError("dict keys must be str, not '%s'", rt.TypeName(key))
	}
	return s, nil
}

func dictRepr(rt *Runtime, self Value) (Value, error) {
	d := self.(*Dict)
	rt.mu.RLock()
	names := d.ns.Names()
	values := make([]Value, len(names))
	for i, n := range names {
		values[i], _ = d.ns.Get(n)
	}
	rt.mu.RUnlock()

	var b strings.Builder
	b.WriteByte('{')
	for i, n := range names {
		if i > 0 {
			b.WriteString(", ")
		}
		k, _ := strRepr(rt, n)
		b.WriteString(k.(string))
		b.WriteString(": ")
		r, err := rt.Repr(values[i])
		if err != nil {
			return nil, err
		}
		b.WriteString(r)
	}
	b.WriteByte('}')
	return b.String(), nil
}

func dictRichCompare(rt *Runtime, a, b Value, op CompareOp) (Value, error) {
	x, ok1 := a.(*Dict)
	y, ok2 := b.(*Dict)
	if !ok1 || !ok2 || (op != OpEQ && op != OpNE) {
		return NotImplemented, nil
	}
	rt.mu.RLock()
	xs, ys := x.ns.Copy(), y.ns.Copy()
	rt.mu.RUnlock()

	eq := xs.Len() == ys.Len()
	for _, n := range xs.Names() {
		if !eq {
			break
		}
		xv, _ := xs.Get(n)
		yv, ok := ys.Get(n)
		if !ok {
			eq = false
			break
		}
		var err error
		if eq, err = rt.Equal(xv, yv); err != nil {
			return nil, err
		}
	}
	if op == OpNE {
		return !eq, nil
	}
	return eq, nil
}

func dictIter(rt *Runtime, self Value) (Value, error) {
	rt.mu.RLock()
	names := self.(*Dict).ns.Names()
	rt.mu.RUnlock()
	keys := make(Tuple, len(names))
	for i, n := range names {
		keys[i] = n
	}
	return &tupleIterator{items: keys}, nil
}

func dictLen(rt *Runtime, self Value) (int, error) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return self.(*Dict).Len(), nil
}

func dictGetItem(rt *Runtime, self, key Value) (Value, error) {
	k, err := dictKey(rt, key)
	if err != nil {
		return nil, err
	}
	rt.mu.RLock()
	v, ok := self.(*Dict).Get(k)
	rt.mu.RUnlock()
	if !ok {
		return nil, LookupError("key '%s' not found", k)
	}
	return v, nil
}

func dictSetItem(rt *Runtime, self, key, value Value) error {
	k, err := dictKey(rt, key)
	if err != nil {
		return err
	}
	d := self.(*Dict)
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if value == nil {
		if !d.ns.Delete(k) {
			return LookupError("key '%s' not found", k)
		}
		return nil
	}
	d.Set(k, value)
	return nil
}

func dictContains(rt *Runtime, self, item Value) (bool, error) {
	k, ok := item.(string)
	if !ok {
		return false, nil
	}
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	_, found := self.(*Dict).Get(k)
	return found, nil
}

// dictInit fills a dict from an optional dict argument and keywords.
func dictInit(rt *Runtime, self Value, args []Value, kw Kwargs) error {
	if len(args) > 1 {
		return TypeError("dict expected at most 1 argument, got %d", len(args))
	}
	d := self.(*Dict)
	var src *Namespace
	if len(args) == 1 {
		other, ok := args[0].(*Dict)
		if !ok {
			return TypeError("dict() argument must be a dict, not '%s'", rt.TypeName(args[0]))
		}
		rt.mu.RLock()
		src = other.ns.Copy()
		rt.mu.RUnlock()
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()
	if src != nil {
		for _, n := range src.Names() {
			v, _ := src.Get(n)
			d.Set(n, v)
		}
	}
	for _, k := range kw {
		d.Set(k.Name, k.Value)
	}
	return nil
}
