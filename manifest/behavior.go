package manifest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/dunder/vm"
)

// A behavior is one of the canned method bodies a manifest can bind to a
// name:
//
//	const:<literal>   return the literal (int, float, true, false, none or text)
//	self              return the receiver
//	arg:<n>           return positional argument n (0 is the receiver)
//	attr:<name>       return the receiver's attribute
//	setattr:<name>    store argument 1 on the receiver, return none
//	notimplemented    return NotImplemented
//	stop              raise StopIteration
type behavior struct {
	kind  string
	value vm.Value
	index int
	name  string
}

func parseBehavior(spec string) (behavior, error) {
	kind, rest, hasArg := strings.Cut(spec, ":")
	switch kind {
	case "self", "notimplemented", "stop":
		if hasArg {
			return behavior{}, fmt.Errorf("behavior %q takes no argument", kind)
		}
		return behavior{kind: kind}, nil
	case "const":
		if !hasArg {
			return behavior{}, fmt.Errorf("const needs a value")
		}
		return behavior{kind: kind, value: parseLiteral(rest)}, nil
	case "arg":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return behavior{}, fmt.Errorf("arg needs a non-negative index, got %q", rest)
		}
		return behavior{kind: kind, index: n}, nil
	case "attr", "setattr":
		if rest == "" {
			return behavior{}, fmt.Errorf("%s needs an attribute name", kind)
		}
		return behavior{kind: kind, name: rest}, nil
	}
	return behavior{}, fmt.Errorf("unknown behavior %q", spec)
}

func parseLiteral(s string) vm.Value {
	switch s {
	case "none":
		return vm.None
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// function returns the behavior as a function object named name.
func (b behavior) function(name string) *vm.Function {
	return vm.NewFunction(name, func(rt *vm.Runtime, args []vm.Value, kw vm.Kwargs) (vm.Value, error) {
		switch b.kind {
		case "const":
			return b.value, nil
		case "self":
			if len(args) == 0 {
				return nil, vm.TypeError("%s() missing the receiver", name)
			}
			return args[0], nil
		case "arg":
			if b.index >= len(args) {
				return nil, vm.TypeError("%s() takes at least %d positional arguments (%d given)", name, b.index+1, len(args))
			}
			return args[b.index], nil
		case "attr":
			if len(args) == 0 {
				return nil, vm.TypeError("%s() missing the receiver", name)
			}
			return rt.GetAttr(args[0], b.name)
		case "setattr":
			if len(args) != 2 {
				return nil, vm.TypeError("%s() takes 2 positional arguments (%d given)", name, len(args))
			}
			return nil, rt.SetAttr(args[0], b.name, args[1])
		case "notimplemented":
			return vm.NotImplemented, nil
		case "stop":
			return nil, vm.StopIteration()
		}
		return nil, vm.TypeError("unknown behavior %q", b.kind)
	})
}
