package vm

// ---------------------------------------------------------------------------
// Construction protocol
// ---------------------------------------------------------------------------

// ConstructState is a state of one construction call.
type ConstructState uint8

const (
	StateRequested ConstructState = iota
	StateNewInvoked
	StateSkipInit
	StateInitInvoked
	StateDone
	StateFailed
)

var constructStateNames = [...]string{
	StateRequested:   "Requested",
	StateNewInvoked:  "NewInvoked",
	StateSkipInit:    "SkipInit",
	StateInitInvoked: "InitInvoked",
	StateDone:        "Done",
	StateFailed:      "Failed",
}

// String returns the state name.
func (s ConstructState) String() string {
	if int(s) < len(constructStateNames) {
		return constructStateNames[s]
	}
	return "Unknown"
}

func (rt *Runtime) transition(cls *Class, state ConstructState) {
	rt.debugf("construct %s: %s", cls.Name, state)
	if rt.Observer != nil {
		rt.Observer(cls, state)
	}
}

func (rt *Runtime) constructFailed(cls *Class, err error) (Value, error) {
	rt.transition(cls, StateFailed)
	return nil, err
}

// Construct creates an instance of cls: __new__, then __init__ on the result
// when it is an instance of cls. It is the call slot of type.
func (rt *Runtime) Construct(cls *Class, args []Value, kw Kwargs) (Value, error) {
	return typeCall(rt, cls, args, kw)
}

func typeCall(rt *Runtime, self Value, args []Value, kw Kwargs) (Value, error) {
	cls := self.(*Class)
	rt.transition(cls, StateRequested)

	newImpl := cls.Slot(SlotNew)
	if newImpl == nil {
		return rt.constructFailed(cls, ConstructionError(cls.Name, "cannot create '%s' instances", cls.Name))
	}

	// Neither __new__ nor __init__ customized: allocate directly.
	if newImpl == rt.objectNew && cls.Slot(SlotInit) == rt.objectInit {
		if len(args) > 0 || len(kw) > 0 {
			return rt.constructFailed(cls, ConstructionError(cls.Name, "%s() takes no arguments", cls.Name))
		}
		obj, err := rt.Allocate(cls)
		if err != nil {
			return rt.constructFailed(cls, err)
		}
		rt.transition(cls, StateNewInvoked)
		rt.transition(cls, StateSkipInit)
		rt.transition(cls, StateDone)
		return obj, nil
	}

	obj, err := newImpl.Fn.(NewFunc)(rt, cls, args, kw)
	if err != nil {
		return rt.constructFailed(cls, err)
	}
	rt.transition(cls, StateNewInvoked)

	// type(x) reports the class of x; it never initializes anything.
	if cls == rt.TypeClass && len(args) == 1 && len(kw) == 0 {
		rt.transition(cls, StateSkipInit)
		rt.transition(cls, StateDone)
		return obj, nil
	}

	if !rt.IsInstance(obj, cls) {
		rt.transition(cls, StateSkipInit)
		rt.transition(cls, StateDone)
		return obj, nil
	}

	if initImpl := rt.TypeOf(obj).Slot(SlotInit); initImpl != nil {
		rt.transition(cls, StateInitInvoked)
		if err := initImpl.Fn.(InitFunc)(rt, obj, args, kw); err != nil {
			return rt.constructFailed(cls, err)
		}
	}
	rt.transition(cls, StateDone)
	return obj, nil
}

// ---------------------------------------------------------------------------
// object.__new__ / object.__init__
// ---------------------------------------------------------------------------

func excessArgs(args []Value, kw Kwargs) bool {
	return len(args) > 0 || len(kw) > 0
}

// objectNew allocates a blank instance. Arguments are only tolerated when
// the class customizes __init__ but not __new__.
func objectNew(rt *Runtime, cls *Class, args []Value, kw Kwargs) (Value, error) {
	if excessArgs(args, kw) {
		if cls.Slot(SlotNew) != rt.objectNew {
			return nil, ConstructionError(cls.Name, "object.__new__() takes exactly one argument (the type to instantiate)")
		}
		if cls.Slot(SlotInit) == rt.objectInit {
			return nil, ConstructionError(cls.Name, "%s() takes no arguments", cls.Name)
		}
	}
	return rt.Allocate(cls)
}

// objectInit does nothing. Arguments are only tolerated when the class
// customizes __new__ but not __init__.
func objectInit(rt *Runtime, self Value, args []Value, kw Kwargs) error {
	if excessArgs(args, kw) {
		tp := rt.TypeOf(self)
		if tp.Slot(SlotInit) != rt.objectInit {
			return ConstructionError(tp.Name, "object.__init__() takes exactly one argument (the instance to initialize)")
		}
		if tp.Slot(SlotNew) == rt.objectNew {
			return ConstructionError(tp.Name, "%s() takes no arguments", tp.Name)
		}
	}
	return nil
}
