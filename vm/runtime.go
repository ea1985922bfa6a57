package vm

import (
	"os"
	"strconv"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("dunder.vm")

// Config holds runtime configuration
type Config struct {
	CompactLimit int  // Shared key table size per class (0 disables compact stores)
	Debug        bool // Log slot updates and construction transitions
}

// DefaultConfig returns a configuration with default values.
// DUNDER_COMPACT_LIMIT overrides the compact store limit and DUNDER_DEBUG
// enables debug logging of the object model.
func DefaultConfig() *Config {
	cfg := &Config{
		CompactLimit: DefaultCompactLimit,
		Debug:        os.Getenv("DUNDER_DEBUG") != "",
	}
	if s := os.Getenv("DUNDER_COMPACT_LIMIT"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			cfg.CompactLimit = n
		}
	}
	return cfg
}

// ConstructionObserver is notified of every construction state transition.
type ConstructionObserver func(cls *Class, state ConstructState)

// Runtime owns one object model: the root classes, the built-in native
// classes and the lock that serializes all mutation of class structures.
//
// The lock is never held while user-level code runs, so functions invoked
// from __new__, __init__ or descriptors may freely mutate classes.
type Runtime struct {
	mu  sync.RWMutex
	cfg Config

	Classes  *ClassTable
	Observer ConstructionObserver

	// Root classes
	ObjectClass *Class
	TypeClass   *Class

	// Native value classes
	NoneClass           *Class
	NotImplementedClass *Class
	IntClass            *Class
	BoolClass           *Class
	FloatClass          *Class
	StrClass            *Class
	TupleClass          *Class
	TupleIteratorClass  *Class
	DictClass           *Class

	// Callables and descriptors
	FunctionClass              *Class
	MethodClass                *Class
	BuiltinFunctionClass       *Class
	MethodDescriptorClass      *Class
	ClassMethodDescriptorClass *Class
	GetSetDescriptorClass      *Class
	MemberDescriptorClass      *Class
	WrapperDescriptorClass     *Class
	MethodWrapperClass         *Class
	PropertyClass              *Class
	ClassMethodClass           *Class
	StaticMethodClass          *Class

	// Native slot implementations the construction protocol compares against.
	objectNew  *SlotImpl
	objectInit *SlotImpl
	typeNew    *SlotImpl

	// The native type.mro method, to detect metaclass overrides.
	typeMro *MethodDescriptor
}

// New creates a runtime and bootstraps its built-in classes.
func New(cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	rt := &Runtime{
		cfg:     *cfg,
		Classes: NewClassTable(),
	}
	if err := rt.bootstrap(); err != nil {
		return nil, err
	}
	log.Debugf("runtime ready with %d built-in classes", rt.Classes.Len())
	return rt, nil
}

var (
	defaultRuntime     *Runtime
	defaultRuntimeOnce sync.Once
)

// Default returns the process-wide runtime, creating it on first use.
func Default() *Runtime {
	defaultRuntimeOnce.Do(func() {
		rt, err := New(nil)
		if err != nil {
			panic("vm: bootstrap failed: " + err.Error())
		}
		defaultRuntime = rt
	})
	return defaultRuntime
}

// Config returns a copy of the runtime configuration.
func (rt *Runtime) Config() Config {
	return rt.cfg
}

// debugf logs at debug level when the runtime is configured for it.
func (rt *Runtime) debugf(format string, args ...any) {
	if rt.cfg.Debug {
		log.Debugf(format, args...)
	}
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

// Allocate creates a blank instance of cls sized for its layout.
// No __new__ or __init__ is run.
func (rt *Runtime) Allocate(cls *Class) (Value, error) {
	switch cls.Layout.Basis {
	case BasisObject:
		return newObject(cls, rt.cfg.CompactLimit), nil
	case BasisClass:
		return &Class{
			ID:    newClassID(),
			meta:  cls,
			Dict:  NewNamespace(),
			Flags: FlagHeapType,
		}, nil
	}
	return nil, ConstructionError(cls.Name, "cannot create '%s' instances", cls.Name)
}

// ---------------------------------------------------------------------------
// Identity
// ---------------------------------------------------------------------------

// Is reports whether a and b are the same value.
func Is(a, b Value) (same bool) {
	defer func() {
		// Uncomparable dynamic types (tuples) are never identical.
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
