package vm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes an object-model error.
type Kind string

const (
	KindMroConflict       Kind = "mro_conflict"
	KindDuplicateBase     Kind = "duplicate_base"
	KindLayoutConflict    Kind = "layout_conflict"
	KindMetaclassConflict Kind = "metaclass_conflict"
	KindAttributeNotFound Kind = "attribute_not_found"
	KindConstructionType  Kind = "construction_type"
	KindUnhashableType    Kind = "unhashable_type"
	KindType              Kind = "type"
	KindStopIteration     Kind = "stop_iteration"
	KindNotImplementedOp  Kind = "not_implemented_op"
	KindLookup            Kind = "lookup"
	KindValue             Kind = "value"
)

// Error is the structured error returned by the object model.
//
// Class and Attr name the offending class and attribute when known.
// Candidates lists the unresolved classes of an MRO conflict.
type Error struct {
	Kind       Kind
	Class      string
	Attr       string
	Detail     string
	Candidates []string
	Cause      error
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrMroConflict       = &Error{Kind: KindMroConflict}
	ErrDuplicateBase     = &Error{Kind: KindDuplicateBase}
	ErrLayoutConflict    = &Error{Kind: KindLayoutConflict}
	ErrMetaclassConflict = &Error{Kind: KindMetaclassConflict}
	ErrAttributeNotFound = &Error{Kind: KindAttributeNotFound}
	ErrConstructionType  = &Error{Kind: KindConstructionType}
	ErrUnhashableType    = &Error{Kind: KindUnhashableType}
	ErrType              = &Error{Kind: KindType}
	ErrStopIteration     = &Error{Kind: KindStopIteration}
	ErrNotImplementedOp  = &Error{Kind: KindNotImplementedOp}
	ErrLookup            = &Error{Kind: KindLookup}
	ErrValue             = &Error{Kind: KindValue}
)

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(string(e.Kind))
	if e.Class != "" {
		b.WriteString(" [")
		b.WriteString(e.Class)
		if e.Attr != "" {
			b.WriteByte('.')
			b.WriteString(e.Attr)
		}
		b.WriteByte(']')
	} else if e.Attr != "" {
		b.WriteString(" [")
		b.WriteString(e.Attr)
		b.WriteByte(']')
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.Candidates) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Candidates, ", "))
		b.WriteByte(')')
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func newError(kind Kind, class string, format string, args ...any) *Error {
	detail := format
	if len(args) > 0 {
		detail = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Class: class, Detail: detail}
}

// AttributeError reports a failed attribute lookup on a value of class cls.
func AttributeError(cls, attr string, format string, args ...any) *Error {
	e := newError(KindAttributeNotFound, cls, format, args...)
	e.Attr = attr
	return e
}

// TypeError reports a generic type error.
func TypeError(format string, args ...any) *Error {
	return newError(KindType, "", format, args...)
}

// TypeErrorFor reports a type error raised by a value of class cls.
func TypeErrorFor(cls string, format string, args ...any) *Error {
	return newError(KindType, cls, format, args...)
}

// ConstructionError reports a construction or class creation type error.
func ConstructionError(cls string, format string, args ...any) *Error {
	return newError(KindConstructionType, cls, format, args...)
}

// UnhashableError reports an attempt to hash an unhashable value.
func UnhashableError(cls string) *Error {
	return newError(KindUnhashableType, cls, "unhashable type: '%s'", cls)
}

// StopIteration signals an exhausted iterator.
func StopIteration() *Error {
	return &Error{Kind: KindStopIteration}
}

// UnsupportedOperands reports an operator that neither operand implements.
func UnsupportedOperands(op string, left, right string) *Error {
	return newError(KindNotImplementedOp, left, "unsupported operand type(s) for %s: '%s' and '%s'", op, left, right)
}

// LookupError reports a missing key or an index out of range.
func LookupError(format string, args ...any) *Error {
	return newError(KindLookup, "", format, args...)
}

// ValueError reports an argument of the right type but an invalid value.
func ValueError(format string, args ...any) *Error {
	return newError(KindValue, "", format, args...)
}

// ---------------------------------------------------------------------------
// Predicates
// ---------------------------------------------------------------------------

// IsAttributeNotFound reports whether err is an attribute miss.
func IsAttributeNotFound(err error) bool {
	return errors.Is(err, ErrAttributeNotFound)
}

// IsStopIteration reports whether err signals iterator exhaustion.
func IsStopIteration(err error) bool {
	return errors.Is(err, ErrStopIteration)
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
