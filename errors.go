package typepool

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================
// Base errors wrapped by the typed errors below. Never returned bare
// from the public API without context.

var (
	// Registration errors.
	ErrConstructorNil = errors.New("constructor cannot be nil")
	ErrInstanceNil    = errors.New("instance cannot be nil")
	ErrTypeNil        = errors.New("type cannot be nil")

	// Resolution errors.
	ErrPoolNil = errors.New("pool cannot be nil")
)

var (
	_ error = DuplicateRegistrationError{}
	_ error = NotInstantiableError{}
	_ error = MissingDependencyError{}
	_ error = RegistrationError{}
	_ error = ConstructorInvocationError{}
	_ error = ConstructorPanicError{}
	_ error = TypeMismatchError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// DuplicateRegistrationError indicates a registration whose key set
// collides with a key already claimed in the pool. Under the flexible
// registration strategy a collision includes any assignability overlap
// across the base/interface graph, not just an identical key.
type DuplicateRegistrationError struct {
	Key     reflect.Type // incoming key that collided
	Claimed reflect.Type // key already filed in the pool
}

func (e DuplicateRegistrationError) Error() string {
	if e.Key == e.Claimed {
		return fmt.Sprintf("type %s already registered", formatType(e.Claimed))
	}
	return fmt.Sprintf("registration of %s overlaps already-claimed type %s",
		formatType(e.Key), formatType(e.Claimed))
}

// NotInstantiableError indicates CreateInstance was asked to construct
// a type that has no constructible form: an interface, or a type with
// no declared constructors and no synthesizable default form.
type NotInstantiableError struct {
	Type   reflect.Type
	Reason string
}

func (e NotInstantiableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("type %s is not instantiable: %s", formatType(e.Type), e.Reason)
	}
	return fmt.Sprintf("type %s is not instantiable", formatType(e.Type))
}

// MissingDependencyError indicates every enumerated constructor form
// was tried and none could be fully satisfied. Attempts holds, per
// form in enumeration order, the parameter types that did not resolve.
type MissingDependencyError struct {
	Type     reflect.Type
	Attempts [][]reflect.Type
}

func (e MissingDependencyError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("cannot construct %s: no constructor could be satisfied", formatType(e.Type)))

	for _, attempt := range e.Attempts {
		params := make([]string, len(attempt))
		for i, p := range attempt {
			params[i] = formatType(p)
		}
		b.WriteString(fmt.Sprintf("\n  unresolved: [%s]", strings.Join(params, ", ")))
	}

	return b.String()
}

// RegistrationError wraps errors during registration.
type RegistrationError struct {
	Type      reflect.Type // nil when the type could not be determined
	Operation string       // "register", "register-now", "declare", etc.
	Cause     error
}

func (e RegistrationError) Error() string {
	if e.Type == nil {
		return fmt.Sprintf("failed to %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, formatType(e.Type), e.Cause)
}

func (e RegistrationError) Unwrap() error {
	return e.Cause
}

// ConstructorInvocationError indicates a fully satisfied constructor
// returned a non-nil error when invoked.
type ConstructorInvocationError struct {
	Constructor reflect.Type
	Parameters  []reflect.Type
	Cause       error
}

func (e ConstructorInvocationError) Error() string {
	params := make([]string, len(e.Parameters))
	for i, p := range e.Parameters {
		params[i] = formatType(p)
	}
	return fmt.Sprintf("constructor %s with parameters [%s] failed: %v",
		formatType(e.Constructor), strings.Join(params, ", "), e.Cause)
}

func (e ConstructorInvocationError) Unwrap() error {
	return e.Cause
}

// ConstructorPanicError indicates a constructor panicked during
// invocation. It captures the panic value and stack trace.
type ConstructorPanicError struct {
	Constructor reflect.Type
	Panic       any
	Stack       []byte
}

func (e ConstructorPanicError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("constructor %s panicked: %v", formatType(e.Constructor), e.Panic))
	if len(e.Stack) > 0 {
		b.WriteString("\n\nStack trace:\n")
		b.Write(e.Stack)
	}
	return b.String()
}

// TypeMismatchError indicates a resolved instance could not be
// asserted to the requested type. This can only happen through the
// flexible resolution strategies, where a stored key may match a
// request the underlying instance does not satisfy.
type TypeMismatchError struct {
	Expected reflect.Type
	Actual   reflect.Type
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("resolved instance type mismatch: expected %s, got %s",
		formatType(e.Expected), formatType(e.Actual))
}

// formatType formats a reflect.Type for error messages.
func formatType(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}

	switch t.Kind() {
	case reflect.Pointer:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "*" + elem.Name()
		}
		return t.String()
	case reflect.Slice:
		elem := t.Elem()
		if elem.PkgPath() != "" && elem.Name() != "" {
			return "[]" + elem.Name()
		}
		return t.String()
	case reflect.Interface, reflect.Struct:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	default:
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}
