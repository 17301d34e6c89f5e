package typepool

import (
	"fmt"
	"reflect"
)

// typeFor returns the reflect.Type for a type parameter, interfaces
// included.
func typeFor[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register files a pending persistent registration for T, constructed
// at resolution time from T's declared forms (see Pool.Declare) or,
// for struct types with no declared forms, the synthesized
// parameterless default.
func Register[T any](p *Pool, opts ...RegisterOption) error {
	return p.registerType(typeFor[T](), opts...)
}

// RegisterNow constructs an instance of T immediately and files it in
// the active store. Unlike Resolve, this fails loudly: construction
// errors are returned.
func RegisterNow[T any](p *Pool, opts ...RegisterOption) error {
	instance, err := p.CreateInstance(typeFor[T]())
	if err != nil {
		return err
	}
	return p.RegisterNow(instance, opts...)
}

// Resolve resolves a service as type T. Absence of a registration is
// not an error: the zero value and a nil error are returned.
func Resolve[T any](p *Pool) (T, error) {
	var zero T

	instance, err := p.Resolve(typeFor[T]())
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}

	result, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{Expected: typeFor[T](), Actual: reflect.TypeOf(instance)}
	}
	return result, nil
}

// MustResolve resolves a service as type T and panics when resolution
// fails or nothing matches.
func MustResolve[T any](p *Pool) T {
	instance, err := p.Resolve(typeFor[T]())
	if err != nil {
		panic(fmt.Sprintf("failed to resolve %s: %v", formatType(typeFor[T]()), err))
	}
	if instance == nil {
		panic(fmt.Sprintf("no registration matches %s", formatType(typeFor[T]())))
	}

	result, ok := instance.(T)
	if !ok {
		panic(fmt.Sprintf("resolved %s is not %s", formatType(reflect.TypeOf(instance)), formatType(typeFor[T]())))
	}
	return result
}

// Consume resolves a service as type T and removes its registration.
// A second Consume for the same type returns the zero value.
func Consume[T any](p *Pool) (T, error) {
	var zero T

	instance, err := p.Consume(typeFor[T]())
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}

	result, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{Expected: typeFor[T](), Actual: reflect.TypeOf(instance)}
	}
	return result, nil
}

// Remove removes the registration matching T from whichever store
// holds it.
func Remove[T any](p *Pool) bool {
	return p.Remove(typeFor[T]())
}

// Contains reports whether any registration matches T.
func Contains[T any](p *Pool) bool {
	return p.Contains(typeFor[T]())
}

// Create constructs a fresh instance of T through constructor
// injection, bypassing the stores for T itself.
func Create[T any](p *Pool) (T, error) {
	var zero T

	instance, err := p.CreateInstance(typeFor[T]())
	if err != nil {
		return zero, err
	}

	result, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{Expected: typeFor[T](), Actual: reflect.TypeOf(instance)}
	}
	return result, nil
}

// Discover resolves T, falling back to the pool's discovery provider.
func Discover[T any](p *Pool) (T, error) {
	var zero T

	instance, err := p.Discover(typeFor[T]())
	if err != nil {
		return zero, err
	}
	if instance == nil {
		return zero, nil
	}

	result, ok := instance.(T)
	if !ok {
		return zero, TypeMismatchError{Expected: typeFor[T](), Actual: reflect.TypeOf(instance)}
	}
	return result, nil
}
