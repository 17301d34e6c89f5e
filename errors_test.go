package typepool

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errTestService struct{}
type errTestDep struct{}

func TestSentinelErrors(t *testing.T) {
	sentinelErrors := []struct {
		err     error
		message string
	}{
		{ErrConstructorNil, "constructor cannot be nil"},
		{ErrInstanceNil, "instance cannot be nil"},
		{ErrTypeNil, "type cannot be nil"},
		{ErrPoolNil, "pool cannot be nil"},
	}

	for _, tt := range sentinelErrors {
		t.Run(tt.message, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.Equal(t, tt.message, tt.err.Error())
		})
	}
}

func TestDuplicateRegistrationError(t *testing.T) {
	t.Run("identical key", func(t *testing.T) {
		err := DuplicateRegistrationError{
			Key:     reflect.TypeOf(&errTestService{}),
			Claimed: reflect.TypeOf(&errTestService{}),
		}
		assert.Equal(t, "type *errTestService already registered", err.Error())
	})

	t.Run("overlapping key", func(t *testing.T) {
		err := DuplicateRegistrationError{
			Key:     reflect.TypeOf(&errTestService{}),
			Claimed: reflect.TypeOf(&errTestDep{}),
		}
		assert.Contains(t, err.Error(), "*errTestService")
		assert.Contains(t, err.Error(), "*errTestDep")
		assert.Contains(t, err.Error(), "overlaps")
	})
}

func TestNotInstantiableError(t *testing.T) {
	t.Run("with reason", func(t *testing.T) {
		err := NotInstantiableError{
			Type:   reflect.TypeOf((*error)(nil)).Elem(),
			Reason: "interface type",
		}
		assert.Equal(t, "type error is not instantiable: interface type", err.Error())
	})

	t.Run("without reason", func(t *testing.T) {
		err := NotInstantiableError{Type: reflect.TypeOf(0)}
		assert.Equal(t, "type int is not instantiable", err.Error())
	})
}

func TestMissingDependencyError(t *testing.T) {
	t.Run("lists each attempted form", func(t *testing.T) {
		err := MissingDependencyError{
			Type: reflect.TypeOf(&errTestService{}),
			Attempts: [][]reflect.Type{
				{reflect.TypeOf(&errTestDep{}), reflect.TypeOf("")},
				{reflect.TypeOf(&errTestDep{})},
			},
		}

		msg := err.Error()
		assert.Contains(t, msg, "cannot construct *errTestService")
		assert.Contains(t, msg, "unresolved: [*errTestDep, string]")
		assert.Contains(t, msg, "unresolved: [*errTestDep]")
	})

	t.Run("no attempts", func(t *testing.T) {
		err := MissingDependencyError{Type: reflect.TypeOf(&errTestService{})}
		assert.Equal(t, "cannot construct *errTestService: no constructor could be satisfied", err.Error())
	})
}

func TestRegistrationError(t *testing.T) {
	t.Run("with type", func(t *testing.T) {
		err := RegistrationError{
			Type:      reflect.TypeOf(&errTestService{}),
			Operation: "register",
			Cause:     ErrConstructorNil,
		}
		assert.Equal(t, "failed to register *errTestService: constructor cannot be nil", err.Error())
		assert.True(t, errors.Is(err, ErrConstructorNil))
	})

	t.Run("without type", func(t *testing.T) {
		err := RegistrationError{Operation: "register-now", Cause: ErrInstanceNil}
		assert.Equal(t, "failed to register-now: instance cannot be nil", err.Error())
		assert.True(t, errors.Is(err, ErrInstanceNil))
	})
}

func TestConstructorInvocationError(t *testing.T) {
	cause := errors.New("database unreachable")
	err := ConstructorInvocationError{
		Constructor: reflect.TypeOf(func(*errTestDep) *errTestService { return nil }),
		Parameters:  []reflect.Type{reflect.TypeOf(&errTestDep{})},
		Cause:       cause,
	}

	assert.Contains(t, err.Error(), "[*errTestDep]")
	assert.Contains(t, err.Error(), "database unreachable")
	assert.True(t, errors.Is(err, cause))
}

func TestConstructorPanicError(t *testing.T) {
	t.Run("with stack", func(t *testing.T) {
		err := ConstructorPanicError{
			Constructor: reflect.TypeOf(func() *errTestService { return nil }),
			Panic:       "boom",
			Stack:       []byte("goroutine 1 [running]:"),
		}

		msg := err.Error()
		assert.Contains(t, msg, "panicked: boom")
		assert.Contains(t, msg, "Stack trace:")
	})

	t.Run("without stack", func(t *testing.T) {
		err := ConstructorPanicError{Panic: 42}
		assert.Contains(t, err.Error(), "panicked: 42")
		assert.NotContains(t, err.Error(), "Stack trace:")
	})
}

func TestTypeMismatchError(t *testing.T) {
	err := TypeMismatchError{
		Expected: reflect.TypeOf(&errTestService{}),
		Actual:   reflect.TypeOf(&errTestDep{}),
	}
	assert.Equal(t, "resolved instance type mismatch: expected *errTestService, got *errTestDep", err.Error())
}

func TestFormatType(t *testing.T) {
	tests := []struct {
		name     string
		typ      reflect.Type
		expected string
	}{
		{"nil", nil, "<nil>"},
		{"pointer to named struct", reflect.TypeOf(&errTestService{}), "*errTestService"},
		{"named struct", reflect.TypeOf(errTestService{}), "errTestService"},
		{"slice of named struct", reflect.TypeOf([]errTestService{}), "[]errTestService"},
		{"builtin", reflect.TypeOf(0), "int"},
		{"pointer to builtin", reflect.TypeOf(new(int)), "*int"},
		{"unnamed struct", reflect.TypeOf(struct{ X int }{}), "struct { X int }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, formatType(tt.typ))
		})
	}
}
