// Package reflection analyzes constructor functions: their parameter
// lists, parameter-object (In struct) shapes, and return conventions.
// Analysis results are cached per function pointer.
package reflection

import (
	"fmt"
	"reflect"
	"sync"
)

// In marks a struct as a parameter object. A constructor taking a
// single struct with an embedded In has each exported field treated as
// a parameter; fields tagged `optional:"true"` keep their zero value
// when unresolvable, and fields tagged `inject:"-"` are skipped.
type In struct{}

var (
	inType  = reflect.TypeOf((*In)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Analyzer performs reflection-based analysis of constructor functions
// and caches the results.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[uintptr]*ConstructorInfo
}

// ConstructorInfo is the analyzed shape of one constructor function.
type ConstructorInfo struct {
	Value      reflect.Value
	Type       reflect.Type
	Result     reflect.Type // produced type, first non-error return
	Parameters []ParameterInfo

	// IsParamObject is true when the single parameter is an In struct.
	IsParamObject bool
	paramStruct   reflect.Type // In struct type, dereferenced
	paramPointer  bool         // declared as *struct

	HasErrorReturn bool
}

// ParameterInfo describes one constructor parameter or In struct field.
type ParameterInfo struct {
	Type     reflect.Type
	Name     string // field name for In structs
	Index    int    // parameter index, or field index for In structs
	Optional bool   // from optional:"true" tag
}

// New creates an empty Analyzer.
func New() *Analyzer {
	return &Analyzer{cache: make(map[uintptr]*ConstructorInfo)}
}

// Analyze inspects a constructor function. The function must take zero
// or more injectable parameters (or a single In struct) and return the
// produced value, optionally followed by an error.
func (a *Analyzer) Analyze(constructor any) (*ConstructorInfo, error) {
	if constructor == nil {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	val := reflect.ValueOf(constructor)
	if !val.IsValid() || (val.Kind() == reflect.Func && val.IsNil()) {
		return nil, fmt.Errorf("constructor cannot be nil")
	}

	typ := val.Type()
	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("constructor must be a function, got %s", typ)
	}
	if typ.IsVariadic() {
		return nil, fmt.Errorf("variadic constructors are not supported: %s", typ)
	}

	cacheKey := val.Pointer()

	a.mu.RLock()
	if cached, ok := a.cache[cacheKey]; ok {
		a.mu.RUnlock()
		return cached, nil
	}
	a.mu.RUnlock()

	info := &ConstructorInfo{
		Value: val,
		Type:  typ,
	}

	if err := a.analyzeReturns(info); err != nil {
		return nil, err
	}
	if err := a.analyzeParameters(info); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.cache[cacheKey] = info
	a.mu.Unlock()

	return info, nil
}

func (a *Analyzer) analyzeReturns(info *ConstructorInfo) error {
	fnType := info.Type

	switch fnType.NumOut() {
	case 1:
		if implementsError(fnType.Out(0)) {
			return fmt.Errorf("constructor %s only returns an error", fnType)
		}
		info.Result = fnType.Out(0)
	case 2:
		if !implementsError(fnType.Out(1)) {
			return fmt.Errorf("constructor %s second return must be error, got %s", fnType, fnType.Out(1))
		}
		info.Result = fnType.Out(0)
		info.HasErrorReturn = true
	default:
		return fmt.Errorf("constructor %s must return (T) or (T, error)", fnType)
	}

	return nil
}

func (a *Analyzer) analyzeParameters(info *ConstructorInfo) error {
	fnType := info.Type

	if fnType.NumIn() == 1 {
		paramType := fnType.In(0)
		if hasEmbeddedIn(paramType) {
			info.IsParamObject = true
			return a.analyzeParamObject(info, paramType)
		}
	}

	info.Parameters = make([]ParameterInfo, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		info.Parameters[i] = ParameterInfo{
			Type:  fnType.In(i),
			Index: i,
		}
	}

	return nil
}

func (a *Analyzer) analyzeParamObject(info *ConstructorInfo, structType reflect.Type) error {
	if structType.Kind() == reflect.Pointer {
		info.paramPointer = true
		structType = structType.Elem()
	}
	info.paramStruct = structType

	params := make([]ParameterInfo, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if !field.IsExported() {
			continue
		}
		if field.Anonymous && field.Type == inType {
			continue
		}
		if field.Tag.Get("inject") == "-" {
			continue
		}

		params = append(params, ParameterInfo{
			Type:     field.Type,
			Name:     field.Name,
			Index:    i,
			Optional: field.Tag.Get("optional") == "true",
		})
	}

	info.Parameters = params
	return nil
}

// Call invokes the constructor with one resolved value per parameter,
// in Parameters order. An invalid reflect.Value stands for an optional
// parameter that resolved to nothing: the corresponding In struct field
// keeps its zero value.
func (info *ConstructorInfo) Call(args []reflect.Value) []reflect.Value {
	if !info.IsParamObject {
		return info.Value.Call(args)
	}

	structPtr := reflect.New(info.paramStruct)
	structValue := structPtr.Elem()
	for i, param := range info.Parameters {
		if !args[i].IsValid() {
			continue
		}
		structValue.Field(param.Index).Set(args[i])
	}

	arg := structValue
	if info.paramPointer {
		arg = structPtr
	}
	return info.Value.Call([]reflect.Value{arg})
}

// hasEmbeddedIn reports whether a struct (or pointer to struct) embeds In.
func hasEmbeddedIn(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == inType {
			return true
		}
	}
	return false
}

func implementsError(t reflect.Type) bool {
	return t.Implements(errType)
}
