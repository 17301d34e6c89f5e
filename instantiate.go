package typepool

import (
	"reflect"
	"runtime/debug"

	"github.com/typepool/typepool/internal/reflection"
	"github.com/typepool/typepool/internal/registry"
)

// Form is one constructible shape of a type: a constructor function
// with its analyzed parameter list, or a synthesized zero-argument
// default for struct types that declare no constructors.
type Form struct {
	info *reflection.ConstructorInfo
	zero reflect.Type
}

// NumParams returns the form's declared parameter count.
func (f Form) NumParams() int {
	if f.info == nil {
		return 0
	}
	return len(f.info.Parameters)
}

// Params returns the form's parameter types in declaration order.
func (f Form) Params() []reflect.Type {
	if f.info == nil {
		return nil
	}
	params := make([]reflect.Type, len(f.info.Parameters))
	for i, p := range f.info.Parameters {
		params[i] = p.Type
	}
	return params
}

// Produces returns the type the form constructs.
func (f Form) Produces() reflect.Type {
	if f.info == nil {
		return f.zero
	}
	return f.info.Result
}

// CreateInstance constructs a new instance of the requested type
// through constructor injection, without consulting or touching the
// registrations for the type itself. It fails with
// NotInstantiableError for interface types and for types with no
// constructible form, and with MissingDependencyError when every
// enumerated form has unsatisfiable parameters.
func (p *Pool) CreateInstance(t reflect.Type) (any, error) {
	if t == nil {
		return nil, ErrTypeNil
	}
	if t.Kind() == reflect.Interface {
		return nil, NotInstantiableError{Type: t, Reason: "interface type"}
	}

	forms := p.formsFor(t)
	if len(forms) == 0 {
		return nil, NotInstantiableError{Type: t, Reason: "no declared constructors"}
	}

	return p.construct(t, forms)
}

// formsFor returns the declared constructible forms for a type. A
// struct or pointer-to-struct type with no declared forms gets the
// synthesized zero-argument default, the analog of an implicit
// parameterless constructor. Declared forms suppress the default.
func (p *Pool) formsFor(t reflect.Type) []Form {
	if forms, ok := p.forms[t]; ok && len(forms) > 0 {
		return forms
	}

	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() == reflect.Struct {
		return []Form{{zero: t}}
	}

	return nil
}

// construct tries the type's forms in the config's enumeration order.
// A form whose parameters all resolve wins; a form with unsatisfiable
// parameters is abandoned silently in favor of the next. Exhausting
// all forms fails with MissingDependencyError carrying each attempted
// form's unresolved parameter list.
func (p *Pool) construct(t reflect.Type, forms []Form) (any, error) {
	ordered := p.config.Order(forms)

	attempts := make([][]reflect.Type, 0, len(ordered))
	for _, form := range ordered {
		args, missing := p.buildArguments(t, form)
		if len(missing) > 0 {
			attempts = append(attempts, missing)
			continue
		}
		return p.invoke(form, args)
	}

	return nil, MissingDependencyError{Type: t, Attempts: attempts}
}

// buildArguments resolves one value per form parameter. It returns the
// argument list and the types of parameters that could not be
// satisfied; optional parameters resolve to the invalid value, which
// stands for the zero-value sentinel.
func (p *Pool) buildArguments(under reflect.Type, form Form) ([]reflect.Value, []reflect.Type) {
	if form.info == nil {
		return nil, nil
	}

	args := make([]reflect.Value, len(form.info.Parameters))
	var missing []reflect.Type

	for i, param := range form.info.Parameters {
		val, ok := p.resolveParameter(under, param.Type)
		if !ok {
			if param.Optional {
				args[i] = reflect.Value{}
				continue
			}
			missing = append(missing, param.Type)
			continue
		}
		args[i] = val
	}

	return args, missing
}

// resolveParameter resolves a single constructor parameter. A
// parameter the type under construction is assignable to is
// self-referential: the constructor is asking for one of its own
// contracts. Such a parameter is served from the active store only,
// which stops the factory currently running from recursing into
// itself. All other parameters go through a full pool resolution.
func (p *Pool) resolveParameter(under, paramType reflect.Type) (reflect.Value, bool) {
	if under.AssignableTo(paramType) {
		if e := p.reg.FindActive(paramType, registry.Match(p.config.MatchActive)); e != nil {
			return toArgument(e.Instance, paramType)
		}
		return reflect.Value{}, false
	}

	instance, err := p.resolve(paramType)
	if err != nil || instance == nil {
		return reflect.Value{}, false
	}
	return toArgument(instance, paramType)
}

// toArgument converts a resolved instance into a call argument,
// rejecting instances the parameter cannot actually accept. The
// flexible strategies can match a stored key whose instance does not
// satisfy the requested parameter; such a match counts as unresolved.
func toArgument(instance any, paramType reflect.Type) (reflect.Value, bool) {
	v := reflect.ValueOf(instance)
	if !v.IsValid() || !v.Type().AssignableTo(paramType) {
		return reflect.Value{}, false
	}
	return v, true
}

// invoke runs a fully satisfied form. Synthesized defaults allocate a
// fresh value; constructor functions are called with panic recovery,
// and a non-nil error return aborts the whole resolution rather than
// falling through to another form.
func (p *Pool) invoke(form Form, args []reflect.Value) (instance any, err error) {
	if form.info == nil {
		if form.zero.Kind() == reflect.Pointer {
			return reflect.New(form.zero.Elem()).Interface(), nil
		}
		return reflect.New(form.zero).Elem().Interface(), nil
	}

	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = ConstructorPanicError{
				Constructor: form.info.Type,
				Panic:       r,
				Stack:       debug.Stack(),
			}
		}
	}()

	results := form.info.Call(args)
	if form.info.HasErrorReturn && !results[1].IsNil() {
		return nil, ConstructorInvocationError{
			Constructor: form.info.Type,
			Parameters:  form.Params(),
			Cause:       results[1].Interface().(error),
		}
	}

	return results[0].Interface(), nil
}
