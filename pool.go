package typepool

import (
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/typepool/typepool/internal/reflection"
	"github.com/typepool/typepool/internal/registry"
)

// Pool is a type-keyed dependency-resolution container. It files
// producers (existing instances, run-once persistent factories, and
// run-always transient factories) under type keys computed by its
// Config, and resolves a requested type by returning a stored instance
// or synthesizing one through constructor injection.
//
// A Pool is not safe for concurrent use. It is designed to be built
// and consumed within one execution context, typically process
// start-up; callers sharing a pool across goroutines must add their
// own synchronization.
type Pool struct {
	id       string
	config   Config
	reg      *registry.Registry
	analyzer *reflection.Analyzer

	// forms is the constructible-form catalog: every constructor the
	// pool has seen for a type, via Register or Declare, in
	// declaration order.
	forms map[reflect.Type][]Form

	discoverer Discoverer

	onResolved func(t reflect.Type, instance any, d time.Duration)
	onError    func(t reflect.Type, err error)
}

// producer is the pending-entry payload. A nil forms slice means the
// constructible forms are looked up from the catalog at construction
// time, so a type can be registered before its constructors are
// declared.
type producer struct {
	target reflect.Type
	forms  []Form
}

// New creates a pool with the given options. Without options the pool
// uses the exact-match strategy of DefaultConfig.
func New(opts ...Option) *Pool {
	p := &Pool{
		id:       uuid.NewString(),
		config:   DefaultConfig(),
		reg:      registry.New(),
		analyzer: reflection.New(),
		forms:    make(map[reflect.Type][]Form),
	}

	for _, opt := range opts {
		if opt != nil {
			opt.applyOption(p)
		}
	}
	p.config = p.config.normalized()

	if p.config.SelfRegister {
		// The registry is empty at this point, so the claim cannot fail.
		_ = p.reg.PutActive(&registry.Entry{
			Keys:     []reflect.Type{reflect.TypeOf(p)},
			Instance: p,
		}, registry.Conflict(p.config.Conflict))
	}

	return p
}

// ID returns the unique ID of this pool.
func (p *Pool) ID() string {
	return p.id
}

// Config returns a copy of the pool's resolution configuration.
func (p *Pool) Config() Config {
	return p.config
}

// Register files a pending factory registration for the constructor's
// produced type. The factory is persistent by default: it runs at most
// once, on first resolution or during InitNow, and its result is then
// promoted into the active store. With AsTransient it runs on every
// resolution instead.
//
// Registration fails with DuplicateRegistrationError when the config's
// uniqueness rule finds any computed key already claimed.
func (p *Pool) Register(constructor any, opts ...RegisterOption) error {
	options := buildRegisterOptions(opts)

	primary, err := p.analyzer.Analyze(constructor)
	if err != nil {
		return RegistrationError{Operation: "register", Cause: err}
	}

	target := primary.Result
	forms := []Form{{info: primary}}
	for _, alt := range options.alternates {
		info, err := p.analyzer.Analyze(alt)
		if err != nil {
			return RegistrationError{Type: target, Operation: "register", Cause: err}
		}
		if info.Result != target {
			return RegistrationError{Type: target, Operation: "register",
				Cause: fmt.Errorf("alternate constructor produces %s", formatType(info.Result))}
		}
		forms = append(forms, Form{info: info})
	}

	keys, err := p.registrationKeys(target, options)
	if err != nil {
		return err
	}

	entry := &registry.Entry{
		Keys:      keys,
		Producer:  producer{target: target, forms: forms},
		Transient: options.lifetime == Transient,
	}
	if err := p.put(entry, false); err != nil {
		return err
	}

	p.declareForms(target, forms)
	return nil
}

// registerType files a pending registration for a type whose
// constructible forms are resolved from the catalog at construction
// time. Used by the generic Register[T] helper.
func (p *Pool) registerType(target reflect.Type, opts ...RegisterOption) error {
	options := buildRegisterOptions(opts)

	keys, err := p.registrationKeys(target, options)
	if err != nil {
		return err
	}

	return p.put(&registry.Entry{
		Keys:      keys,
		Producer:  producer{target: target},
		Transient: options.lifetime == Transient,
	}, false)
}

// RegisterNow files an already-constructed instance directly in the
// active store under the config's computed key set.
func (p *Pool) RegisterNow(instance any, opts ...RegisterOption) error {
	if instance == nil {
		return RegistrationError{Operation: "register-now", Cause: ErrInstanceNil}
	}

	options := buildRegisterOptions(opts)
	target := reflect.TypeOf(instance)

	keys, err := p.registrationKeys(target, options)
	if err != nil {
		return err
	}

	return p.put(&registry.Entry{Keys: keys, Instance: instance}, true)
}

// Declare files constructible forms for their produced types without
// registering anything. Declared forms are used by CreateInstance,
// Register[T] registrations and discovery.
func (p *Pool) Declare(constructors ...any) error {
	for _, constructor := range constructors {
		info, err := p.analyzer.Analyze(constructor)
		if err != nil {
			return RegistrationError{Operation: "declare", Cause: err}
		}
		p.declareForms(info.Result, []Form{{info: info}})
	}
	return nil
}

// declareForms appends forms to the catalog, skipping constructors
// already filed for the target. The analyzer caches per function
// pointer, so re-registering a type after Remove yields the same
// ConstructorInfo and must not enter the catalog twice.
func (p *Pool) declareForms(target reflect.Type, forms []Form) {
	existing := p.forms[target]
	for _, form := range forms {
		filed := false
		for _, e := range existing {
			if e.info == form.info {
				filed = true
				break
			}
		}
		if !filed {
			existing = append(existing, form)
		}
	}
	p.forms[target] = existing
}

// registrationKeys computes a registration's key set: the config's
// expansion of the target type plus any contracts added with As.
func (p *Pool) registrationKeys(target reflect.Type, options *registerOptions) ([]reflect.Type, error) {
	keys := p.config.Keys(target)

	for _, contract := range options.as {
		if !target.AssignableTo(contract) {
			return nil, RegistrationError{Type: target, Operation: "register",
				Cause: fmt.Errorf("%s does not satisfy %s", formatType(target), formatType(contract))}
		}
		duplicate := false
		for _, k := range keys {
			if k == contract {
				duplicate = true
				break
			}
		}
		if !duplicate {
			keys = append(keys, contract)
		}
	}

	return keys, nil
}

// put files an entry in the requested store, translating registry
// claim failures into DuplicateRegistrationError.
func (p *Pool) put(entry *registry.Entry, active bool) error {
	conflict := registry.Conflict(p.config.Conflict)

	var err error
	if active {
		err = p.reg.PutActive(entry, conflict)
	} else {
		err = p.reg.PutPending(entry, conflict)
	}

	var claim *registry.ClaimError
	if errors.As(err, &claim) {
		return DuplicateRegistrationError{Key: claim.Incoming, Claimed: claim.Claimed}
	}
	return err
}

// Resolve returns an instance for the requested type, or (nil, nil)
// when nothing matches: absence of a registration is not an error. A
// matched persistent factory runs once and its result is promoted; a
// matched transient factory runs every call. Construction failure of a
// matched factory is an error.
func (p *Pool) Resolve(t reflect.Type) (any, error) {
	if t == nil {
		return nil, ErrTypeNil
	}

	start := time.Now()
	instance, err := p.resolve(t)
	if err != nil {
		if p.onError != nil {
			p.onError(t, err)
		}
		return nil, err
	}
	if instance != nil && p.onResolved != nil {
		p.onResolved(t, instance, time.Since(start))
	}
	return instance, nil
}

func (p *Pool) resolve(t reflect.Type) (any, error) {
	if e := p.reg.FindActive(t, registry.Match(p.config.MatchActive)); e != nil {
		return e.Instance, nil
	}

	e := p.reg.FindPending(t, registry.Match(p.config.MatchPending))
	if e == nil {
		return nil, nil
	}
	return p.produce(e)
}

// produce runs a pending entry's factory. Persistent entries are
// promoted into the active store under their original key set, so the
// factory never runs again.
func (p *Pool) produce(e *registry.Entry) (any, error) {
	prod := e.Producer.(producer)

	forms := prod.forms
	if forms == nil {
		forms = p.formsFor(prod.target)
		if len(forms) == 0 {
			return nil, NotInstantiableError{Type: prod.target, Reason: "no declared constructors"}
		}
	}

	instance, err := p.construct(prod.target, forms)
	if err != nil {
		return nil, err
	}

	if !e.Transient {
		p.reg.Promote(e, instance)
	}
	return instance, nil
}

// Consume resolves the requested type and removes its registration in
// the same call. A second Consume for the same type returns (nil, nil).
// Consumed resolutions report to the pool's observers like any other.
func (p *Pool) Consume(t reflect.Type) (any, error) {
	if t == nil {
		return nil, ErrTypeNil
	}

	instance, err := p.Resolve(t)
	if err != nil || instance == nil {
		return nil, err
	}

	p.reg.Remove(t, registry.Match(p.config.MatchActive), registry.Match(p.config.MatchPending))
	return instance, nil
}

// Remove deletes the first matching registration from whichever store
// holds it, active instances first. It reports whether anything was
// removed.
func (p *Pool) Remove(t reflect.Type) bool {
	if t == nil {
		return false
	}
	return p.reg.Remove(t, registry.Match(p.config.MatchActive), registry.Match(p.config.MatchPending))
}

// InitNow eagerly promotes every still-pending persistent factory to
// an active instance. Transient factories are untouched. The first
// construction failure aborts the sweep.
func (p *Pool) InitNow() error {
	for _, e := range p.reg.Pending() {
		if e.Transient || e.Promoted() {
			continue
		}
		if _, err := p.produce(e); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of registrations across both stores.
func (p *Pool) Count() int {
	return p.reg.Count()
}

// Contains reports whether any registration, active or pending,
// matches the requested type. No factory is run.
func (p *Pool) Contains(t reflect.Type) bool {
	if t == nil {
		return false
	}
	if p.reg.FindActive(t, registry.Match(p.config.MatchActive)) != nil {
		return true
	}
	return p.reg.FindPending(t, registry.Match(p.config.MatchPending)) != nil
}
