package typepool

import (
	"reflect"
	"time"
)

// Option configures a pool at construction time.
type Option interface {
	applyOption(*Pool)
}

// optionFunc adapts a function to Option.
type optionFunc func(*Pool)

func (f optionFunc) applyOption(p *Pool) {
	f(p)
}

// WithConfig replaces the pool's entire resolution configuration.
func WithConfig(cfg Config) Option {
	return optionFunc(func(p *Pool) {
		p.config = cfg
	})
}

// WithFlexRegistration switches the pool to the flexible registration
// strategy (FlexRegisterConfig), keeping the current SelfRegister
// setting.
func WithFlexRegistration() Option {
	return optionFunc(func(p *Pool) {
		selfRegister := p.config.SelfRegister
		p.config = FlexRegisterConfig()
		p.config.SelfRegister = selfRegister
	})
}

// WithFlexResolution switches the pool to the flexible resolution
// strategy (FlexResolveConfig), keeping the current SelfRegister
// setting.
func WithFlexResolution() Option {
	return optionFunc(func(p *Pool) {
		selfRegister := p.config.SelfRegister
		p.config = FlexResolveConfig()
		p.config.SelfRegister = selfRegister
	})
}

// WithSelfRegistration files the pool itself in the active store, so
// constructors can take *Pool as an injected parameter.
func WithSelfRegistration() Option {
	return optionFunc(func(p *Pool) {
		p.config.SelfRegister = true
	})
}

// WithDiscoverer sets the discovery provider used by Discover and
// DiscoverAll.
func WithDiscoverer(d Discoverer) Option {
	return optionFunc(func(p *Pool) {
		p.discoverer = d
	})
}

// WithResolveObserver registers a callback invoked after every
// successful top-level resolution.
func WithResolveObserver(fn func(t reflect.Type, instance any, d time.Duration)) Option {
	return optionFunc(func(p *Pool) {
		p.onResolved = fn
	})
}

// WithErrorObserver registers a callback invoked when a resolution
// fails.
func WithErrorObserver(fn func(t reflect.Type, err error)) Option {
	return optionFunc(func(p *Pool) {
		p.onError = fn
	})
}

// RegisterOption configures a single registration.
type RegisterOption interface {
	applyRegisterOption(*registerOptions)
}

// registerOptions holds registration configuration.
type registerOptions struct {
	lifetime   Lifetime
	alternates []any
	as         []reflect.Type
}

// registerOptionFunc adapts a function to RegisterOption.
type registerOptionFunc func(*registerOptions)

func (f registerOptionFunc) applyRegisterOption(opts *registerOptions) {
	f(opts)
}

func buildRegisterOptions(opts []RegisterOption) *registerOptions {
	options := &registerOptions{lifetime: Persistent}
	for _, opt := range opts {
		if opt != nil {
			opt.applyRegisterOption(options)
		}
	}
	return options
}

// AsTransient makes the registration's factory run on every
// resolution, never caching its result.
func AsTransient() RegisterOption {
	return registerOptionFunc(func(opts *registerOptions) {
		opts.lifetime = Transient
	})
}

// AsPersistent makes the registration's factory run at most once,
// promoting its result to the active store. This is the default.
func AsPersistent() RegisterOption {
	return registerOptionFunc(func(opts *registerOptions) {
		opts.lifetime = Persistent
	})
}

// WithConstructors adds alternate constructor forms to a registration.
// All forms must produce the same type; the config's enumeration order
// decides which satisfiable form wins.
func WithConstructors(alternates ...any) RegisterOption {
	return registerOptionFunc(func(opts *registerOptions) {
		opts.alternates = append(opts.alternates, alternates...)
	})
}

// As files the registration under additional contract types, given as
// pointers to interfaces:
//
//	pool.Register(NewConsoleLogger, typepool.As(new(Logger)))
//
// The produced type must satisfy every contract.
func As(contracts ...any) RegisterOption {
	return registerOptionFunc(func(opts *registerOptions) {
		for _, contract := range contracts {
			if contract == nil {
				continue
			}
			t := reflect.TypeOf(contract)
			if t.Kind() == reflect.Pointer {
				t = t.Elem()
			}
			opts.as = append(opts.as, t)
		}
	})
}
