package typepool

import (
	"reflect"

	"github.com/typepool/typepool/internal/registry"
)

// Discoverer produces candidate concrete types assignable to a target
// type. The sequence is finite and may be recomputed on every call. Go
// has no runtime enumeration of all loaded types, so discoverers work
// over a caller-supplied universe; see TypeSet.
type Discoverer interface {
	Discover(target reflect.Type) []reflect.Type
}

// TypeSet is a Discoverer over an explicit universe of candidate
// types. Discover filters the universe down to types assignable to
// the target, preserving the order candidates were added.
type TypeSet struct {
	types []reflect.Type
}

// NewTypeSet builds a TypeSet from candidates. A candidate may be a
// reflect.Type, a constructor function (its first return type joins
// the universe), or any other value (its dynamic type joins the
// universe). Constructor functions only contribute their produced
// type here; declare them on the pool with Declare so discovery can
// construct through them with injection.
func NewTypeSet(candidates ...any) *TypeSet {
	s := &TypeSet{}
	return s.Add(candidates...)
}

// Add appends candidates to the universe and returns the set for
// chaining.
func (s *TypeSet) Add(candidates ...any) *TypeSet {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if t, ok := c.(reflect.Type); ok {
			s.types = append(s.types, t)
			continue
		}

		t := reflect.TypeOf(c)
		if t.Kind() == reflect.Func && t.NumOut() > 0 {
			s.types = append(s.types, t.Out(0))
			continue
		}
		s.types = append(s.types, t)
	}
	return s
}

// Discover implements Discoverer.
func (s *TypeSet) Discover(target reflect.Type) []reflect.Type {
	var out []reflect.Type
	for _, t := range s.types {
		if t.AssignableTo(target) {
			out = append(out, t)
		}
	}
	return out
}

// Discover resolves the target type, falling back to the pool's
// discovery provider when no registration matches: candidate types
// assignable to the target are tried in order, skipping any the pool
// can already resolve, and the first successful instantiation is
// registered as a persistent instance, filed under the target type as
// well so repeat calls resolve it directly, then returned. Returns
// (nil, nil) when no candidate works or no discoverer is configured.
func (p *Pool) Discover(target reflect.Type) (any, error) {
	if target == nil {
		return nil, ErrTypeNil
	}

	if instance, err := p.Resolve(target); err != nil || instance != nil {
		return instance, err
	}
	if p.discoverer == nil {
		return nil, nil
	}

	for _, candidate := range p.discoverer.Discover(target) {
		if candidate == nil || !candidate.AssignableTo(target) {
			continue
		}
		if p.Contains(candidate) {
			continue
		}

		instance, err := p.CreateInstance(candidate)
		if err != nil {
			continue
		}
		if err := p.registerDiscovered(instance, target); err != nil {
			return nil, err
		}
		return instance, nil
	}

	return nil, nil
}

// registerDiscovered files a discovered instance in the active store
// under its computed key set plus the discovery target, so the next
// request for the target resolves it without another discovery sweep.
func (p *Pool) registerDiscovered(instance any, target reflect.Type) error {
	keys := p.config.Keys(reflect.TypeOf(instance))

	filed := false
	for _, k := range keys {
		if k == target {
			filed = true
			break
		}
	}
	if !filed {
		keys = append(keys, target)
	}

	return p.put(&registry.Entry{Keys: keys, Instance: instance}, true)
}

// DiscoverAll is the sweep variant of Discover: every candidate that
// instantiates successfully is registered as a persistent instance
// under its own key set only, since many instances cannot share the
// target key. An existing resolution for the target, if any, leads
// the result.
func (p *Pool) DiscoverAll(target reflect.Type) ([]any, error) {
	if target == nil {
		return nil, ErrTypeNil
	}

	var out []any
	instance, err := p.Resolve(target)
	if err != nil {
		return nil, err
	}
	if instance != nil {
		out = append(out, instance)
	}
	if p.discoverer == nil {
		return out, nil
	}

	for _, candidate := range p.discoverer.Discover(target) {
		if candidate == nil || !candidate.AssignableTo(target) {
			continue
		}
		if p.Contains(candidate) {
			continue
		}

		instance, err := p.CreateInstance(candidate)
		if err != nil {
			continue
		}
		if err := p.RegisterNow(instance); err != nil {
			return nil, err
		}
		out = append(out, instance)
	}

	return out, nil
}
