package typepool

import (
	"reflect"
	"sort"
)

// MatchFunc decides whether a stored key satisfies a requested type.
type MatchFunc func(requested, stored reflect.Type) bool

// ConflictFunc decides whether an incoming registration key collides
// with a key already claimed in the pool.
type ConflictFunc func(incoming, claimed reflect.Type) bool

// KeysFunc computes the set of type keys a registration is filed under.
type KeysFunc func(t reflect.Type) []reflect.Type

// OrderFunc orders the constructible forms of a type before the
// instantiator tries them. Forms are attempted in the returned order.
type OrderFunc func(forms []Form) []Form

// Config bundles the resolution policies of a pool. It is a plain
// value: copy it, replace fields, and hand it to New. A pool never
// mutates its config after construction.
//
// How keys are filed (Keys, Conflict) and how requests are matched
// (MatchActive, MatchPending) are deliberately separate policies. The
// flexible registration strategy files a type under many keys and
// rejects any overlapping claim, which keeps resolution deterministic.
// The flexible resolution strategy files only the exact key but
// matches by assignability, which permits overlapping registrations
// and resolves the first match by insertion order.
type Config struct {
	// Keys computes the key set for a registration.
	Keys KeysFunc

	// MatchActive matches a requested type against active-store keys.
	MatchActive MatchFunc

	// MatchPending matches a requested type against pending-store keys.
	MatchPending MatchFunc

	// Conflict is the uniqueness rule checked at registration time.
	Conflict ConflictFunc

	// Order enumerates constructor forms. The default prefers forms
	// with the most parameters and falls back to smaller ones.
	Order OrderFunc

	// SelfRegister files the pool itself in the active store, so a
	// constructor can take *Pool as an injected parameter.
	SelfRegister bool
}

// DefaultConfig returns the exact-match strategy: a registration is
// filed under its own type only, requests match by type identity, and
// a duplicate key is rejected at registration time.
func DefaultConfig() Config {
	return Config{
		Keys:         IdentityKeys,
		MatchActive:  MatchIdentity,
		MatchPending: MatchIdentity,
		Conflict:     ConflictIdentity,
		Order:        MostParametersFirst,
	}
}

// FlexRegisterConfig returns the flexible registration strategy: a
// registration is filed under its own type plus its embedded base
// chain and any As contracts, and a registration whose keys are
// related to a claimed key by assignability is rejected. Requests
// match filed keys by identity, so a contract resolves only when some
// registration actually claimed it; an interface a type merely
// implements is never resolvable, which is what keeps resolution
// deterministic under this strategy. One registration can satisfy many
// contracts; no contract can ever be claimed twice.
func FlexRegisterConfig() Config {
	return Config{
		Keys:         ExpandedKeys,
		MatchActive:  MatchIdentity,
		MatchPending: MatchIdentity,
		Conflict:     ConflictAssignable,
		Order:        MostParametersFirst,
	}
}

// FlexResolveConfig returns the flexible resolution strategy: a
// registration is filed under its own type only and duplicate exact
// keys are rejected, but requests match by assignability. Several
// registrations may expose overlapping contracts; a request resolves
// the first match in insertion order, shadowing later ones.
func FlexResolveConfig() Config {
	return Config{
		Keys:         IdentityKeys,
		MatchActive:  MatchAssignable,
		MatchPending: MatchAssignable,
		Conflict:     ConflictIdentity,
		Order:        MostParametersFirst,
	}
}

// normalized fills any nil policy with its default.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.Keys == nil {
		c.Keys = def.Keys
	}
	if c.MatchActive == nil {
		c.MatchActive = def.MatchActive
	}
	if c.MatchPending == nil {
		c.MatchPending = def.MatchPending
	}
	if c.Conflict == nil {
		c.Conflict = def.Conflict
	}
	if c.Order == nil {
		c.Order = def.Order
	}
	return c
}

// IdentityKeys files a registration under its own type only.
func IdentityKeys(t reflect.Type) []reflect.Type {
	return []reflect.Type{t}
}

// ExpandedKeys files a registration under its own type plus every type
// in its embedded base chain, recursively. Embedding is Go's base
// relation: a struct embedding Base (or *Base, or an interface) is
// additionally filed under those types. The empty interface is never a
// key. Interface satisfaction is not expanded here, since Go
// reflection cannot enumerate every interface a type implements;
// contracts beyond the embedded chain are claimed explicitly with As
// and protected by the assignability conflict policy.
func ExpandedKeys(t reflect.Type) []reflect.Type {
	keys := []reflect.Type{t}
	seen := map[reflect.Type]bool{t: true}
	collectEmbedded(t, seen, &keys)
	return keys
}

func collectEmbedded(t reflect.Type, seen map[reflect.Type]bool, keys *[]reflect.Type) {
	st := t
	if st.Kind() == reflect.Pointer {
		st = st.Elem()
	}
	if st.Kind() != reflect.Struct {
		return
	}

	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		if !field.Anonymous {
			continue
		}

		base := field.Type
		if base.Kind() == reflect.Interface && base.NumMethod() == 0 {
			continue
		}
		if seen[base] {
			continue
		}
		seen[base] = true
		*keys = append(*keys, base)
		collectEmbedded(base, seen, keys)
	}
}

// MatchIdentity matches a request against a stored key by identity.
func MatchIdentity(requested, stored reflect.Type) bool {
	return requested == stored
}

// MatchAssignable matches when the stored key is assignable to the
// requested type or the requested type is assignable to the stored
// key. The first direction covers a concrete registration satisfying a
// requested interface; the second covers a request for a concrete type
// against a registration filed under one of its contracts.
func MatchAssignable(requested, stored reflect.Type) bool {
	return stored.AssignableTo(requested) || requested.AssignableTo(stored)
}

// ConflictIdentity rejects an incoming key identical to a claimed one.
func ConflictIdentity(incoming, claimed reflect.Type) bool {
	return incoming == claimed
}

// ConflictAssignable rejects an incoming key related to any claimed
// key by assignability in either direction. Two registrations sharing
// a base or interface anywhere in their graphs are mutually exclusive.
func ConflictAssignable(incoming, claimed reflect.Type) bool {
	return MatchAssignable(incoming, claimed)
}

// MostParametersFirst orders constructor forms strictly descending by
// declared parameter count, so the richest satisfiable form wins.
// Forms with equal counts keep their declaration order.
func MostParametersFirst(forms []Form) []Form {
	ordered := make([]Form, len(forms))
	copy(ordered, forms)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].NumParams() > ordered[j].NumParams()
	})
	return ordered
}
