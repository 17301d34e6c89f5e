// Package registry implements the two keyed stores behind a pool:
// active entries holding already-constructed instances, and pending
// entries holding producers that have not run yet.
//
// The registry itself has no matching policy. Lookups and uniqueness
// checks are parameterized with Match and Conflict functions so the
// pool's configuration decides how a requested type is matched against
// filed keys and when two key sets collide.
package registry

import (
	"fmt"
	"reflect"
)

// Match reports whether a stored key satisfies the requested type.
type Match func(requested, stored reflect.Type) bool

// Conflict reports whether an incoming key collides with a key that is
// already claimed by another entry.
type Conflict func(incoming, claimed reflect.Type) bool

// Identity is the exact-equality Match.
func Identity(requested, stored reflect.Type) bool {
	return requested == stored
}

// Entry associates a key set with exactly one producer. Active entries
// carry the constructed Instance; pending entries carry an opaque
// Producer payload owned by the pool (the analyzed constructor forms)
// plus the Transient flag.
type Entry struct {
	Keys      []reflect.Type
	Instance  any
	Producer  any
	Transient bool

	promoted bool
}

// ClaimError is returned by Put when a key is already claimed.
type ClaimError struct {
	Incoming reflect.Type
	Claimed  reflect.Type
}

func (e *ClaimError) Error() string {
	if e.Incoming == e.Claimed {
		return fmt.Sprintf("key %v already claimed", e.Claimed)
	}
	return fmt.Sprintf("key %v overlaps claimed key %v", e.Incoming, e.Claimed)
}

// Registry holds the active and pending stores. Entries keep their
// insertion order; flexible match policies rely on that order for
// deterministic first-match resolution.
type Registry struct {
	active  []*Entry
	pending []*Entry
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// PutActive files an already-constructed instance. It fails with a
// ClaimError if the conflict policy finds any of the entry's keys
// already claimed in either store.
func (r *Registry) PutActive(e *Entry, conflict Conflict) error {
	if err := r.checkClaims(e.Keys, conflict); err != nil {
		return err
	}
	r.active = append(r.active, e)
	return nil
}

// PutPending files a not-yet-run producer, subject to the same
// uniqueness check as PutActive.
func (r *Registry) PutPending(e *Entry, conflict Conflict) error {
	if err := r.checkClaims(e.Keys, conflict); err != nil {
		return err
	}
	r.pending = append(r.pending, e)
	return nil
}

func (r *Registry) checkClaims(keys []reflect.Type, conflict Conflict) error {
	for _, stored := range [2][]*Entry{r.active, r.pending} {
		for _, existing := range stored {
			for _, claimed := range existing.Keys {
				for _, incoming := range keys {
					if conflict(incoming, claimed) {
						return &ClaimError{Incoming: incoming, Claimed: claimed}
					}
				}
			}
		}
	}
	return nil
}

// FindActive returns the first active entry, in insertion order, with a
// key matching the requested type. Returns nil when nothing matches.
func (r *Registry) FindActive(requested reflect.Type, m Match) *Entry {
	return find(r.active, requested, m)
}

// FindPending returns the first pending entry with a matching key.
func (r *Registry) FindPending(requested reflect.Type, m Match) *Entry {
	return find(r.pending, requested, m)
}

func find(entries []*Entry, requested reflect.Type, m Match) *Entry {
	for _, e := range entries {
		for _, k := range e.Keys {
			if m(requested, k) {
				return e
			}
		}
	}
	return nil
}

// Remove deletes the first matching entry from whichever store holds
// it, checking the active store first. Each store is searched with its
// own match policy. It reports whether an entry was removed.
func (r *Registry) Remove(requested reflect.Type, active, pending Match) bool {
	if removed, rest := remove(r.active, requested, active); removed {
		r.active = rest
		return true
	}
	if removed, rest := remove(r.pending, requested, pending); removed {
		r.pending = rest
		return true
	}
	return false
}

func remove(entries []*Entry, requested reflect.Type, m Match) (bool, []*Entry) {
	for i, e := range entries {
		for _, k := range e.Keys {
			if m(requested, k) {
				return true, append(entries[:i:i], entries[i+1:]...)
			}
		}
	}
	return false, entries
}

// Promote moves a pending entry's result into the active store under
// the same key set the entry was filed with, and drops the pending
// entry. Promoting an entry twice is a no-op: the producer never runs
// again once its result is active.
func (r *Registry) Promote(e *Entry, instance any) {
	if e.promoted {
		return
	}
	e.promoted = true

	for i, p := range r.pending {
		if p == e {
			r.pending = append(r.pending[:i:i], r.pending[i+1:]...)
			break
		}
	}

	r.active = append(r.active, &Entry{Keys: e.Keys, Instance: instance})
}

// Promoted reports whether the entry has already been promoted.
func (e *Entry) Promoted() bool {
	return e.promoted
}

// Pending returns a snapshot of the pending store in insertion order.
func (r *Registry) Pending() []*Entry {
	out := make([]*Entry, len(r.pending))
	copy(out, r.pending)
	return out
}

// Active returns a snapshot of the active store in insertion order.
func (r *Registry) Active() []*Entry {
	out := make([]*Entry, len(r.active))
	copy(out, r.active)
	return out
}

// Count returns the total number of entries across both stores.
func (r *Registry) Count() int {
	return len(r.active) + len(r.pending)
}
