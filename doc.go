// Package typepool provides a type-keyed dependency-resolution pool
// for Go applications: a registry of producers (existing instances,
// run-once persistent factories, and run-always transient factories)
// resolved by type through constructor injection.
//
// # Basic Usage
//
// Create a pool, register producers, and resolve:
//
//	pool := typepool.New()
//	pool.Register(NewDatabase)
//	pool.Register(NewUserService)
//
//	svc, err := typepool.Resolve[*UserService](pool)
//
// Constructors declare dependencies through their parameters:
//
//	func NewUserService(db *Database) *UserService {
//	    return &UserService{db: db}
//	}
//
// The pool resolves each parameter from its own registrations,
// recursively constructing pending factories as needed. Absence is not
// an error: resolving an unregistered type returns the zero value and
// a nil error. Only construction of a matched factory can fail.
//
// # Lifetimes
//
// A factory registration is Persistent by default: it runs at most
// once and its result is promoted into the active store. With
// AsTransient the factory runs on every resolution:
//
//	pool.Register(NewRequestBuffer, typepool.AsTransient())
//
// InitNow eagerly promotes every still-pending persistent factory.
//
// # Resolution Strategies
//
// Matching is a pluggable Config. The default strategy files each
// registration under its exact type and rejects duplicate keys.
// WithFlexRegistration files a registration under its embedded base
// chain and As contracts as well, forbidding any registration whose
// keys relate to a claimed key by assignability; requests resolve
// filed keys only, so an interface a type merely implements stays
// unresolvable until some registration claims it. WithFlexResolution
// keeps exact filing but matches requests by assignability, resolving
// the first registration in insertion order:
//
//	pool := typepool.New(typepool.WithFlexResolution())
//	pool.Register(NewConsoleLogger) // produces *ConsoleLogger
//	logger, err := typepool.Resolve[Logger](pool)
//
// # Parameter Objects
//
// Constructors with many dependencies can take a struct embedding
// typepool.In; fields tagged `optional:"true"` keep their zero value
// when unresolvable:
//
//	type ServiceParams struct {
//	    typepool.In
//
//	    DB      *Database
//	    Metrics *Metrics `optional:"true"`
//	}
//
// # Discovery
//
// A pool configured with a Discoverer can fall back to instantiating a
// candidate concrete type when no registration matches a request; see
// Discover and TypeSet.
//
// # Concurrency
//
// A Pool is not safe for concurrent use and performs no cycle
// detection: a dependency cycle among constructor parameters recurses
// until the call stack overflows. Pools are meant to be built and
// consumed within one execution context, typically process start-up.
package typepool

import "github.com/typepool/typepool/internal/reflection"

// In marks a struct as a constructor parameter object. See the
// package documentation for usage.
type In = reflection.In
