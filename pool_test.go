package typepool_test

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typepool/typepool"
)

// Test types for pool tests
type (
	poolTestDatabase struct {
		DSN string
	}

	poolTestService struct {
		DB *poolTestDatabase
	}

	poolTestHolder struct {
		Pool *typepool.Pool
	}
)

func newPoolTestDatabase() *poolTestDatabase {
	return &poolTestDatabase{DSN: "memory"}
}

func newPoolTestService(db *poolTestDatabase) *poolTestService {
	return &poolTestService{DB: db}
}

func newPoolTestHolder(p *typepool.Pool) *poolTestHolder {
	return &poolTestHolder{Pool: p}
}

func TestPool_RegisterNow(t *testing.T) {
	t.Run("resolves the same instance on every call", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		db := &poolTestDatabase{DSN: "primary"}
		require.NoError(t, pool.RegisterNow(db))

		first, err := typepool.Resolve[*poolTestDatabase](pool)
		require.NoError(t, err)
		second, err := typepool.Resolve[*poolTestDatabase](pool)
		require.NoError(t, err)

		assert.Same(t, db, first)
		assert.Same(t, db, second)
	})

	t.Run("rejects a duplicate key", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.RegisterNow(&poolTestDatabase{}))

		err := pool.RegisterNow(&poolTestDatabase{})
		require.Error(t, err)

		var dup typepool.DuplicateRegistrationError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, reflect.TypeOf(&poolTestDatabase{}), dup.Claimed)
	})

	t.Run("rejects a nil instance", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		err := pool.RegisterNow(nil)
		assert.ErrorIs(t, err, typepool.ErrInstanceNil)
	})
}

func TestPool_Register(t *testing.T) {
	t.Run("persistent factory runs exactly once", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		runs := 0
		require.NoError(t, pool.Register(func() *poolTestDatabase {
			runs++
			return newPoolTestDatabase()
		}))

		first, err := typepool.Resolve[*poolTestDatabase](pool)
		require.NoError(t, err)
		second, err := typepool.Resolve[*poolTestDatabase](pool)
		require.NoError(t, err)

		assert.Equal(t, 1, runs)
		assert.Same(t, first, second)
	})

	t.Run("transient factory runs every resolution", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		runs := 0
		require.NoError(t, pool.Register(func() *poolTestDatabase {
			runs++
			return newPoolTestDatabase()
		}, typepool.AsTransient()))

		first, err := typepool.Resolve[*poolTestDatabase](pool)
		require.NoError(t, err)
		second, err := typepool.Resolve[*poolTestDatabase](pool)
		require.NoError(t, err)

		assert.Equal(t, 2, runs)
		assert.NotSame(t, first, second)
	})

	t.Run("constructor parameters resolve recursively", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.Register(newPoolTestDatabase))
		require.NoError(t, pool.Register(newPoolTestService))

		svc, err := typepool.Resolve[*poolTestService](pool)
		require.NoError(t, err)
		require.NotNil(t, svc)
		assert.NotNil(t, svc.DB)

		// The database constructed for the service was promoted too.
		db, err := typepool.Resolve[*poolTestDatabase](pool)
		require.NoError(t, err)
		assert.Same(t, svc.DB, db)
	})

	t.Run("rejects a duplicate key", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.Register(newPoolTestDatabase))

		err := pool.Register(newPoolTestDatabase)
		var dup typepool.DuplicateRegistrationError
		assert.ErrorAs(t, err, &dup)
	})

	t.Run("rejects a non-function constructor", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		err := pool.Register(&poolTestDatabase{})

		var reg typepool.RegistrationError
		require.ErrorAs(t, err, &reg)
		assert.Equal(t, "register", reg.Operation)
	})

	t.Run("rejects a nil constructor", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		assert.Error(t, pool.Register(nil))
	})
}

func TestPool_Resolve(t *testing.T) {
	t.Run("absence is not an error", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()

		svc, err := typepool.Resolve[*poolTestService](pool)
		require.NoError(t, err)
		assert.Nil(t, svc)
	})

	t.Run("nil type is rejected", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		_, err := pool.Resolve(nil)
		assert.ErrorIs(t, err, typepool.ErrTypeNil)
	})

	t.Run("construction failure of a matched factory is an error", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.Register(newPoolTestService)) // *poolTestDatabase never registered

		_, err := typepool.Resolve[*poolTestService](pool)
		require.Error(t, err)

		var missing typepool.MissingDependencyError
		require.ErrorAs(t, err, &missing)
		require.Len(t, missing.Attempts, 1)
		assert.Equal(t, []reflect.Type{reflect.TypeOf(&poolTestDatabase{})}, missing.Attempts[0])
	})
}

func TestPool_Consume(t *testing.T) {
	t.Run("returns a value then absence", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.RegisterNow(&poolTestDatabase{}))
		before := pool.Count()

		first, err := typepool.Consume[*poolTestDatabase](pool)
		require.NoError(t, err)
		require.NotNil(t, first)
		assert.Equal(t, before-1, pool.Count())

		second, err := typepool.Consume[*poolTestDatabase](pool)
		require.NoError(t, err)
		assert.Nil(t, second)
	})

	t.Run("consumes a pending registration", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.Register(newPoolTestDatabase))

		db, err := typepool.Consume[*poolTestDatabase](pool)
		require.NoError(t, err)
		require.NotNil(t, db)

		assert.False(t, typepool.Contains[*poolTestDatabase](pool))
		assert.Equal(t, 0, pool.Count())
	})
}

func TestPool_Remove(t *testing.T) {
	t.Run("removes an active instance", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.RegisterNow(&poolTestDatabase{}))

		assert.True(t, typepool.Remove[*poolTestDatabase](pool))
		assert.False(t, typepool.Remove[*poolTestDatabase](pool))
		assert.False(t, typepool.Contains[*poolTestDatabase](pool))
	})

	t.Run("removes a pending factory", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.Register(newPoolTestDatabase))

		assert.True(t, typepool.Remove[*poolTestDatabase](pool))

		db, err := typepool.Resolve[*poolTestDatabase](pool)
		require.NoError(t, err)
		assert.Nil(t, db)
	})

	t.Run("re-registration does not duplicate constructor forms", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.Register(newPoolTestService))
		require.True(t, typepool.Remove[*poolTestService](pool))
		require.NoError(t, pool.Register(newPoolTestService))

		_, err := typepool.Resolve[*poolTestService](pool)

		var missing typepool.MissingDependencyError
		require.ErrorAs(t, err, &missing)
		assert.Len(t, missing.Attempts, 1)
	})

	t.Run("removed dependency fails later construction", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.RegisterNow(&poolTestDatabase{}))
		require.True(t, typepool.Remove[*poolTestDatabase](pool))

		require.NoError(t, pool.Register(newPoolTestService))
		_, err := typepool.Resolve[*poolTestService](pool)

		var missing typepool.MissingDependencyError
		require.ErrorAs(t, err, &missing)
		require.Len(t, missing.Attempts, 1)
		assert.Equal(t, []reflect.Type{reflect.TypeOf(&poolTestDatabase{})}, missing.Attempts[0])
	})
}

func TestPool_InitNow(t *testing.T) {
	t.Run("promotes every pending persistent factory", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		dbRuns, svcRuns, transientRuns := 0, 0, 0

		require.NoError(t, pool.Register(func() *poolTestDatabase {
			dbRuns++
			return newPoolTestDatabase()
		}))
		require.NoError(t, pool.Register(func(db *poolTestDatabase) *poolTestService {
			svcRuns++
			return newPoolTestService(db)
		}))
		require.NoError(t, pool.Register(func() *poolTestHolder {
			transientRuns++
			return &poolTestHolder{}
		}, typepool.AsTransient()))

		require.NoError(t, pool.InitNow())

		assert.Equal(t, 1, dbRuns)
		assert.Equal(t, 1, svcRuns)
		assert.Equal(t, 0, transientRuns, "transient factories are untouched")

		// A second sweep has nothing left to do.
		require.NoError(t, pool.InitNow())
		assert.Equal(t, 1, dbRuns)
		assert.Equal(t, 1, svcRuns)
	})

	t.Run("construction failure aborts the sweep", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		require.NoError(t, pool.Register(newPoolTestService)) // unsatisfiable

		err := pool.InitNow()
		var missing typepool.MissingDependencyError
		assert.ErrorAs(t, err, &missing)
	})
}

func TestPool_SelfRegistration(t *testing.T) {
	t.Run("pool is injectable into constructors", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New(typepool.WithSelfRegistration())
		require.NoError(t, pool.Register(newPoolTestHolder))

		holder, err := typepool.Resolve[*poolTestHolder](pool)
		require.NoError(t, err)
		require.NotNil(t, holder)
		assert.Same(t, pool, holder.Pool)
	})

	t.Run("without self-registration the pool is not resolvable", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		got, err := typepool.Resolve[*typepool.Pool](pool)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestPool_Observers(t *testing.T) {
	t.Run("resolve observer sees successful resolutions", func(t *testing.T) {
		t.Parallel()

		var seen []reflect.Type
		pool := typepool.New(typepool.WithResolveObserver(func(typ reflect.Type, instance any, d time.Duration) {
			seen = append(seen, typ)
		}))
		require.NoError(t, pool.Register(newPoolTestDatabase))

		_, err := typepool.Resolve[*poolTestDatabase](pool)
		require.NoError(t, err)
		assert.Equal(t, []reflect.Type{reflect.TypeOf(&poolTestDatabase{})}, seen)
	})

	t.Run("resolve observer sees consumed resolutions", func(t *testing.T) {
		t.Parallel()

		var seen []reflect.Type
		pool := typepool.New(typepool.WithResolveObserver(func(typ reflect.Type, instance any, d time.Duration) {
			seen = append(seen, typ)
		}))
		require.NoError(t, pool.RegisterNow(&poolTestDatabase{}))

		_, err := typepool.Consume[*poolTestDatabase](pool)
		require.NoError(t, err)
		assert.Equal(t, []reflect.Type{reflect.TypeOf(&poolTestDatabase{})}, seen)
	})

	t.Run("error observer sees failures", func(t *testing.T) {
		t.Parallel()

		var seen error
		pool := typepool.New(typepool.WithErrorObserver(func(typ reflect.Type, err error) {
			seen = err
		}))
		require.NoError(t, pool.Register(newPoolTestService))

		_, err := typepool.Resolve[*poolTestService](pool)
		require.Error(t, err)
		assert.Equal(t, err, seen)
	})
}

func TestPool_ID(t *testing.T) {
	t.Parallel()

	first := typepool.New()
	second := typepool.New()

	assert.NotEmpty(t, first.ID())
	assert.NotEqual(t, first.ID(), second.ID())
}

func TestPool_Count(t *testing.T) {
	t.Parallel()

	pool := typepool.New()
	assert.Equal(t, 0, pool.Count())

	require.NoError(t, pool.RegisterNow(&poolTestDatabase{}))
	require.NoError(t, pool.Register(newPoolTestService))
	assert.Equal(t, 2, pool.Count())

	// Promotion moves a registration between stores without changing the total.
	_, err := typepool.Resolve[*poolTestService](pool)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Count())
}

func TestPool_Errors(t *testing.T) {
	t.Run("registration error unwraps its cause", func(t *testing.T) {
		t.Parallel()

		pool := typepool.New()
		err := pool.RegisterNow(nil)
		assert.True(t, errors.Is(err, typepool.ErrInstanceNil))
	})
}
