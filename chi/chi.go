// Package chi provides typepool integration for the Chi router.
//
// The middleware attaches a pool to each request's context, and Handle
// wraps controller methods so their receiver is resolved from that
// pool per request.
//
// Example usage:
//
//	pool := typepool.New()
//	pool.Register(NewUserController)
//
//	r := chi.NewRouter()
//	r.Use(typepoolchi.Middleware(pool))
//	r.Get("/users/{id}", typepoolchi.Handle((*UserController).GetByID))
package chi

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/typepool/typepool"
)

type contextKey struct{}

// Config holds the configuration for the pool middleware.
type Config struct {
	// ErrorHandler is called when a handler's controller cannot be
	// resolved. If nil, a default handler returning 500 Internal
	// Server Error is used and the error is logged using slog.
	ErrorHandler func(http.ResponseWriter, *http.Request, error)
}

// Option configures the pool middleware.
type Option func(*Config)

// WithErrorHandler sets the handler for controller resolution failures.
func WithErrorHandler(h func(http.ResponseWriter, *http.Request, error)) Option {
	return func(c *Config) {
		c.ErrorHandler = h
	}
}

func defaultConfig() *Config {
	return &Config{
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("failed to resolve controller", "path", r.URL.Path, "error", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		},
	}
}

// Middleware attaches the pool to each request's context. Handlers
// wrapped with Handle, and anything else calling FromContext, resolve
// their dependencies from it.
func Middleware(pool *typepool.Pool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), contextKey{}, pool)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FromContext returns the pool attached to the context, or nil when
// the middleware is not installed.
func FromContext(ctx context.Context) *typepool.Pool {
	pool, _ := ctx.Value(contextKey{}).(*typepool.Pool)
	return pool
}

// Handle wraps a controller method as an http.HandlerFunc. The
// controller is resolved from the request's pool on every call, so a
// transient registration gives each request a fresh controller while a
// persistent one is shared.
func Handle[C any](method func(C, http.ResponseWriter, *http.Request), opts ...Option) http.HandlerFunc {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		pool := FromContext(r.Context())
		if pool == nil {
			cfg.ErrorHandler(w, r, typepool.ErrPoolNil)
			return
		}

		if !typepool.Contains[C](pool) {
			cfg.ErrorHandler(w, r, typepool.NotInstantiableError{
				Type:   reflect.TypeOf((*C)(nil)).Elem(),
				Reason: "not registered",
			})
			return
		}

		controller, err := typepool.Resolve[C](pool)
		if err != nil {
			cfg.ErrorHandler(w, r, err)
			return
		}

		method(controller, w, r)
	}
}
