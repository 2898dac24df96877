package postgres

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/schoolhub/school-admin-hub/internal/domain/shared"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
	"github.com/schoolhub/school-admin-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// STORE RESOLVER
// ══════════════════════════════════════════════════════════════════════════════

// DialFunc creates a new handle to a tenant's store. The factory is injected
// so tests run against fakes and production wires NewTenantDialer. Errors
// should be classified with retry.Retryable / retry.Permanent; unclassified
// errors are not retried.
type DialFunc func(ctx context.Context, t *tenant.Tenant) (tenant.Store, error)

// ResolverOptions configures the resolver's dial retry behavior.
type ResolverOptions struct {
	// DialAttempts bounds how often a transient dial failure is retried
	// before ErrConnection surfaces.
	DialAttempts int

	// DialBaseDelay and DialMaxDelay shape the backoff between attempts.
	DialBaseDelay time.Duration
	DialMaxDelay  time.Duration

	Log *logger.Logger
}

// DefaultResolverOptions returns the resolver defaults.
func DefaultResolverOptions() ResolverOptions {
	return ResolverOptions{
		DialAttempts:  3,
		DialBaseDelay: 200 * time.Millisecond,
		DialMaxDelay:  2 * time.Second,
	}
}

// Resolver maps school codes to cached tenant store handles. Steady-state
// reads take a read lock only; first resolution of a code goes through a
// per-key single flight, so N concurrent resolutions of an uncached code
// create exactly one handle. Resolution for one tenant never blocks
// resolution for another.
type Resolver struct {
	registry tenant.Registry
	dial     DialFunc
	retrier  *retry.Retrier
	log      *logger.Logger

	mu      sync.RWMutex
	handles map[string]tenant.Store
	group   singleflight.Group
	closed  bool
}

// NewResolver creates a resolver over the given registry and dial factory.
func NewResolver(registry tenant.Registry, dial DialFunc, opts ResolverOptions) *Resolver {
	if opts.DialAttempts <= 0 {
		opts.DialAttempts = DefaultResolverOptions().DialAttempts
	}
	if opts.DialBaseDelay <= 0 {
		opts.DialBaseDelay = DefaultResolverOptions().DialBaseDelay
	}
	if opts.DialMaxDelay <= 0 {
		opts.DialMaxDelay = DefaultResolverOptions().DialMaxDelay
	}
	log := opts.Log
	if log == nil {
		log = logger.Default()
	}

	return &Resolver{
		registry: registry,
		dial:     dial,
		retrier:  retry.StoreDialRetrier(opts.DialAttempts, opts.DialBaseDelay, opts.DialMaxDelay),
		log:      log.With(logger.Component("resolver")),
		handles:  make(map[string]tenant.Store),
	}
}

// Resolve returns the store handle for a school code, creating it on first
// use. Cache hits return immediately without acquiring new resources.
func (r *Resolver) Resolve(ctx context.Context, code string) (tenant.Store, error) {
	key := tenant.NormalizeCode(code)
	if key == "" {
		return nil, shared.NewDomainError("tenant", "Resolve", shared.ErrEmptyValue, "school code is empty")
	}

	r.mu.RLock()
	h, ok := r.handles[key]
	r.mu.RUnlock()
	if ok {
		return h, nil
	}

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		// A loser of an earlier flight may arrive after the winner has
		// populated the cache.
		r.mu.RLock()
		h, ok := r.handles[key]
		r.mu.RUnlock()
		if ok {
			return h, nil
		}

		t, err := r.registry.GetByCode(ctx, key)
		if err != nil {
			if shared.IsTenantNotFound(err) {
				return nil, err
			}
			return nil, shared.WrapError("tenant", "Resolve", shared.ErrConnection, "registry lookup failed", err)
		}

		start := time.Now()
		handle, err := r.dialWithRetry(ctx, t)
		if err != nil {
			r.log.Error("tenant store dial failed",
				logger.SchoolCode(key),
				logger.Err(err),
			)
			return nil, shared.WrapError("tenant", "Resolve", shared.ErrConnection, "tenant store unreachable", err)
		}

		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			handle.Close()
			return nil, shared.NewDomainError("tenant", "Resolve", shared.ErrConnection, "resolver is closed")
		}
		r.handles[key] = handle
		r.mu.Unlock()

		r.log.Info("tenant store handle created",
			logger.SchoolCode(key),
			logger.TenantID(t.ID.String()),
			logger.Latency(time.Since(start)),
		)
		return handle, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(tenant.Store), nil
}

func (r *Resolver) dialWithRetry(ctx context.Context, t *tenant.Tenant) (tenant.Store, error) {
	var handle tenant.Store
	err := r.retrier.Do(ctx, func(ctx context.Context) error {
		var dialErr error
		handle, dialErr = r.dial(ctx, t)
		return dialErr
	})
	if err != nil {
		return nil, err
	}
	return handle, nil
}

// Invalidate drops the cached handle for a code, for administrative recovery
// after a tenant store is reprovisioned. The old handle is closed in the
// background; operations already running on it complete, the next Resolve
// dials fresh.
func (r *Resolver) Invalidate(code string) {
	key := tenant.NormalizeCode(code)

	r.mu.Lock()
	h, ok := r.handles[key]
	if ok {
		delete(r.handles, key)
	}
	r.mu.Unlock()

	if ok {
		r.log.Info("tenant store handle invalidated", logger.SchoolCode(key))
		go h.Close()
	}
}

// Close shuts down every cached handle. Used on process shutdown.
func (r *Resolver) Close() {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]tenant.Store)
	r.closed = true
	r.mu.Unlock()

	for _, h := range handles {
		h.Close()
	}
}

// CachedHandles returns the number of open handles, for health reporting.
func (r *Resolver) CachedHandles() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}
