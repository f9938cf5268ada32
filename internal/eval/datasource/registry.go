package datasource

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/faisalx96/llm-eval-sub000/internal/common/evalerrors"
)

const (
	defaultCacheTTL      = 5 * time.Minute
	defaultCacheSweep    = 10 * time.Minute
	defaultRetryAttempts = 3
	defaultRetryDelay    = 250 * time.Millisecond
)

// Registry wraps a Resolver so that each distinct dataset name is resolved
// at most once at a time (concurrent callers share one in-flight resolution)
// and resolved handles are cached for a while. Transient resolver failures
// are retried with backoff; not-found and empty-dataset errors are permanent
// and returned immediately.
type Registry struct {
	resolver Resolver
	cache    *cache.Cache
	group    singleflight.Group
	attempts uint
	delay    time.Duration
}

func NewRegistry(resolver Resolver) *Registry {
	return &Registry{
		resolver: resolver,
		cache:    cache.New(defaultCacheTTL, defaultCacheSweep),
		attempts: defaultRetryAttempts,
		delay:    defaultRetryDelay,
	}
}

func (r *Registry) Resolve(ctx context.Context, name string) (*Handle, error) {
	if cached, ok := r.cache.Get(name); ok {
		return cached.(*Handle), nil
	}
	v, err, _ := r.group.Do(name, func() (interface{}, error) {
		// Re-check under the group: a concurrent caller may have populated
		// the cache while we were queued.
		if cached, ok := r.cache.Get(name); ok {
			return cached.(*Handle), nil
		}
		handle, err := r.resolveWithRetry(ctx, name)
		if err != nil {
			return nil, err
		}
		r.cache.Set(name, handle, cache.DefaultExpiration)
		return handle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

func (r *Registry) resolveWithRetry(ctx context.Context, name string) (*Handle, error) {
	var handle *Handle
	err := retry.Do(
		func() error {
			var err error
			handle, err = r.resolver.Resolve(ctx, name)
			return err
		},
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			if evalerrors.IsNotFound(err) {
				return false
			}
			var invalid *evalerrors.ErrInvalidArgument
			return !errors.As(err, &invalid)
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve dataset %q", name)
	}
	return handle, nil
}
