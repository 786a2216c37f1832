package cachekey

import (
	"errors"

	"github.com/pipelineframework/corepipe/internal/errs"
)

// Policy is one of the five cache read/write disciplines a step can
// declare against its resolved cache key.
type Policy string

const (
	PolicyRequire      Policy = "require"
	PolicyPrefer       Policy = "prefer"
	PolicyBypass       Policy = "bypass"
	PolicyCacheOnly    Policy = "cache-only"
	PolicyWriteThrough Policy = "write-through"
)

// Store is the minimal cache backend a Policy operates against.
type Store interface {
	Get(key string) (value any, ok bool)
	Put(key string, value any)
}

// Compute produces a fresh value when the cache must be (re)populated.
type Compute func() (any, error)

// Apply executes policy p against store for key, invoking compute only
// when the policy's semantics require it. It returns the resolved
// value, or a PermanentError when PolicyRequire misses.
func Apply(p Policy, store Store, key string, compute Compute) (any, error) {
	switch p {
	case PolicyRequire:
		if value, ok := store.Get(key); ok {
			return value, nil
		}
		return nil, errs.NewPermanent(errors.New("require policy missed a cold cache entry for " + key))

	case PolicyPrefer:
		if value, ok := store.Get(key); ok {
			return value, nil
		}
		value, err := compute()
		if err != nil {
			return nil, err
		}
		store.Put(key, value)
		return value, nil

	case PolicyBypass:
		return compute()

	case PolicyCacheOnly:
		value, err := compute()
		if err != nil {
			return nil, err
		}
		store.Put(key, value)
		return value, nil

	case PolicyWriteThrough:
		if value, ok := store.Get(key); ok {
			return value, nil
		}
		value, err := compute()
		if err != nil {
			return nil, err
		}
		store.Put(key, value)
		return value, nil

	default:
		return nil, errs.NewInvalidConfiguration("", "unrecognized cache policy: "+string(p))
	}
}
