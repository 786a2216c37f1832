// Package cachekey implements the priority-ordered cache key strategy
// registry and the five cache policies that drive read/write/bypass
// decisions around it: a mutex-guarded map rebuilt into a
// priority-sorted slice on every registration.
package cachekey

import (
	"sort"
	"sync"
)

// Context is the subset of pipeline execution state a Strategy may
// consult while resolving a key (environment-sourced version tags,
// in-flight step name, etc). It is intentionally a narrow read-only
// view, not the full orchestrator context.
type Context struct {
	StepName   string
	VersionTag string
}

// Strategy computes a deterministic cache key for items of a given
// target type. Resolve returns ("", false) when it cannot produce a
// complete key; a strategy missing its fingerprint must never return
// a partial key.
type Strategy interface {
	SupportsTarget(targetType string) bool
	Priority() int
	Resolve(item any, ctx Context) (string, bool)
}

// Registry holds an ordered set of strategies, resolved in descending
// priority order.
type Registry struct {
	mu      sync.Mutex
	byName  map[string]Strategy
	ordered []Strategy
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Strategy)}
}

// Register adds a named strategy and rebuilds the priority-sorted
// views. Registering the same name again replaces the prior strategy.
func (r *Registry) Register(name string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[name] = s
	r.rebuildLocked()
}

func (r *Registry) rebuildLocked() {
	ordered := make([]Strategy, 0, len(r.byName))
	for _, s := range r.byName {
		ordered = append(ordered, s)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() > ordered[j].Priority()
	})
	r.ordered = ordered
}

// Resolve implements the C1 resolution contract: iterate strategies in
// descending priority; the first strategy that both supports
// targetType and returns a non-empty key wins. If no targeted strategy
// matches, a second pass tries every strategy regardless of
// SupportsTarget, as a non-targeted fallback.
func (r *Registry) Resolve(targetType string, item any, ctx Context) (string, bool) {
	r.mu.Lock()
	ordered := make([]Strategy, len(r.ordered))
	copy(ordered, r.ordered)
	r.mu.Unlock()

	for _, s := range ordered {
		if !s.SupportsTarget(targetType) {
			continue
		}
		if key, ok := s.Resolve(item, ctx); ok && key != "" {
			return key, true
		}
	}
	for _, s := range ordered {
		if key, ok := s.Resolve(item, ctx); ok && key != "" {
			return key, true
		}
	}
	return "", false
}
