// Package idempotency implements the bounded idempotency guard and the
// parking lot for exhausted failures. The guard is a classic LRU:
// container/list for access order plus a map for O(1) lookup.
package idempotency

import (
	"container/list"
	"sync"

	"github.com/pipelineframework/corepipe/internal/errs"
)

// Guard is a bounded LRU set of seen keys.
type Guard struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	index    map[string]*list.Element
}

// NewGuard creates a Guard with the given maxKeys capacity. maxKeys
// must be greater than zero.
func NewGuard(maxKeys int) *Guard {
	if maxKeys <= 0 {
		panic("idempotency: maxKeys must be > 0")
	}
	return &Guard{
		capacity: maxKeys,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
	}
}

// MarkIfNew records key as seen and returns true if it had not been
// seen before (or had aged out of the LRU window). Blank keys are
// rejected with InvalidInputError.
func (g *Guard) MarkIfNew(key string) (bool, error) {
	if key == "" {
		return false, errs.NewInvalidInput("key", "key must not be blank")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if elem, ok := g.index[key]; ok {
		g.ll.MoveToFront(elem)
		return false, nil
	}

	elem := g.ll.PushFront(key)
	g.index[key] = elem

	if g.ll.Len() > g.capacity {
		oldest := g.ll.Back()
		if oldest != nil {
			g.ll.Remove(oldest)
			delete(g.index, oldest.Value.(string))
		}
	}

	return true, nil
}

// Contains reports whether key is currently tracked, without updating
// its recency.
func (g *Guard) Contains(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.index[key]
	return ok
}

// Size returns the number of keys currently tracked.
func (g *Guard) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ll.Len()
}
