package cachekey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type staticStrategy struct {
	target   string
	priority int
	key      string
}

func (s staticStrategy) SupportsTarget(t string) bool { return t == s.target }
func (s staticStrategy) Priority() int                { return s.priority }
func (s staticStrategy) Resolve(item any, ctx Context) (string, bool) {
	if s.key == "" {
		return "", false
	}
	return s.key, true
}

func TestRegistryResolvesHighestPriorityFirst(t *testing.T) {
	r := NewRegistry()
	r.Register("low", staticStrategy{target: "OrderDto", priority: 1, key: "low-key"})
	r.Register("high", staticStrategy{target: "OrderDto", priority: 10, key: "high-key"})

	key, ok := r.Resolve("OrderDto", nil, Context{})
	assert.True(t, ok)
	assert.Equal(t, "high-key", key)
}

func TestRegistrySkipsEmptyFingerprintStrategy(t *testing.T) {
	r := NewRegistry()
	r.Register("empty", staticStrategy{target: "OrderDto", priority: 10, key: ""})
	r.Register("fallback", staticStrategy{target: "OrderDto", priority: 1, key: "ok-key"})

	key, ok := r.Resolve("OrderDto", nil, Context{})
	assert.True(t, ok)
	assert.Equal(t, "ok-key", key)
}

func TestRegistryFallsBackToUntargetedStrategy(t *testing.T) {
	r := NewRegistry()
	r.Register("untargeted", staticStrategy{target: "OtherType", priority: 5, key: "untargeted-key"})

	key, ok := r.Resolve("OrderDto", nil, Context{})
	assert.True(t, ok)
	assert.Equal(t, "untargeted-key", key)
}

func TestRegistryNoMatch(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Resolve("OrderDto", nil, Context{})
	assert.False(t, ok)
}
