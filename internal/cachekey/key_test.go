package cachekey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildKeyEmbedsTypeFingerprintAndVersion(t *testing.T) {
	key := BuildKey("OrderDto", "content-bytes", "v2")
	assert.True(t, strings.HasPrefix(key, "OrderDto:"))
	assert.True(t, strings.HasSuffix(key, ":v2"))
}

func TestBuildKeyEmptyFingerprintYieldsEmptyKey(t *testing.T) {
	key := BuildKey("OrderDto", "   ", "v2")
	assert.Empty(t, key)
}

func TestBuildKeyDeterministic(t *testing.T) {
	a := BuildKey("OrderDto", "same-bytes", "v1")
	b := BuildKey("OrderDto", "same-bytes", "v1")
	assert.Equal(t, a, b)
}

func TestBuildKeyChangesWithVersionTag(t *testing.T) {
	a := BuildKey("OrderDto", "same-bytes", "v1")
	b := BuildKey("OrderDto", "same-bytes", "v2")
	assert.NotEqual(t, a, b)
}
