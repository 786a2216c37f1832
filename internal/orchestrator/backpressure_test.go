package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDefaultsUnknownModeToBuffer(t *testing.T) {
	b := Normalize("bogus", 10)
	assert.Equal(t, ModeBuffer, b.Mode)
}

func TestNormalizeDefaultsNonPositiveCapacity(t *testing.T) {
	b := Normalize(ModeBuffer, 0)
	assert.Equal(t, DefaultBufferCapacity, b.Capacity)

	b = Normalize(ModeBuffer, -5)
	assert.Equal(t, DefaultBufferCapacity, b.Capacity)
}

func TestSendDropDiscardsOnFullBuffer(t *testing.T) {
	b := Normalize(ModeDrop, 1)
	ch := b.NewChannel()
	done := make(chan struct{})

	b.Send(ch, "first", done)
	b.Send(ch, "second", done) // dropped, channel already full

	assert.Len(t, ch, 1)
	assert.Equal(t, "first", <-ch)
}
