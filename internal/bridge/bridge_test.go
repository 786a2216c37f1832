package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/pipelineframework/corepipe/internal/idempotency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownstream struct {
	received []Checkpoint
	failNext bool
}

func (f *fakeDownstream) Ingest(ctx context.Context, cp Checkpoint) error {
	if f.failNext {
		f.failNext = false
		return errors.New("downstream unavailable")
	}
	f.received = append(f.received, cp)
	return nil
}

func TestForwardDeliversOnce(t *testing.T) {
	down := &fakeDownstream{}
	b := New("orders-to-billing", down, idempotency.NewGuard(16), nil)

	cp := Checkpoint{Key: "order-x", Payload: map[string]any{"orderId": "X"}}
	require.NoError(t, b.Forward(context.Background(), cp))
	require.NoError(t, b.Forward(context.Background(), cp))

	assert.Len(t, down.received, 1)
	assert.Equal(t, 1, b.ForwardedCount())
}

func TestForwardIgnoresUnknownEnvelope(t *testing.T) {
	down := &fakeDownstream{}
	b := New("orders-to-billing", down, idempotency.NewGuard(16), nil)

	require.NoError(t, b.Forward(context.Background(), Checkpoint{}))
	assert.Empty(t, down.received)
}

func TestForwardCountsFailureAndResumes(t *testing.T) {
	down := &fakeDownstream{failNext: true}
	b := New("orders-to-billing", down, idempotency.NewGuard(16), nil)

	require.NoError(t, b.Forward(context.Background(), Checkpoint{Key: "order-x"}))
	assert.Equal(t, 1, b.FailureCount())
	assert.Empty(t, down.received)

	require.NoError(t, b.Forward(context.Background(), Checkpoint{Key: "order-y"}))
	assert.Len(t, down.received, 1)
}
