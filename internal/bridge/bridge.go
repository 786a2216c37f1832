// Package bridge forwards one pipeline's checkpoint stream into
// another pipeline's ingest endpoint: idempotent per checkpoint key,
// at-most-once under downstream failure, resumable after recovery.
package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pipelineframework/corepipe/internal/idempotency"
	"github.com/pipelineframework/corepipe/internal/ids"
)

// Checkpoint is a pipeline's terminal output: an immutable aggregate
// state eligible for forwarding downstream.
type Checkpoint struct {
	ID      ids.ID // lexicographically sortable, assigned at publish time
	Key     string // deterministic idempotency key, e.g. orderId
	Payload any
}

// Downstream is the ingest endpoint a Bridge forwards checkpoints to.
// A failed Ingest counts as at-most-once delivery: the bridge does not
// retry or buffer beyond the bounded idempotency guard.
type Downstream interface {
	Ingest(ctx context.Context, cp Checkpoint) error
}

// Bridge forwards checkpoints from one named upstream pipeline to one
// Downstream, deduplicating via a bounded idempotency guard and
// counting downstream failures without parking unbounded state.
type Bridge struct {
	mu             sync.Mutex
	name           string
	downstream     Downstream
	guard          *idempotency.Guard
	logger         *slog.Logger
	failureCount   int
	forwardedCount int
}

// New creates a Bridge named name, forwarding into downstream and
// deduplicating against a guard with the given idempotency window.
func New(name string, downstream Downstream, guard *idempotency.Guard, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{name: name, downstream: downstream, guard: guard, logger: logger}
}

// Forward publishes cp downstream. Unknown envelope shapes (an empty
// Key) are ignored without failing the caller. Duplicate keys are
// dropped silently after the first successful or attempted forward.
// A downstream Ingest failure increments the failure counter and
// returns nil: the caller's stream keeps running (at-most-once,
// resumable on recovery).
func (b *Bridge) Forward(ctx context.Context, cp Checkpoint) error {
	if cp.Key == "" {
		b.logger.Warn("bridge: ignoring checkpoint with unknown envelope shape", slog.String("bridge", b.name))
		return nil
	}

	isNew, err := b.guard.MarkIfNew(cp.Key)
	if err != nil {
		return nil
	}
	if !isNew {
		return nil
	}

	if err := b.downstream.Ingest(ctx, cp); err != nil {
		b.mu.Lock()
		b.failureCount++
		b.mu.Unlock()
		b.logger.Warn("bridge: downstream ingest failed", slog.String("bridge", b.name), slog.String("error", err.Error()))
		return nil
	}

	b.mu.Lock()
	b.forwardedCount++
	b.mu.Unlock()
	return nil
}

// FailureCount returns how many downstream Ingest calls have failed.
func (b *Bridge) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// ForwardedCount returns how many checkpoints were successfully
// forwarded downstream.
func (b *Bridge) ForwardedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.forwardedCount
}
