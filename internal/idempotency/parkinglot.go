package idempotency

import (
	"log/slog"
	"sync"
	"time"

	"github.com/pipelineframework/corepipe/internal/errs"
)

// ParkedFailure is a single exhausted-retry record.
type ParkedFailure struct {
	ExternalID string
	ErrorKind  errs.Kind
	Message    string
	Timestamp  time.Time
}

// ParkingLot is an append-only, capacity-bounded sink for failures
// that exhausted retry. Failures beyond capacity are dropped with a
// logged warning rather than blocking the caller.
type ParkingLot struct {
	mu       sync.Mutex
	capacity int
	items    []ParkedFailure
	logger   *slog.Logger
}

// NewParkingLot creates a ParkingLot bounded at capacity entries.
func NewParkingLot(capacity int, logger *slog.Logger) *ParkingLot {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParkingLot{capacity: capacity, logger: logger}
}

// Park records a failure. now is supplied by the caller rather than
// read internally so callers can stamp deterministic timestamps in
// tests and replay scenarios.
func (p *ParkingLot) Park(externalID string, kind errs.Kind, message string, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.items) >= p.capacity {
		p.logger.Warn("parking lot at capacity, dropping failure",
			slog.String("external_id", externalID),
			slog.String("error_kind", string(kind)),
		)
		return
	}

	p.items = append(p.items, ParkedFailure{
		ExternalID: externalID,
		ErrorKind:  kind,
		Message:    message,
		Timestamp:  now,
	})
}

// All returns a defensive copy of every parked failure.
func (p *ParkingLot) All() []ParkedFailure {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ParkedFailure, len(p.items))
	copy(out, p.items)
	return out
}
