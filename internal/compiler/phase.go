package compiler

import (
	"context"
	"fmt"
)

// Phase is one stage of the eight-phase compilation pipeline.
type Phase interface {
	ID() string
	Name() string
	Run(ctx context.Context, cc *CompilationContext) error
}

// PhaseError wraps a failure with the phase that produced it.
type PhaseError struct {
	PhaseID   string
	PhaseName string
	Err       error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("phase %s (%s): %v", e.PhaseID, e.PhaseName, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// NewPhaseError wraps err with phase identity.
func NewPhaseError(id, name string, err error) *PhaseError {
	return &PhaseError{PhaseID: id, PhaseName: name, Err: err}
}
