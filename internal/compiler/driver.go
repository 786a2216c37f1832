package compiler

import (
	"context"
	"log/slog"
	"time"
)

// PhaseResult records one phase's outcome.
type PhaseResult struct {
	Duration time.Duration
	Message  string
}

// Result is the outcome of a full compilation run.
type Result struct {
	Success      bool
	Duration     time.Duration
	PhaseResults map[string]*PhaseResult
	Errors       []error
}

// Driver executes the ordered phase list against a single
// CompilationContext in strict order; no phase may be skipped.
type Driver struct {
	phases []Phase
	logger *slog.Logger
}

// NewDriver creates a Driver that runs phases in the order given.
// Callers assemble the phase list themselves (normally the canonical
// eight phases) so tests can substitute fakes for individual phases.
func NewDriver(phases []Phase, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{phases: phases, logger: logger}
}

// Run executes every phase in order against cc. A phase failure stops
// the run immediately; earlier phases' side effects on cc are not
// rolled back.
func (d *Driver) Run(ctx context.Context, cc *CompilationContext) (*Result, error) {
	result := &Result{PhaseResults: make(map[string]*PhaseResult)}
	start := time.Now()

	for _, phase := range d.phases {
		select {
		case <-ctx.Done():
			result.Errors = append(result.Errors, ctx.Err())
			result.Duration = time.Since(start)
			return result, ctx.Err()
		default:
		}

		phaseStart := time.Now()
		d.logger.InfoContext(ctx, "executing compiler phase",
			slog.String("phase_id", phase.ID()),
			slog.String("phase_name", phase.Name()),
		)

		err := phase.Run(ctx, cc)
		result.PhaseResults[phase.ID()] = &PhaseResult{Duration: time.Since(phaseStart)}

		if err != nil {
			wrapped := NewPhaseError(phase.ID(), phase.Name(), err)
			result.Errors = append(result.Errors, wrapped)
			result.Duration = time.Since(start)
			d.logger.ErrorContext(ctx, "compiler phase failed",
				slog.String("phase_id", phase.ID()),
				slog.String("error", err.Error()),
			)
			return result, wrapped
		}

		d.logger.InfoContext(ctx, "compiler phase completed",
			slog.String("phase_id", phase.ID()),
			slog.Duration("duration", result.PhaseResults[phase.ID()].Duration),
		)
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result, nil
}
