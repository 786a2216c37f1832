// Package diagnostics provides the pluggable reporter the step
// catalogue parser and the rest of the compiler phases use to surface
// INFO/WARN/ERROR findings without failing parsing outright.
package diagnostics

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Severity is the level of a diagnostic message.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Diagnostic is a single reported finding.
type Diagnostic struct {
	Severity Severity
	Phase    string
	Subject  string // step name, aspect name, or file path this concerns
	Message  string
}

// Reporter collects diagnostics and exposes query helpers. It is safe
// for concurrent use since several compiler phases may report at once.
type Reporter interface {
	Report(d Diagnostic)
	Infof(phase, subject, format string, args ...any)
	Warnf(phase, subject, format string, args ...any)
	Errorf(phase, subject, format string, args ...any)
	All() []Diagnostic
	HasErrors() bool
}

// reporter is the default Reporter, backed by an in-memory slice and a
// slog.Logger for immediate structured output.
type reporter struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
	logger      *slog.Logger
}

// New creates a Reporter that both accumulates diagnostics for later
// inspection and forwards them to logger immediately.
func New(logger *slog.Logger) Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &reporter{logger: logger}
}

func (r *reporter) Report(d Diagnostic) {
	r.mu.Lock()
	r.diagnostics = append(r.diagnostics, d)
	r.mu.Unlock()

	attrs := []any{slog.String("phase", d.Phase), slog.String("subject", d.Subject)}
	switch d.Severity {
	case SeverityError:
		r.logger.ErrorContext(context.Background(), d.Message, attrs...)
	case SeverityWarn:
		r.logger.WarnContext(context.Background(), d.Message, attrs...)
	default:
		r.logger.InfoContext(context.Background(), d.Message, attrs...)
	}
}

func (r *reporter) Infof(phase, subject, format string, args ...any) {
	r.Report(Diagnostic{Severity: SeverityInfo, Phase: phase, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (r *reporter) Warnf(phase, subject, format string, args ...any) {
	r.Report(Diagnostic{Severity: SeverityWarn, Phase: phase, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (r *reporter) Errorf(phase, subject, format string, args ...any) {
	r.Report(Diagnostic{Severity: SeverityError, Phase: phase, Subject: subject, Message: fmt.Sprintf(format, args...)})
}

func (r *reporter) All() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

func (r *reporter) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}
