package ir

import (
	"strings"

	"github.com/pipelineframework/corepipe/internal/errs"
	"github.com/pipelineframework/corepipe/internal/pipelineconfig"
)

// Scope is the reach of an Aspect: GLOBAL matches every base step,
// STEPS matches only its declared target steps.
type Scope string

const (
	ScopeGlobal Scope = "GLOBAL"
	ScopeSteps  Scope = "STEPS"
)

// Position is where, relative to a matched base step, an Aspect's
// synthetic step is inserted.
type Position string

const (
	PositionBefore Position = "BEFORE_STEP"
	PositionAfter  Position = "AFTER_STEP"
)

// Aspect is a declarative cross-cutting concern. Once built it is
// immutable; the order expander reads it but never mutates it.
type Aspect struct {
	Name        string
	Enabled     bool
	Scope       Scope
	Position    Position
	Order       int
	TargetSteps []string
	Config      map[string]any
}

// ExtractAspect normalizes a raw AspectDecl into a canonical Aspect.
// Enabled defaults to true when absent. An enabled STEPS-scope aspect
// with no target steps is rejected.
func ExtractAspect(decl pipelineconfig.AspectDecl) (*Aspect, error) {
	enabled := true
	if decl.Enabled != nil {
		enabled = *decl.Enabled
	}

	scope := Scope(strings.ToUpper(decl.Scope))
	switch scope {
	case ScopeGlobal, ScopeSteps:
	default:
		return nil, errs.NewInvalidConfiguration(decl.Name, "unrecognized aspect scope: "+decl.Scope)
	}

	position := Position(strings.ToUpper(decl.Position))
	switch position {
	case PositionBefore, PositionAfter:
	default:
		return nil, errs.NewInvalidConfiguration(decl.Name, "unrecognized aspect position: "+decl.Position)
	}

	if enabled && scope == ScopeSteps && len(decl.TargetSteps) == 0 {
		return nil, errs.NewInvalidConfiguration(decl.Name, "STEPS-scoped aspect must declare at least one target step")
	}

	return &Aspect{
		Name:        decl.Name,
		Enabled:     enabled,
		Scope:       scope,
		Position:    position,
		Order:       decl.Order,
		TargetSteps: append([]string(nil), decl.TargetSteps...),
		Config:      decl.Config,
	}, nil
}

// MatchesStep reports whether the aspect applies to stepName: GLOBAL
// scope always matches; STEPS scope matches only declared targets.
func (a *Aspect) MatchesStep(stepName string) bool {
	if a.Scope == ScopeGlobal {
		return true
	}
	for _, target := range a.TargetSteps {
		if target == stepName {
			return true
		}
	}
	return false
}
