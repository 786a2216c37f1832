package compiler

import (
	"context"

	"github.com/pipelineframework/corepipe/internal/errs"
)

// SemanticAnalysisPhase enforces type continuity from step i's output
// to step i+1's input. Cardinality combinations between adjacent steps
// are not checked.
type SemanticAnalysisPhase struct{}

func (SemanticAnalysisPhase) ID() string   { return "semantic_analysis" }
func (SemanticAnalysisPhase) Name() string { return "Semantic Analysis" }

func (SemanticAnalysisPhase) Run(_ context.Context, cc *CompilationContext) error {
	for i := 0; i+1 < len(cc.Steps); i++ {
		current := cc.Steps[i]
		next := cc.Steps[i+1]

		if current.OutputType == "" || next.InputType == "" {
			continue // continuity is not checked when either side's type is undeclared
		}

		if current.OutputType != next.InputType {
			return errs.NewInvalidConfiguration(next.Name,
				"type continuity violated: step outputs "+current.OutputType+" but next step expects "+next.InputType)
		}
	}
	return nil
}
