package compiler

import (
	"context"

	"github.com/pipelineframework/corepipe/internal/diagnostics"
	"github.com/pipelineframework/corepipe/internal/ir"
)

// ModelExtractionPhase builds the canonical StepModel/Aspect IR from
// the raw declarations collected by DiscoveryPhase.
type ModelExtractionPhase struct {
	Reporter diagnostics.Reporter
}

func (ModelExtractionPhase) ID() string   { return "model_extraction" }
func (ModelExtractionPhase) Name() string { return "Model Extraction" }

func (p ModelExtractionPhase) Run(_ context.Context, cc *CompilationContext) error {
	reporter := p.Reporter
	if reporter == nil {
		reporter = diagnostics.New(nil)
	}

	for _, decl := range cc.RawSteps {
		model, err := ir.ExtractStepModel(decl, reporter)
		if err != nil {
			return err
		}
		cc.Steps = append(cc.Steps, model)
	}

	for _, decl := range cc.RawAspects {
		aspect, err := ir.ExtractAspect(decl)
		if err != nil {
			return err
		}
		cc.Aspects = append(cc.Aspects, aspect)
	}

	return nil
}
