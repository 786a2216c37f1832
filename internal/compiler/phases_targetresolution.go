package compiler

import (
	"context"

	"github.com/pipelineframework/corepipe/internal/ir"
)

// TargetResolutionPhase determines, per step, which generation targets
// apply: a server handler for INTERNAL and DELEGATED steps alike, a
// client stub and schema fragment for DELEGATED steps, and
// orchestrator wiring for everything.
type TargetResolutionPhase struct{}

func (TargetResolutionPhase) ID() string   { return "target_resolution" }
func (TargetResolutionPhase) Name() string { return "Target Resolution" }

func (TargetResolutionPhase) Run(_ context.Context, cc *CompilationContext) error {
	for _, step := range cc.Steps {
		var targets []GenerationTarget

		targets = append(targets, TargetServerHandler)
		if step.ExecutionKind == ir.Delegated {
			targets = append(targets, TargetClientStub, TargetSchemaFragment)
		}
		targets = append(targets, TargetOrchestratorWiring)

		cc.Targets[step.Name] = targets
	}
	return nil
}
