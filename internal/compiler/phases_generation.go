package compiler

import (
	"context"
	"fmt"

	"github.com/pipelineframework/corepipe/internal/codegen"
	"github.com/pipelineframework/corepipe/internal/orderexpander"
	"github.com/pipelineframework/corepipe/internal/storage"
)

// GenerationPhase dispatches each step's resolved targets to the
// matching codegen renderer and writes the result into the sandboxed
// module output directory. It also builds the effective order and
// emits the orchestrator stub; the order/telemetry/clients metadata
// files are written by InfrastructurePhase.
type GenerationPhase struct {
	Sandbox *storage.Sandbox
}

func (GenerationPhase) ID() string   { return "generation" }
func (GenerationPhase) Name() string { return "Generation" }

func (p GenerationPhase) Run(_ context.Context, cc *CompilationContext) error {
	basePackage := "generated"
	if cc.PipelineFile != nil && cc.PipelineFile.BasePackage != "" {
		basePackage = cc.PipelineFile.BasePackage
	}

	for _, step := range cc.Steps {
		view := codegen.StepView{Step: step, BasePackage: basePackage, Module: cc.StepModules[step.Name]}

		for _, target := range cc.Targets[step.Name] {
			var (
				out  []byte
				err  error
				name string
			)

			switch target {
			case TargetServerHandler:
				out, err = codegen.GenerateServerHandler(view)
				name = step.Name + "_handler.go"
			case TargetClientStub:
				out, err = codegen.GenerateClientStep(view)
				name = step.Name + "_client.go"
			case TargetSchemaFragment:
				out, err = codegen.GenerateSchemaFragment(view)
				name = step.Name + ".proto"
			case TargetOrchestratorWiring:
				continue // handled once, below, over the full step set
			}

			if err != nil {
				return err
			}
			if p.Sandbox != nil && out != nil {
				path := fmt.Sprintf("generated/%s", name)
				if err := p.Sandbox.AtomicWrite(path, out); err != nil {
					return err
				}
				cc.GeneratedFiles = append(cc.GeneratedFiles, path)
			}
		}
	}

	cc.EffectiveOrder = orderexpander.Expand(cc.Steps, cc.Aspects)

	views := make([]codegen.StepView, 0, len(cc.Steps))
	for _, step := range cc.Steps {
		views = append(views, codegen.StepView{Step: step, BasePackage: basePackage})
	}
	stub, err := codegen.GenerateOrchestratorStub(codegen.OrchestratorView{
		BasePackage: basePackage,
		Steps:       views,
		OrderNames:  orderexpander.Names(cc.EffectiveOrder),
	})
	if err != nil {
		return err
	}
	if p.Sandbox != nil {
		path := "generated/orchestrator_stub.go"
		if err := p.Sandbox.AtomicWrite(path, stub); err != nil {
			return err
		}
		cc.GeneratedFiles = append(cc.GeneratedFiles, path)
	}

	cc.EffectiveOrderBuilt = true
	return nil
}
