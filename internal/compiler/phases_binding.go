package compiler

import (
	"context"

	"github.com/pipelineframework/corepipe/internal/ir"
	"github.com/pipelineframework/corepipe/internal/schemabinding"
)

// BindingConstructionPhase resolves each DELEGATED step's IR symbols
// against the descriptor set located by schemabinding.Resolve. Only
// steps with a schema fragment target (every DELEGATED step, whatever
// its transport) are bound; INTERNAL steps are skipped.
type BindingConstructionPhase struct {
	ResolveOptions schemabinding.Options
}

func (BindingConstructionPhase) ID() string   { return "binding_construction" }
func (BindingConstructionPhase) Name() string { return "Binding Construction" }

func (p BindingConstructionPhase) Run(ctx context.Context, cc *CompilationContext) error {
	needsBinding := false
	for _, targets := range cc.Targets {
		for _, t := range targets {
			if t == TargetSchemaFragment {
				needsBinding = true
			}
		}
	}
	if !needsBinding {
		return nil
	}

	opts := p.ResolveOptions
	if opts.ExplicitFile == "" {
		opts.ExplicitFile = cc.DescriptorSetPath
	}
	if opts.ModuleDir == "" {
		opts.ModuleDir = cc.ModuleDir
	}

	bound, err := schemabinding.Resolve(ctx, opts)
	if err != nil {
		return err
	}

	basePackage := ""
	if cc.PipelineFile != nil {
		basePackage = cc.PipelineFile.BasePackage
	}

	for _, step := range cc.Steps {
		targets := cc.Targets[step.Name]
		hasSchema := false
		for _, t := range targets {
			if t == TargetSchemaFragment {
				hasSchema = true
			}
		}
		if !hasSchema {
			continue
		}

		messageName, err := ir.QualifyTypeReference(basePackage, step.OutputType, cc.AllowShortTypeNames)
		if err != nil {
			return err
		}

		cc.Bindings[step.Name] = &Binding{
			StepName:    step.Name,
			Symbol:      step.Symbol,
			MessageName: messageName,
			ServiceName: bound.Path,
		}
	}

	return nil
}
