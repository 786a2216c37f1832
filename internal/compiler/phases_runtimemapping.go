package compiler

import (
	"context"

	"github.com/pipelineframework/corepipe/internal/diagnostics"
	"github.com/pipelineframework/corepipe/internal/errs"
	"github.com/pipelineframework/corepipe/internal/placement"
)

// RuntimeMappingPhase attaches a module assignment to every step.
// Under STRICT validation an unassigned step fails the phase; under
// AUTO a missing assignment only warns and the phase returns without
// filtering any step out of cc.Steps.
type RuntimeMappingPhase struct {
	Reporter diagnostics.Reporter
}

func (RuntimeMappingPhase) ID() string   { return "runtime_mapping" }
func (RuntimeMappingPhase) Name() string { return "Runtime Mapping" }

func (p RuntimeMappingPhase) Run(_ context.Context, cc *CompilationContext) error {
	if cc.RuntimeMapping == nil {
		return nil
	}
	reporter := p.Reporter
	if reporter == nil {
		reporter = diagnostics.New(nil)
	}

	if cc.RuntimeMapping.Validation == placement.ValidationStrict && cc.ModuleName == "" {
		return errs.NewInvalidConfiguration("module.name", "module identity is required under STRICT validation")
	}

	for _, step := range cc.Steps {
		module, err := cc.RuntimeMapping.Resolve(step, reporter)
		if err != nil {
			return err
		}
		cc.StepModules[step.Name] = module
	}

	return nil
}
