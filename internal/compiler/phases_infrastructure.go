package compiler

import (
	"context"

	"github.com/pipelineframework/corepipe/internal/codegen"
	"github.com/pipelineframework/corepipe/internal/ir"
	"github.com/pipelineframework/corepipe/internal/orderexpander"
	"github.com/pipelineframework/corepipe/internal/storage"
)

// InfrastructurePhase writes the order, telemetry, and clients
// metadata files to the module output directory.
type InfrastructurePhase struct {
	Sandbox *storage.Sandbox
}

func (InfrastructurePhase) ID() string   { return "infrastructure" }
func (InfrastructurePhase) Name() string { return "Infrastructure" }

func (p InfrastructurePhase) Run(_ context.Context, cc *CompilationContext) error {
	if p.Sandbox == nil {
		return nil
	}

	if cc.EffectiveOrder == nil {
		cc.EffectiveOrder = orderexpander.Expand(cc.Steps, cc.Aspects)
	}

	order, err := codegen.BuildOrderDescriptor(cc.EffectiveOrder)
	if err != nil {
		return err
	}
	if err := p.Sandbox.AtomicWrite("metadata/order.json", order); err != nil {
		return err
	}

	telemetry, err := codegen.BuildTelemetryDescriptors(cc.EffectiveOrder)
	if err != nil {
		return err
	}
	if err := p.Sandbox.AtomicWrite("metadata/telemetry.json", telemetry); err != nil {
		return err
	}

	clients, err := codegen.BuildClientEndpointTable(cc.EffectiveOrder, func(s *ir.StepModel) string {
		if binding, ok := cc.Bindings[s.Name]; ok {
			return binding.ServiceName
		}
		return ""
	})
	if err != nil {
		return err
	}
	if err := p.Sandbox.AtomicWrite("metadata/clients.properties", clients); err != nil {
		return err
	}

	cc.GeneratedFiles = append(cc.GeneratedFiles,
		"metadata/order.json", "metadata/telemetry.json", "metadata/clients.properties")

	return nil
}
