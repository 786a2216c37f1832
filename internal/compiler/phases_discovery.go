package compiler

import "context"

// DiscoveryPhase collects the annotated step and aspect declarations
// already parsed into cc.PipelineFile by the pipelineconfig loader.
type DiscoveryPhase struct{}

func (DiscoveryPhase) ID() string   { return "discovery" }
func (DiscoveryPhase) Name() string { return "Discovery" }

func (DiscoveryPhase) Run(_ context.Context, cc *CompilationContext) error {
	if cc.PipelineFile == nil {
		return nil
	}
	cc.RawSteps = cc.PipelineFile.Steps
	cc.RawAspects = cc.PipelineFile.Aspects
	return nil
}
