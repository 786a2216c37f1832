// Package compiler drives the eight-phase compilation pipeline:
// Discovery, Model Extraction, Runtime Mapping, Semantic Analysis,
// Target Resolution, Binding Construction, Generation, Infrastructure.
// Phases are an ordered slice executed against one shared, mutable
// context; no phase is ever skipped or reordered.
package compiler

import (
	"time"

	"github.com/pipelineframework/corepipe/internal/ir"
	"github.com/pipelineframework/corepipe/internal/orderexpander"
	"github.com/pipelineframework/corepipe/internal/pipelineconfig"
	"github.com/pipelineframework/corepipe/internal/placement"
)

// GenerationTarget is one artifact kind the Target Resolution phase
// can assign to a step.
type GenerationTarget string

const (
	TargetServerHandler       GenerationTarget = "SERVER_HANDLER"
	TargetClientStub          GenerationTarget = "CLIENT_STUB"
	TargetOrchestratorWiring  GenerationTarget = "ORCHESTRATOR_WIRING"
	TargetSchemaFragment      GenerationTarget = "SCHEMA_FRAGMENT"
)

// Binding is a renderer-ready resolution of an IR symbol against the
// descriptor set, attached during the Binding Construction phase.
type Binding struct {
	StepName    string
	Symbol      string
	MessageName string
	ServiceName string
}

// CompilationContext is the single mutable object every phase reads
// from and writes to.
type CompilationContext struct {
	ModuleDir string
	OutputDir string

	// ModuleName is the identity of the module being compiled. STRICT
	// runtime-mapping validation requires it so every step resolves to
	// a declared module of a known compilation unit.
	ModuleName string

	DescriptorSetPath string // optional explicit override consumed by the Binding Construction phase

	// AllowShortTypeNames gates the legacy short-form type name
	// resolution: when true (the default), a step's bare
	// InputType/OutputType is qualified against PipelineFile.BasePackage
	// before binding; when false, a bare name fails binding outright.
	AllowShortTypeNames bool

	PipelineFile   *pipelineconfig.PipelineFile
	RuntimeMapping *placement.RuntimeMapping

	RawSteps   []pipelineconfig.StepDecl
	RawAspects []pipelineconfig.AspectDecl

	Steps   []*ir.StepModel
	Aspects []*ir.Aspect

	StepModules map[string]string // step name -> resolved module

	EffectiveOrderBuilt bool
	EffectiveOrder      []orderexpander.EffectiveStep

	Targets  map[string][]GenerationTarget // step name -> targets
	Bindings map[string]*Binding           // step name -> binding

	GeneratedFiles []string // paths written during Generation/Infrastructure

	StartTime time.Time
	Errors    []error
}

// NewCompilationContext creates an empty context rooted at moduleDir.
func NewCompilationContext(moduleDir string) *CompilationContext {
	return &CompilationContext{
		ModuleDir:           moduleDir,
		StepModules:         make(map[string]string),
		Targets:             make(map[string][]GenerationTarget),
		Bindings:            make(map[string]*Binding),
		StartTime:           time.Now(),
		AllowShortTypeNames: true,
	}
}

// AddError records a non-fatal error without stopping compilation.
func (c *CompilationContext) AddError(err error) {
	if err != nil {
		c.Errors = append(c.Errors, err)
	}
}

// HasErrors reports whether any non-fatal error was recorded.
func (c *CompilationContext) HasErrors() bool {
	return len(c.Errors) > 0
}
