// Package placement resolves module placement decisions (RuntimeMapping)
// for the compiled step catalogue: which runtime/module a step, or a
// synthetic step inserted by the order expander, belongs to.
package placement

import (
	"github.com/pipelineframework/corepipe/internal/diagnostics"
	"github.com/pipelineframework/corepipe/internal/errs"
	"github.com/pipelineframework/corepipe/internal/ir"
	"github.com/pipelineframework/corepipe/internal/pipelineconfig"
)

// Layout is the module topology a pipeline deploys under.
type Layout string

const (
	LayoutModular         Layout = "MODULAR"
	LayoutPipelineRuntime Layout = "PIPELINE_RUNTIME"
	LayoutMonolith        Layout = "MONOLITH"
)

// Validation controls how RuntimeMapping.Resolve reacts to a step with
// no resolvable module.
type Validation string

const (
	ValidationAuto   Validation = "AUTO"
	ValidationStrict Validation = "STRICT"
)

// Defaults carries the fallback runtime/module names used when a step
// or synthetic has no explicit assignment.
type Defaults struct {
	Runtime         string
	Module          string
	SyntheticModule string
}

// RuntimeMapping is the shared, read-only module placement table built
// once during the compiler's Runtime Mapping phase and consulted by
// code generation.
type RuntimeMapping struct {
	Layout     Layout
	Validation Validation
	Defaults   Defaults
	Runtimes   map[string]string // module -> runtime
	Modules    map[string]string // module -> runtime (explicit override table)
	Steps      map[string]string // step name -> module
	Synthetics map[string]string // synthetic step name -> module
}

// FromFile builds a RuntimeMapping from its raw YAML form.
func FromFile(file pipelineconfig.RuntimeMappingFile) *RuntimeMapping {
	return &RuntimeMapping{
		Layout:     Layout(file.Layout),
		Validation: Validation(file.Validation),
		Defaults: Defaults{
			Runtime:         file.Defaults.Runtime,
			Module:          file.Defaults.Module,
			SyntheticModule: file.Defaults.SyntheticModule,
		},
		Runtimes:   file.Runtimes,
		Modules:    file.Modules,
		Steps:      file.Steps,
		Synthetics: file.Synthetics,
	}
}

// Resolve returns the module assigned to step. When no explicit or
// default assignment exists and Validation is STRICT, it returns an
// InvalidConfigurationError. Under AUTO, an unassigned step resolves to
// the empty string with no error; Resolve reports a warning through
// reporter (when non-nil) and the step is left unfiltered.
//
// Resolve is idempotent: calling it again with a StepModel that already
// carries its resolved module as an explicit Steps entry returns the
// same module (R.resolve(R.resolve(s)) == R.resolve(s)).
func (m *RuntimeMapping) Resolve(step *ir.StepModel, reporter diagnostics.Reporter) (string, error) {
	if module, ok := m.Steps[step.Name]; ok && module != "" {
		return module, nil
	}
	if m.Defaults.Module != "" {
		return m.Defaults.Module, nil
	}
	if m.Validation == ValidationStrict {
		return "", errs.NewInvalidConfiguration(step.Name, "no module assignment resolved under STRICT validation")
	}
	if reporter != nil {
		reporter.Warnf("runtime_mapping", step.Name, "no module assignment resolved; step left unfiltered under AUTO validation")
	}
	return "", nil
}

// ResolveSynthetic is Resolve's counterpart for synthetic steps
// inserted by the order expander; it falls back to the synthetic
// module default rather than the regular step default.
func (m *RuntimeMapping) ResolveSynthetic(syntheticName string, reporter diagnostics.Reporter) (string, error) {
	if module, ok := m.Synthetics[syntheticName]; ok && module != "" {
		return module, nil
	}
	if m.Defaults.SyntheticModule != "" {
		return m.Defaults.SyntheticModule, nil
	}
	if m.Validation == ValidationStrict {
		return "", errs.NewInvalidConfiguration(syntheticName, "no synthetic module assignment resolved under STRICT validation")
	}
	if reporter != nil {
		reporter.Warnf("runtime_mapping", syntheticName, "no synthetic module assignment resolved; left unfiltered under AUTO validation")
	}
	return "", nil
}

// RuntimeFor returns the runtime a resolved module deploys under,
// preferring an explicit Modules override before the Runtimes table.
func (m *RuntimeMapping) RuntimeFor(module string) string {
	if runtime, ok := m.Modules[module]; ok && runtime != "" {
		return runtime
	}
	if runtime, ok := m.Runtimes[module]; ok {
		return runtime
	}
	return m.Defaults.Runtime
}
