// Package pipelineconfig loads raw pipeline declarations off disk. It
// owns YAML decoding, structural validation, and file discovery only;
// semantic normalization (alias resolution, invariant checks) happens
// one layer up in internal/ir.
package pipelineconfig

import "github.com/go-playground/validator/v10"

// validate is the single validator instance shared across Load calls.
var validate = validator.New(validator.WithRequiredStructEnabled())

// StepDecl is the raw, as-declared form of a step: whatever the
// pipeline author wrote, alias keys and all. internal/ir.ExtractStepModel
// normalizes this into a canonical ir.StepModel.
type StepDecl struct {
	Name           string         `yaml:"name" validate:"required"`
	InputType      string         `yaml:"inputType"`
	OutputType     string         `yaml:"outputType"`
	Cardinality    string         `yaml:"cardinality" validate:"required"`
	Service        string         `yaml:"service"`        // INTERNAL implementation symbol
	Operator       string         `yaml:"operator"`       // DELEGATED implementation symbol
	Delegate       string         `yaml:"delegate"`       // legacy alias for Operator
	OperatorMapper string         `yaml:"operatorMapper"` // inbound/outbound mapper symbol
	ExternalMapper string         `yaml:"externalMapper"` // legacy alias for OperatorMapper
	DeploymentRole string         `yaml:"deploymentRole"`
	Transport      string         `yaml:"transport"`
	CacheKey       string         `yaml:"cacheKey"`
	Extra          map[string]any `yaml:",inline"` // unrecognized keys, surfaced as WARNING diagnostics
}

// AspectDecl is the raw, as-declared form of an aspect.
type AspectDecl struct {
	Name        string         `yaml:"name" validate:"required"`
	Enabled     *bool          `yaml:"enabled"`
	Scope       string         `yaml:"scope"`
	Position    string         `yaml:"position"`
	Order       int            `yaml:"order"`
	TargetSteps []string       `yaml:"targetSteps"`
	Config      map[string]any `yaml:"config"`
}

// Validate runs struct-tag validation over every step and aspect
// declaration in the file; the tags check required fields only. Type
// continuity is hand-written in internal/compiler.SemanticAnalysisPhase,
// since that check spans multiple steps and validator tags can't
// express it.
func (f *PipelineFile) Validate() error {
	for i := range f.Steps {
		if err := validate.Struct(f.Steps[i]); err != nil {
			return err
		}
	}
	for i := range f.Aspects {
		if err := validate.Struct(f.Aspects[i]); err != nil {
			return err
		}
	}
	return nil
}

// PipelineFile is the top-level document shape of a pipeline
// configuration file (the `-canvas-config.yaml` / accepted-filename
// document loaded by the Loader).
type PipelineFile struct {
	AppName     string       `yaml:"appName"`
	BasePackage string       `yaml:"basePackage"`
	Transport   string       `yaml:"transport"`
	Platform    string       `yaml:"platform"`
	Steps       []StepDecl   `yaml:"steps"`
	Aspects     []AspectDecl `yaml:"aspects"`
}

// RuntimeMappingFile is the module-placement document (layout,
// validation mode, and the explicit/default module assignment maps
// consumed by internal/placement).
type RuntimeMappingFile struct {
	Enabled    bool              `yaml:"enabled"`
	Layout     string            `yaml:"layout"`     // MODULAR, PIPELINE_RUNTIME, MONOLITH
	Validation string            `yaml:"validation"` // AUTO, STRICT
	Runtimes   map[string]string `yaml:"runtimes"`
	Modules    map[string]string `yaml:"modules"`
	Defaults   struct {
		Runtime         string `yaml:"runtime"`
		Module          string `yaml:"module"`
		SyntheticModule string `yaml:"syntheticModule"`
	} `yaml:"defaults"`
	Steps      map[string]string `yaml:"steps"`      // step name -> module
	Synthetics map[string]string `yaml:"synthetics"` // synthetic step name -> module
}
