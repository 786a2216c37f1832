// Package codegen renders generation targets into Go source with
// text/template and go/format. Emitted transports use
// google.golang.org/grpc for GRPC, chi/huma for REST, and in-process
// calls for LOCAL/FUNCTION.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"text/template"

	"github.com/pipelineframework/corepipe/internal/ir"
)

// StepView is the template-facing projection of a StepModel plus the
// module/package names the generator needs to emit qualified
// references.
type StepView struct {
	Step        *ir.StepModel
	BasePackage string
	Module      string
}

func renderRaw(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("codegen: render: %w", err)
	}
	return buf.Bytes(), nil
}

func render(tmpl *template.Template, data any) ([]byte, error) {
	raw, err := renderRaw(tmpl, data)
	if err != nil {
		return nil, err
	}
	formatted, err := format.Source(raw)
	if err != nil {
		return nil, fmt.Errorf("codegen: gofmt: %w", err)
	}
	return formatted, nil
}

// GenerateServerHandler renders the server-side handler for step: it
// accepts wire input, maps to domain, invokes the implementation
// symbol, maps output to wire, honoring the step's cardinality.
func GenerateServerHandler(view StepView) ([]byte, error) {
	return render(serverHandlerTemplate, view)
}

// GenerateClientStep renders the client step implementing the target
// cardinality interface and invoking the declared transport.
func GenerateClientStep(view StepView) ([]byte, error) {
	return render(clientStepTemplate, view)
}

// GenerateOrchestratorStub renders the wiring of client steps in the
// effective order.
func GenerateOrchestratorStub(view OrchestratorView) ([]byte, error) {
	return render(orchestratorStubTemplate, view)
}

// GenerateSchemaFragment renders the message/service/RPC declaration
// for a single step, with streaming modifiers derived from cardinality.
// Output is proto source, not Go, so it is not passed through gofmt.
func GenerateSchemaFragment(view StepView) ([]byte, error) {
	return renderRaw(schemaFragmentTemplate, view)
}

// OrchestratorView is the template-facing projection of the effective
// order for GenerateOrchestratorStub. OrderNames is the fully expanded
// order (base steps plus synthetic side-effect client steps, in
// execution order); Steps retains the base-step views for callers that
// need per-step metadata alongside the wiring.
type OrchestratorView struct {
	BasePackage string
	Steps       []StepView
	OrderNames  []string
}
