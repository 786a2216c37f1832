package ir

import (
	"github.com/pipelineframework/corepipe/internal/diagnostics"
	"github.com/pipelineframework/corepipe/internal/errs"
	"github.com/pipelineframework/corepipe/internal/pipelineconfig"
)

// StepModel is the canonical, immutable IR form of a declared step.
// Once built by ExtractStepModel it is never mutated again; later
// compiler phases attach derived information (runtime mapping,
// bindings) in their own context structures, not on the StepModel.
type StepModel struct {
	Name           string
	InputType      string
	OutputType     string
	Cardinality    Cardinality
	ExecutionKind  ExecutionKind
	Symbol         string // service symbol (INTERNAL) or operator symbol (DELEGATED)
	InboundMapper  string
	OutboundMapper string
	DeploymentRole   DeploymentRole
	Transport        Transport
	CacheKeyStrategy string // optional, empty when unset
}

// ExtractStepModel normalizes a raw StepDecl into a canonical
// StepModel, applying alias resolution and the C3 rejection rules.
// Unknown keys in decl.Extra are reported as WARNING diagnostics but
// never fail extraction.
func ExtractStepModel(decl pipelineconfig.StepDecl, reporter diagnostics.Reporter) (*StepModel, error) {
	if reporter == nil {
		reporter = diagnostics.New(nil)
	}

	operator := firstNonEmpty(decl.Operator, decl.Delegate)
	if decl.Operator != "" && decl.Delegate != "" {
		return nil, errs.NewInvalidConfiguration(decl.Name, "step declares both operator and delegate")
	}

	mapper := firstNonEmpty(decl.OperatorMapper, decl.ExternalMapper)

	hasService := decl.Service != ""
	hasOperator := operator != ""

	if hasService && hasOperator {
		return nil, errs.NewInvalidConfiguration(decl.Name, "step declares service together with operator/delegate")
	}
	if !hasService && !hasOperator {
		return nil, errs.NewInvalidConfiguration(decl.Name, "step declares neither service nor operator/delegate")
	}

	kind := Internal
	symbol := decl.Service
	if hasOperator {
		kind = Delegated
		symbol = operator
	}

	if kind == Delegated {
		hasInput := decl.InputType != ""
		hasOutput := decl.OutputType != ""
		if hasInput != hasOutput {
			return nil, errs.NewInvalidConfiguration(decl.Name, "DELEGATED step must declare both input and output types together or neither")
		}
	}

	if kind == Internal && mapper != "" {
		return nil, errs.NewInvalidConfiguration(decl.Name, "INTERNAL step must not declare an explicit mapper")
	}

	for _, ref := range []string{decl.InputType, decl.OutputType, symbol} {
		if ref != "" && !ValidClassReference(ref) {
			return nil, errs.NewInvalidConfiguration(decl.Name, "invalid identifier segment in reference: "+ref)
		}
	}

	cardinality, ok := ParseCardinality(decl.Cardinality)
	if !ok {
		return nil, errs.NewInvalidConfiguration(decl.Name, "unrecognized cardinality: "+decl.Cardinality)
	}

	role := DeploymentRole(decl.DeploymentRole)
	if role == "" {
		role = RoleRegular
	}
	switch role {
	case RoleRegular, RoleOrchestratorClient, RolePluginClient, RoleSynthetic:
	default:
		return nil, errs.NewInvalidConfiguration(decl.Name, "unrecognized deployment role: "+decl.DeploymentRole)
	}

	transport := TransportLocal
	if decl.Transport != "" {
		t, ok := parseTransport(decl.Transport)
		if !ok {
			return nil, errs.NewInvalidConfiguration(decl.Name, "unrecognized transport: "+decl.Transport)
		}
		transport = t
	}

	for key := range decl.Extra {
		reporter.Warnf("discovery", decl.Name, "unknown key %q", key)
	}

	return &StepModel{
		Name:             decl.Name,
		InputType:        decl.InputType,
		OutputType:       decl.OutputType,
		Cardinality:      cardinality,
		ExecutionKind:    kind,
		Symbol:           symbol,
		InboundMapper:    mapper,
		OutboundMapper:   mapper,
		DeploymentRole:   role,
		Transport:        transport,
		CacheKeyStrategy: decl.CacheKey,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
