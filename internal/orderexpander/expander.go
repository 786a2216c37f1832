// Package orderexpander computes the effective step order from a base
// linear order plus the enabled aspect set. Expansion is a pure
// transformation: aspects never execute here, they only cause
// synthetic steps to exist in the returned order.
package orderexpander

import (
	"strings"

	"github.com/pipelineframework/corepipe/internal/ir"
)

// EffectiveStep is one entry of the expanded order: either a base step
// (Synthetic == nil) or a synthetic client step inserted by a matching
// aspect.
type EffectiveStep struct {
	Step      *ir.StepModel
	Synthetic *SyntheticStep
}

// SyntheticStep describes a generated client step invoking an aspect's
// out-of-band side effect.
type SyntheticStep struct {
	ClassName string
	Aspect    *ir.Aspect
	TypeName  string // the domain type the aspect operates on
	Transport ir.Transport
}

// Names returns the effective order as an ordered list of step class
// names: a base step's declared Name, or a synthetic step's
// deterministic ClassName. This is the list written to the "order"
// metadata file.
func Names(effective []EffectiveStep) []string {
	names := make([]string, 0, len(effective))
	for _, e := range effective {
		if e.Synthetic != nil {
			names = append(names, e.Synthetic.ClassName)
			continue
		}
		names = append(names, e.Step.Name)
	}
	return names
}

// transportClientSuffix maps a Transport to the suffix used in the
// synthetic client class name.
func transportClientSuffix(t ir.Transport) string {
	switch t {
	case ir.TransportGRPC:
		return "GrpcClientStep"
	case ir.TransportREST:
		return "RestClientStep"
	default:
		return "LocalClientStep"
	}
}

// syntheticClassName builds the deterministic
// <Pascal(aspectName)><TypeNameWithoutDtoSuffix>SideEffect<Suffix> name.
func syntheticClassName(aspectName, typeName string, transport ir.Transport) string {
	base := pascalCase(aspectName) + trimDtoSuffix(typeName) + "SideEffect"
	return base + transportClientSuffix(transport)
}

func pascalCase(s string) string {
	if s == "" {
		return s
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	if b.Len() == 0 {
		return strings.ToUpper(s[:1]) + s[1:]
	}
	return b.String()
}

func trimDtoSuffix(typeName string) string {
	return strings.TrimSuffix(typeName, "Dto")
}

// domainType resolves the type an aspect should operate against for
// position relative to step s: BEFORE uses s's input type, AFTER uses
// s's output type.
func domainType(a *ir.Aspect, s *ir.StepModel) string {
	if a.Position == ir.PositionBefore {
		return s.InputType
	}
	return s.OutputType
}

// Expand computes the effective order. baseOrder must already be in
// declared order; aspects is the full enabled-or-disabled aspect set
// (disabled aspects are skipped). Expansion is idempotent: if
// baseOrder already contains synthetic entries (detected by a step whose
// DeploymentRole is RoleSynthetic), Expand returns it unchanged.
func Expand(baseOrder []*ir.StepModel, aspects []*ir.Aspect) []EffectiveStep {
	if containsSynthetic(baseOrder) {
		out := make([]EffectiveStep, len(baseOrder))
		for i, s := range baseOrder {
			out[i] = EffectiveStep{Step: s}
		}
		return out
	}

	before := make([]*ir.Aspect, 0)
	after := make([]*ir.Aspect, 0)
	for _, a := range aspects {
		if !a.Enabled {
			continue
		}
		switch a.Position {
		case ir.PositionBefore:
			before = append(before, a)
		case ir.PositionAfter:
			after = append(after, a)
		}
	}

	seen := make(map[string]bool) // dedup key: aspectName + ":" + typeName
	var effective []EffectiveStep

	for _, s := range baseOrder {
		for _, a := range before {
			if !a.MatchesStep(s.Name) {
				continue
			}
			typeName := domainType(a, s)
			key := a.Name + ":" + typeName
			if seen[key] {
				continue
			}
			seen[key] = true
			effective = append(effective, EffectiveStep{Synthetic: &SyntheticStep{
				ClassName: syntheticClassName(a.Name, typeName, s.Transport),
				Aspect:    a,
				TypeName:  typeName,
				Transport: s.Transport,
			}})
		}

		effective = append(effective, EffectiveStep{Step: s})

		for _, a := range after {
			if !a.MatchesStep(s.Name) {
				continue
			}
			typeName := domainType(a, s)
			key := a.Name + ":" + typeName
			if seen[key] {
				continue
			}
			seen[key] = true
			effective = append(effective, EffectiveStep{Synthetic: &SyntheticStep{
				ClassName: syntheticClassName(a.Name, typeName, s.Transport),
				Aspect:    a,
				TypeName:  typeName,
				Transport: s.Transport,
			}})
		}
	}

	return effective
}

func containsSynthetic(order []*ir.StepModel) bool {
	for _, s := range order {
		if s.DeploymentRole == ir.RoleSynthetic {
			return true
		}
	}
	return false
}
