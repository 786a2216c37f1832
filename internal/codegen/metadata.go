package codegen

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pipelineframework/corepipe/internal/ir"
	"github.com/pipelineframework/corepipe/internal/orderexpander"
)

// OrderDescriptor is the serialized form of the effective step order
// written as the "order" metadata file.
type OrderDescriptor struct {
	Steps []string `json:"steps"`
}

// TelemetryDescriptor is one step's per-step telemetry metadata.
type TelemetryDescriptor struct {
	Name          string `json:"name"`
	Cardinality   string `json:"cardinality"`
	ExecutionKind string `json:"executionKind"`
	Transport     string `json:"transport"`
}

// ClientEndpoint is one entry of the "clients" endpoint table.
type ClientEndpoint struct {
	StepName  string `json:"stepName"`
	Transport string `json:"transport"`
	Endpoint  string `json:"endpoint"`
}

// syntheticExecutionKind is the telemetry ExecutionKind recorded for a
// synthetic side-effect client step: it always invokes an external
// transport, the same as a DELEGATED base step.
const syntheticExecutionKind = "SYNTHETIC"

// BuildOrderDescriptor renders the effective order metadata file body:
// an ordered list of step class names, base steps and synthetic
// side-effect client steps alike.
func BuildOrderDescriptor(effective []orderexpander.EffectiveStep) ([]byte, error) {
	desc := OrderDescriptor{Steps: orderexpander.Names(effective)}
	return json.MarshalIndent(desc, "", "  ")
}

// BuildTelemetryDescriptors renders per-entry telemetry metadata for
// the effective order.
func BuildTelemetryDescriptors(effective []orderexpander.EffectiveStep) ([]byte, error) {
	descriptors := make([]TelemetryDescriptor, 0, len(effective))
	for _, e := range effective {
		if e.Synthetic != nil {
			descriptors = append(descriptors, TelemetryDescriptor{
				Name:          e.Synthetic.ClassName,
				Cardinality:   syntheticExecutionKind,
				ExecutionKind: syntheticExecutionKind,
				Transport:     string(e.Synthetic.Transport),
			})
			continue
		}
		s := e.Step
		descriptors = append(descriptors, TelemetryDescriptor{
			Name:          s.Name,
			Cardinality:   string(s.Cardinality),
			ExecutionKind: string(s.ExecutionKind),
			Transport:     string(s.Transport),
		})
	}
	return json.MarshalIndent(descriptors, "", "  ")
}

// BuildClientEndpointTable renders the "clients" metadata file body as
// a `.properties` key=value table: every DELEGATED
// base step plus every synthetic side-effect step in the effective
// order, since both invoke an external transport. endpointFor resolves
// a base step's endpoint; synthetic steps have no bound descriptor-set
// endpoint and are recorded with an empty one. Each step contributes
// two properties, `<stepName>.transport` and `<stepName>.endpoint`.
func BuildClientEndpointTable(effective []orderexpander.EffectiveStep, endpointFor func(*ir.StepModel) string) ([]byte, error) {
	table := make([]ClientEndpoint, 0, len(effective))
	for _, e := range effective {
		if e.Synthetic != nil {
			table = append(table, ClientEndpoint{
				StepName:  e.Synthetic.ClassName,
				Transport: string(e.Synthetic.Transport),
			})
			continue
		}
		s := e.Step
		if s.ExecutionKind != ir.Delegated {
			continue
		}
		table = append(table, ClientEndpoint{
			StepName:  s.Name,
			Transport: string(s.Transport),
			Endpoint:  endpointFor(s),
		})
	}
	return marshalProperties(table), nil
}

// marshalProperties renders a client endpoint table as sorted
// `key=value` lines, the format a `.properties` consumer expects.
// Entries are sorted by step name so output is deterministic.
func marshalProperties(table []ClientEndpoint) []byte {
	sort.Slice(table, func(i, j int) bool { return table[i].StepName < table[j].StepName })

	var b strings.Builder
	for _, e := range table {
		fmt.Fprintf(&b, "%s.transport=%s\n", escapePropertyKey(e.StepName), e.Transport)
		fmt.Fprintf(&b, "%s.endpoint=%s\n", escapePropertyKey(e.StepName), escapePropertyValue(e.Endpoint))
	}
	return []byte(b.String())
}

// escapePropertyKey escapes characters significant to the `.properties`
// key grammar (`=`, `:`, whitespace) with a backslash.
func escapePropertyKey(key string) string {
	replacer := strings.NewReplacer(" ", `\ `, "=", `\=`, ":", `\:`)
	return replacer.Replace(key)
}

// escapePropertyValue escapes newlines in a `.properties` value so a
// multi-line endpoint string cannot break the line-oriented format.
func escapePropertyValue(value string) string {
	return strings.ReplaceAll(value, "\n", `\n`)
}
