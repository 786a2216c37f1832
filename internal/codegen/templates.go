package codegen

import (
	"strings"
	"text/template"

	"github.com/pipelineframework/corepipe/internal/ir"
)

func pascal(s string) string {
	if s == "" {
		return s
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || r == ' ' })
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

func streamsIn(c ir.Cardinality) bool {
	return c == ir.ManyOne || c == ir.ManyMany
}

func streamsOut(c ir.Cardinality) bool {
	return c == ir.OneMany || c == ir.ManyMany
}

var funcMap = template.FuncMap{
	"pascal":     pascal,
	"streamsIn":  streamsIn,
	"streamsOut": streamsOut,
}

var serverHandlerTemplate = template.Must(template.New("server_handler").Funcs(funcMap).Parse(`// Code generated by the pipeline compiler. DO NOT EDIT.
package {{.BasePackage}}

import (
	"context"
	"encoding/json"
	"fmt"
{{if eq (print .Step.Transport) "GRPC"}}
	"google.golang.org/grpc"
{{else if eq (print .Step.Transport) "REST"}}
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
{{end}})

// {{pascal .Step.Name}}Handler invokes {{.Step.Symbol}} for the {{.Step.Name}} step.
type {{pascal .Step.Name}}Handler struct {
	Service {{pascal .Step.Name}}Service
{{if eq (print .Step.Transport) "GRPC"}}
	Registrar grpc.ServiceRegistrar
{{else if eq (print .Step.Transport) "REST"}}
	Router chi.Router
	API    huma.API
{{end}}}

// {{pascal .Step.Name}}Service is the user-owned implementation this handler dispatches to.
type {{pascal .Step.Name}}Service interface {
{{if streamsIn .Step.Cardinality}}	Handle(ctx context.Context, input <-chan {{.Step.InputType}}) {{if streamsOut .Step.Cardinality}}<-chan {{.Step.OutputType}}{{else}}({{.Step.OutputType}}, error){{end}}
{{else}}	Handle(ctx context.Context, input {{.Step.InputType}}) {{if streamsOut .Step.Cardinality}}<-chan {{.Step.OutputType}}{{else}}({{.Step.OutputType}}, error){{end}}
{{end}}}

// Serve decodes wire, maps to domain, invokes Service for {{.Step.Name}},
// and maps the result back to wire, honoring the step's cardinality.
func (h *{{pascal .Step.Name}}Handler) Serve(ctx context.Context, wire []byte) ([]byte, error) {
{{if streamsIn .Step.Cardinality}}	var items []{{.Step.InputType}}
	if err := json.Unmarshal(wire, &items); err != nil {
		return nil, fmt.Errorf("{{.Step.Name}}: decoding input batch: %w", err)
	}
	input := make(chan {{.Step.InputType}}, len(items))
	for _, item := range items {
		input <- item
	}
	close(input)
{{else}}	var input {{.Step.InputType}}
	if err := json.Unmarshal(wire, &input); err != nil {
		return nil, fmt.Errorf("{{.Step.Name}}: decoding input: %w", err)
	}
{{end}}
{{if streamsOut .Step.Cardinality}}	outCh := h.Service.Handle(ctx, input)
	outputs := make([]{{.Step.OutputType}}, 0)
	for out := range outCh {
		outputs = append(outputs, out)
	}
	reply, err := json.Marshal(outputs)
	if err != nil {
		return nil, fmt.Errorf("{{.Step.Name}}: encoding output batch: %w", err)
	}
	return reply, nil
{{else}}	output, err := h.Service.Handle(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("{{.Step.Name}}: handling request: %w", err)
	}
	reply, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("{{.Step.Name}}: encoding output: %w", err)
	}
	return reply, nil
{{end}}}
`))

var clientStepTemplate = template.Must(template.New("client_step").Funcs(funcMap).Parse(`// Code generated by the pipeline compiler. DO NOT EDIT.
package {{.BasePackage}}

import (
	"context"
{{if not .Step.OutboundMapper}}	"encoding/json"
{{end}}	"fmt"
{{if eq (print .Step.Transport) "GRPC"}}
	"google.golang.org/grpc"
{{else if eq (print .Step.Transport) "REST"}}
	"bytes"
	"io"
	"net/http"

	"github.com/pipelineframework/corepipe/pkg/httpclient"
{{else if eq (print .Step.Transport) "FUNCTION"}}
	"github.com/pipelineframework/corepipe/pkg/functiontransport"
{{end}})

// {{pascal .Step.Name}}ClientStep invokes {{.Step.Name}} over {{.Step.Transport}}.
type {{pascal .Step.Name}}ClientStep struct {
	Endpoint string
{{if eq (print .Step.Transport) "GRPC"}}
	Conn *grpc.ClientConn
{{else if eq (print .Step.Transport) "REST"}}
	Client *httpclient.Client
{{else if eq (print .Step.Transport) "FUNCTION"}}
	// Local handles an invocation.mode=LOCAL dispatch in-process.
	Local func(ctx context.Context, wire []byte) ([]byte, error)
	// Remote handles an invocation.mode=REMOTE dispatch against the
	// target named by the FUNCTION Transport Contract metadata.
	Remote func(ctx context.Context, target functiontransport.Target, wire []byte) ([]byte, error)
{{end}}}

// Invoke maps input to wire, dispatches {{.Step.Name}} over {{.Step.Transport}},
// and maps the reply back to {{.Step.OutputType}}.
func (c *{{pascal .Step.Name}}ClientStep) Invoke(ctx context.Context, input {{.Step.InputType}}) ({{.Step.OutputType}}, error) {
	var zero {{.Step.OutputType}}

{{if .Step.OutboundMapper}}	wire, err := ({{.Step.OutboundMapper}}{}).ToWire(input)
{{else}}	wire, err := json.Marshal(input)
{{end}}	if err != nil {
		return zero, fmt.Errorf("{{.Step.Name}}: encoding input: %w", err)
	}

{{if eq (print .Step.Transport) "GRPC"}}	var reply []byte
	if err := c.Conn.Invoke(ctx, "/{{.BasePackage}}.{{pascal .Step.Name}}Service/Invoke", wire, &reply); err != nil {
		return zero, fmt.Errorf("{{.Step.Name}}: grpc invoke: %w", err)
	}
{{else if eq (print .Step.Transport) "REST"}}	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(wire))
	if err != nil {
		return zero, fmt.Errorf("{{.Step.Name}}: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.DoWithContext(ctx, req)
	if err != nil {
		return zero, fmt.Errorf("{{.Step.Name}}: rest invoke: %w", err)
	}
	defer resp.Body.Close()
	reply, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("{{.Step.Name}}: reading response: %w", err)
	}
{{else if eq (print .Step.Transport) "FUNCTION"}}	md, err := functiontransport.ParseMetadata(functiontransport.MetadataFromContext(ctx))
	if err != nil {
		return zero, fmt.Errorf("{{.Step.Name}}: %w", err)
	}
	reply, err := functiontransport.Dispatch(ctx, md,
		func(ctx context.Context) ([]byte, error) {
			if c.Local == nil {
				return nil, fmt.Errorf("{{.Step.Name}}: no local handler configured")
			}
			return c.Local(ctx, wire)
		},
		func(ctx context.Context, target functiontransport.Target) ([]byte, error) {
			if c.Remote == nil {
				return nil, fmt.Errorf("{{.Step.Name}}: no remote dispatcher configured")
			}
			return c.Remote(ctx, target, wire)
		},
	)
	if err != nil {
		return zero, fmt.Errorf("{{.Step.Name}}: %w", err)
	}
{{else}}	reply := wire
{{end}}
{{if .Step.InboundMapper}}	output, err := ({{.Step.InboundMapper}}{}).FromWire(reply)
	if err != nil {
		return zero, fmt.Errorf("{{.Step.Name}}: decoding output: %w", err)
	}
	return output, nil
{{else}}	var output {{.Step.OutputType}}
	if err := json.Unmarshal(reply, &output); err != nil {
		return zero, fmt.Errorf("{{.Step.Name}}: decoding output: %w", err)
	}
	return output, nil
{{end}}}
`))

var orchestratorStubTemplate = template.Must(template.New("orchestrator_stub").Funcs(funcMap).Parse(`// Code generated by the pipeline compiler. DO NOT EDIT.
package {{.BasePackage}}

// EffectiveOrder lists the client steps in execution order, including
// synthetic side-effect steps inserted by enabled aspects.
var EffectiveOrder = []string{
{{range .OrderNames}}	"{{.}}",
{{end}}}
`))

var schemaFragmentTemplate = template.Must(template.New("schema_fragment").Funcs(funcMap).Parse(`// Code generated by the pipeline compiler. DO NOT EDIT.
syntax = "proto3";
package {{.BasePackage}};

message {{.Step.InputType}} {}
message {{.Step.OutputType}} {}

service {{pascal .Step.Name}}Service {
	rpc Invoke ({{if streamsIn .Step.Cardinality}}stream {{end}}{{.Step.InputType}}) returns ({{if streamsOut .Step.Cardinality}}stream {{end}}{{.Step.OutputType}});
}
`))
