// Package mapper implements the bijective Wire/Dto/Domain conversion
// layer. Wire is the serialized form (JSON by default), Dto is a
// validated record, Domain carries the step's business invariants.
package mapper

import (
	"encoding/json"
	"strings"

	"github.com/pipelineframework/corepipe/internal/errs"
)

// Mapper is the bijective capability set a step's declared mapper
// symbol must satisfy.
type Mapper[Wire, Dto, Domain any] interface {
	FromWire(wire Wire) (Dto, error)
	ToWire(dto Dto) (Wire, error)
	FromDto(dto Dto) (Domain, error)
	ToDto(domain Domain) (Dto, error)
}

// JSONFunc is a Mapper built from JSON-encoded wire values plus
// caller-supplied Dto<->Domain conversion functions. Wire is always
// []byte; the empty byte slice is the canonical representation of
// "absent" and parses to the zero Dto rather than an error.
type JSONFunc[Dto, Domain any] struct {
	FromDtoFn func(Dto) (Domain, error)
	ToDtoFn   func(Domain) (Dto, error)
}

func (m JSONFunc[Dto, Domain]) FromWire(wire []byte) (Dto, error) {
	var dto Dto
	if len(strings.TrimSpace(string(wire))) == 0 {
		return dto, nil
	}
	if err := json.Unmarshal(wire, &dto); err != nil {
		return dto, errs.NewInvalidInput("wire", "unparseable wire payload: "+err.Error())
	}
	return dto, nil
}

func (m JSONFunc[Dto, Domain]) ToWire(dto Dto) ([]byte, error) {
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, errs.NewInvalidInput("dto", "unserializable dto: "+err.Error())
	}
	return data, nil
}

func (m JSONFunc[Dto, Domain]) FromDto(dto Dto) (Domain, error) {
	return m.FromDtoFn(dto)
}

func (m JSONFunc[Dto, Domain]) ToDto(domain Domain) (Dto, error) {
	return m.ToDtoFn(domain)
}

// Identity is a Mapper where Dto and Domain are the same type.
// FromDto and ToDto return their input unchanged; FromWire and ToWire
// JSON-decode and JSON-encode, with blank wire parsing to the zero
// value.
type Identity[T any] struct{}

func (Identity[T]) FromWire(wire []byte) (T, error) {
	var dto T
	if len(strings.TrimSpace(string(wire))) == 0 {
		return dto, nil
	}
	err := json.Unmarshal(wire, &dto)
	if err != nil {
		return dto, errs.NewInvalidInput("wire", "unparseable wire payload: "+err.Error())
	}
	return dto, nil
}

func (Identity[T]) ToWire(dto T) ([]byte, error) {
	data, err := json.Marshal(dto)
	if err != nil {
		return nil, errs.NewInvalidInput("dto", "unserializable dto: "+err.Error())
	}
	return data, nil
}

func (Identity[T]) FromDto(dto T) (T, error) { return dto, nil }
func (Identity[T]) ToDto(domain T) (T, error) { return domain, nil }
