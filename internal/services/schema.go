package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Schema is a named JSON schema a structured reply must match.
type Schema struct {
	Name       string
	Definition *jsonschema.Schema
	resolved   *jsonschema.Resolved
}

// NewSchema infers a schema from T. customize, when non-nil, may adjust the
// inferred definition (enums, descriptions) before it is resolved.
func NewSchema[T any](name string, customize func(*jsonschema.Schema)) (*Schema, error) {
	def, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to infer schema %s: %w", name, err)
	}
	allowNullArrays(def)
	if customize != nil {
		customize(def)
	}
	resolved, err := def.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema %s: %w", name, err)
	}
	return &Schema{Name: name, Definition: def, resolved: resolved}, nil
}

// allowNullArrays lets every array property be null, since Go encodes nil
// slices as null.
func allowNullArrays(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	if s.Type == "array" {
		s.Type = ""
		s.Types = []string{"null", "array"}
	}
	for _, prop := range s.Properties {
		allowNullArrays(prop)
	}
	allowNullArrays(s.Items)
}

// JSON returns the definition as a raw JSON document.
func (s *Schema) JSON() (json.RawMessage, error) {
	data, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema %s: %w", s.Name, err)
	}
	return data, nil
}

// Validate checks a decoded JSON instance against the schema.
func (s *Schema) Validate(instance any) error {
	if err := s.resolved.Validate(instance); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaViolation, s.Name, err)
	}
	return nil
}

// Decode parses resp as JSON, validates it against schema and unmarshals it
// into out. The text is used as returned; nothing is repaired.
func Decode(resp *Response, schema *Schema, out any) error {
	if resp == nil {
		return fmt.Errorf("%w: empty response", ErrSchemaViolation)
	}
	var instance any
	if err := json.Unmarshal([]byte(resp.Text), &instance); err != nil {
		return fmt.Errorf("%w: %s: invalid JSON: %v", ErrSchemaViolation, schemaName(schema), err)
	}
	if schema != nil {
		if err := schema.Validate(instance); err != nil {
			return err
		}
	}
	if err := json.Unmarshal([]byte(resp.Text), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaViolation, schemaName(schema), err)
	}
	return nil
}

// GenerateInto performs one schema-shaped call and decodes the reply into out.
func GenerateInto(ctx context.Context, gen Generator, req Request, out any) error {
	if req.Schema == nil {
		return errors.New("structured request without schema")
	}
	resp, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	return Decode(resp, req.Schema, out)
}

func schemaName(s *Schema) string {
	if s == nil {
		return "response"
	}
	return s.Name
}
