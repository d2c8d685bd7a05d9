package spec

import (
	"encoding/json"
	"fmt"

	invopopSchema "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// marshalFunc is the JSON marshaler used by ExportJSONSchema and FromStruct.
// Package-level so tests can inject a failing marshaler to cover the error
// return path.
var marshalFunc = func(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// ExportJSONSchema renders a Spec's parameter schema as a JSON Schema string,
// the shape LLM function-calling APIs expect for a tool definition.
func ExportJSONSchema(sp *Spec) (string, error) {
	if sp == nil || sp.Parameters == nil {
		return "", fmt.Errorf("export: spec has no parameters")
	}
	b, err := marshalFunc(schemaValue(sp.Parameters))
	if err != nil {
		return "", fmt.Errorf("export spec %q: %w", sp.Name, err)
	}
	return string(b), nil
}

// schemaValue converts a Node subtree into the generic map form json.Marshal
// renders with sorted keys, keeping exports byte-stable across runs.
func schemaValue(n *Node) map[string]any {
	m := map[string]any{"type": string(n.Kind)}
	if n.Description != "" {
		m["description"] = n.Description
	}
	switch n.Kind {
	case KindObject:
		props := make(map[string]any, len(n.Properties))
		for name, child := range n.Properties {
			props[name] = schemaValue(child)
		}
		m["properties"] = props
		if len(n.Required) > 0 {
			m["required"] = n.Required
		}
	case KindArray:
		if n.Items != nil {
			m["items"] = schemaValue(n.Items)
		}
	}
	return m
}

// CompileCheck compiles an exported schema string with a full JSON Schema
// implementation as a cross-check that the export is well-formed. It never
// runs on the validation hot path.
func CompileCheck(schemaStr string) error {
	if _, err := jsonschema.CompileString("", schemaStr); err != nil {
		return fmt.Errorf("exported schema does not compile: %w", err)
	}
	return nil
}

// FromStruct derives a raw specification document from a Go struct using
// invopop/jsonschema reflection, so Go programs can register native tools
// without hand-writing YAML. The result still goes through the normal
// ValidateDocument/Load path.
//
// Reflected "integer" types are folded into the "number" kind; schema
// vocabulary outside the recognized subset is dropped.
func FromStruct(name, description string, v any) (*Document, error) {
	reflector := invopopSchema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(v)

	b, err := marshalFunc(schema)
	if err != nil {
		return nil, fmt.Errorf("reflect %T: %w", v, err)
	}

	var root RawNode
	if err := json.Unmarshal(b, &root); err != nil {
		return nil, fmt.Errorf("reflect %T: %w", v, err)
	}
	normalizeRaw(&root)
	if root.Properties == nil {
		root.Properties = map[string]*RawNode{}
	}

	return &Document{
		Name:        name,
		Description: description,
		Parameters:  &root,
	}, nil
}

// normalizeRaw folds reflected types into the five-kind vocabulary.
func normalizeRaw(rn *RawNode) {
	if rn == nil {
		return
	}
	if rn.Type == "integer" {
		rn.Type = string(KindNumber)
	}
	for _, child := range rn.Properties {
		normalizeRaw(child)
	}
	normalizeRaw(rn.Items)
}
