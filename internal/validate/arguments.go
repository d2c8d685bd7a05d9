// Package validate checks candidate argument payloads against loaded
// specifications. Validation is pure, synchronous and deterministic: the same
// spec and payload always produce the identical report, so a failed call is a
// recoverable generation event, never a process error.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"

	"specgate/internal/domain"
	"specgate/internal/spec"
)

// Policy controls how payload fields absent from the schema are treated.
type Policy string

const (
	// PolicyWarn reports unknown fields as warnings. The default: generative
	// output may include benign extras.
	PolicyWarn Policy = "warn"

	// PolicyReject upgrades unknown fields to errors.
	PolicyReject Policy = "reject"
)

// ParsePolicy maps a configuration string to a Policy, defaulting to warn.
func ParsePolicy(s string) Policy {
	if s == string(PolicyReject) {
		return PolicyReject
	}
	return PolicyWarn
}

// Resolver looks up a spec by (namespace, name). *registry.Registry satisfies it.
type Resolver interface {
	Lookup(namespace, name string) (*spec.Spec, error)
}

// Validator checks argument payloads against specs. The zero value uses the
// warn policy; construct with New for explicit configuration.
type Validator struct {
	UnknownFieldPolicy Policy
}

// New returns a Validator with the given unknown-field policy.
func New(policy Policy) *Validator {
	return &Validator{UnknownFieldPolicy: policy}
}

// Validate checks payload against sp's parameter schema and returns a report
// accumulating every finding. The report has no errors iff the payload
// conforms; warnings alone never block acceptance.
//
// Panics if sp has no object parameters node: such a spec cannot come out of
// the loader, so hitting this indicates a bug in the caller, not bad input.
func (v *Validator) Validate(sp *spec.Spec, payload map[string]any) domain.Report {
	if sp == nil || sp.Parameters == nil || sp.Parameters.Kind != spec.KindObject {
		panic("validate: spec was not produced by the loading path (parameters must be an object node)")
	}

	var rep domain.Report
	v.walk(sp.Parameters, payload, "$", &rep)
	return rep
}

// ValidateCall resolves the spec for a candidate call through r and validates
// its arguments. An unregistered (namespace, name) pair comes back as an
// error wrapping registry.ErrNotFound; the caller decides whether an unknown
// tool is fatal or a generation failure to retry.
func (v *Validator) ValidateCall(r Resolver, call domain.CallPayload) (domain.Report, error) {
	sp, err := r.Lookup(call.Namespace, call.Name)
	if err != nil {
		return domain.Report{}, err
	}
	return v.Validate(sp, call.Arguments), nil
}

// ParseCallPayload parses a candidate call from semi-structured JSON text.
// Malformed text is an error value, never a panic: payloads come from an
// untrusted generator.
func ParseCallPayload(data []byte) (domain.CallPayload, error) {
	var call domain.CallPayload
	if err := json.Unmarshal(data, &call); err != nil {
		return domain.CallPayload{}, fmt.Errorf("parse call payload: %w", err)
	}
	if call.Name == "" {
		return domain.CallPayload{}, fmt.Errorf("parse call payload: missing name")
	}
	return call, nil
}

// walk applies the validation algorithm to one node/value pair, appending
// findings to rep. It never short-circuits across siblings: all findings for
// the whole call accumulate into one report.
func (v *Validator) walk(node *spec.Node, value any, path string, rep *domain.Report) {
	observed := classify(value)
	if observed != node.Kind {
		rep.AddError(domain.KindTypeMismatch, path,
			fmt.Sprintf("expected %s, got %s", node.Kind, observed))
		// A mismatched value cannot be destructured further.
		return
	}

	switch node.Kind {
	case spec.KindObject:
		v.walkObject(node, value.(map[string]any), path, rep)
	case spec.KindArray:
		for i, elem := range value.([]any) {
			v.walk(node.Items, elem, fmt.Sprintf("%s[%d]", path, i), rep)
		}
	}
	// Leaf kinds are fully checked by classification.
}

func (v *Validator) walkObject(node *spec.Node, obj map[string]any, path string, rep *domain.Report) {
	// Required-field completeness runs first and unconditionally: one finding
	// per missing name, regardless of what else is wrong with siblings.
	required := make(map[string]bool, len(node.Required))
	for _, name := range node.Required {
		required[name] = true
		if val, ok := obj[name]; !ok || val == nil {
			rep.AddError(domain.KindMissingRequired, path+"."+name,
				fmt.Sprintf("required field %q is missing", name))
		}
	}

	// Payload keys in sorted order keep reports deterministic.
	for _, key := range sortedPayloadKeys(obj) {
		child, declared := node.Properties[key]
		if !declared {
			msg := fmt.Sprintf("field %q is not declared in the schema", key)
			if v.UnknownFieldPolicy == PolicyReject {
				rep.AddError(domain.KindUnknownField, path+"."+key, msg)
			} else {
				rep.AddWarning(domain.KindUnknownField, path+"."+key, msg)
			}
			continue
		}

		val := obj[key]
		if val == nil {
			// Required-and-nil was already reported as missing above. An
			// explicit null on an optional field is a kind mismatch.
			if !required[key] {
				rep.AddError(domain.KindTypeMismatch, path+"."+key,
					fmt.Sprintf("expected %s, got null", child.Kind))
			}
			continue
		}
		v.walk(child, val, path+"."+key, rep)
	}
}

// classify maps a JSON-like runtime value onto the five-kind vocabulary.
// Returns a non-Kind label ("null", "unknown") for values outside it, which
// never equals a declared kind and so always reads as a mismatch.
func classify(value any) spec.Kind {
	switch value.(type) {
	case map[string]any:
		return spec.KindObject
	case []any:
		return spec.KindArray
	case string:
		return spec.KindString
	case bool:
		return spec.KindBoolean
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		// Integer and real both satisfy the single number kind.
		return spec.KindNumber
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func sortedPayloadKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
