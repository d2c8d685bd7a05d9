package spec

import (
	"fmt"
	"sort"

	"specgate/internal/domain"
)

// maxNameLength is the strict common subset accepted by provider
// function-calling APIs.
const maxNameLength = 64

// ValidateDocument checks one raw specification document against the
// meta-schema. It is pure and accumulates every violation it finds rather than
// stopping at the first, so a single load attempt reports every problem.
// The document is loadable iff the returned report has no errors.
func ValidateDocument(doc *Document) domain.Report {
	var rep domain.Report
	if doc == nil {
		rep.AddError(domain.KindSpecInvalid, "$", "document is empty")
		return rep
	}

	if doc.Name == "" {
		rep.AddError(domain.KindSpecInvalid, "$.name", "name is required and must be a non-empty string")
	} else if err := checkName(doc.Name); err != nil {
		rep.AddError(domain.KindSpecInvalid, "$.name", err.Error())
	}

	if doc.Description == "" {
		rep.AddError(domain.KindSpecInvalid, "$.description", "description is required")
	}

	if doc.Parameters == nil {
		rep.AddError(domain.KindSpecInvalid, "$.parameters", "parameters is required")
		return rep
	}
	if doc.Parameters.Type != string(KindObject) {
		rep.AddError(domain.KindSpecInvalid, "$.parameters",
			fmt.Sprintf("parameters must have type %q, got %q", KindObject, doc.Parameters.Type))
	}

	validateNode(doc.Parameters, "$.parameters", &rep)
	return rep
}

// validateNode recursively checks one RawNode subtree, appending findings to rep.
func validateNode(rn *RawNode, path string, rep *domain.Report) {
	kind := Kind(rn.Type)
	if !kind.Valid() {
		rep.AddError(domain.KindSpecInvalid, path,
			fmt.Sprintf("unrecognized type %q (want object, array, string, number or boolean)", rn.Type))
		// Shape checks below depend on the kind; nothing more to say here.
		return
	}

	switch kind {
	case KindObject:
		if rn.Properties == nil {
			rep.AddError(domain.KindSpecInvalid, path, "object node must declare properties (may be empty)")
		}
		for _, name := range rn.Required {
			if _, ok := rn.Properties[name]; !ok {
				rep.AddError(domain.KindSpecInvalid, path,
					fmt.Sprintf("required field %q is not declared in properties", name))
			}
		}
		for _, name := range sortedKeys(rn.Properties) {
			validateNode(rn.Properties[name], path+"."+name, rep)
		}
	case KindArray:
		if rn.Items == nil {
			rep.AddError(domain.KindSpecInvalid, path, "array node must declare items")
		} else {
			validateNode(rn.Items, path+".items", rep)
		}
	}
}

// checkName enforces the portable naming subset: a letter followed by
// letters, digits, underscores, hyphens or spaces, at most 64 characters.
func checkName(name string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("name too long: %d > %d", len(name), maxNameLength)
	}
	b0 := name[0]
	if !isLetter(b0) {
		return fmt.Errorf("invalid name %q: must start with a letter", name)
	}
	for i := 1; i < len(name); i++ {
		b := name[i]
		if isLetter(b) || (b >= '0' && b <= '9') || b == '_' || b == '-' || b == ' ' {
			continue
		}
		return fmt.Errorf("invalid name %q: invalid character %q", name, string(b))
	}
	return nil
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// sortedKeys returns map keys in lexical order so findings come out in a
// deterministic, reproducible order.
func sortedKeys(m map[string]*RawNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
