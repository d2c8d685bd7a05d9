package spec

// Spec is one loaded function specification. Specs are created by the loader,
// are immutable afterwards, and live for the lifetime of the registry holding
// them. Construct test fixtures with New; production Specs come out of Load.
type Spec struct {
	Namespace   string
	Name        string
	Description string

	// Parameters is the top-level argument schema. Always an object node;
	// the loader rejects documents whose parameters are anything else.
	Parameters *Node
}

// New builds a Spec directly from an already-shaped parameters node. It is
// intended for tests and for Go-native registration via FromStruct; documents
// read from disk go through Load instead.
func New(namespace, name, description string, parameters *Node) *Spec {
	return &Spec{
		Namespace:   namespace,
		Name:        name,
		Description: description,
		Parameters:  parameters,
	}
}

// Required returns a copy of the top-level required field names.
func (s *Spec) Required() []string {
	if s.Parameters == nil || len(s.Parameters.Required) == 0 {
		return nil
	}
	out := make([]string, len(s.Parameters.Required))
	copy(out, s.Parameters.Required)
	return out
}

// =============================================================================
// Raw document shape
// =============================================================================

// Document is the raw declarative form of one specification, as found in
// YAML or JSON source files, before meta validation.
type Document struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Parameters  *RawNode `yaml:"parameters" json:"parameters"`
}

// RawNode mirrors Node but with loose, unvalidated fields straight from the
// document. ValidateDocument checks it; compile converts it to a Node.
type RawNode struct {
	Type        string              `yaml:"type" json:"type"`
	Description string              `yaml:"description,omitempty" json:"description,omitempty"`
	Properties  map[string]*RawNode `yaml:"properties,omitempty" json:"properties,omitempty"`
	Required    []string            `yaml:"required,omitempty" json:"required,omitempty"`
	Items       *RawNode            `yaml:"items,omitempty" json:"items,omitempty"`
}

// compile converts a validated RawNode tree into the immutable Node form.
// Callers must have run ValidateDocument first.
func (rn *RawNode) compile() *Node {
	n := &Node{
		Kind:        Kind(rn.Type),
		Description: rn.Description,
	}
	if len(rn.Properties) > 0 {
		n.Properties = make(map[string]*Node, len(rn.Properties))
		for name, child := range rn.Properties {
			n.Properties[name] = child.compile()
		}
	} else if n.Kind == KindObject {
		n.Properties = map[string]*Node{}
	}
	if len(rn.Required) > 0 {
		n.Required = make([]string, len(rn.Required))
		copy(n.Required, rn.Required)
	}
	if rn.Items != nil {
		n.Items = rn.Items.compile()
	}
	return n
}
