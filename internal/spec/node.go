// Package spec defines the in-memory model of a callable function
// specification and turns raw declarative documents into validated,
// immutable Spec values.
package spec

// Kind is the closed vocabulary of type kinds a schema node may declare.
// The set is fixed: switches over Kind should enumerate every case.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
)

// Valid reports whether k is one of the five recognized kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindObject, KindArray, KindString, KindNumber, KindBoolean:
		return true
	}
	return false
}

// Node is one node in a parameter schema tree. Nodes are built once at load
// time and never mutated afterwards; the tree is acyclic by construction since
// it is parsed from tree-shaped documents.
type Node struct {
	Kind        Kind
	Description string

	// Properties and Required are set for object nodes only. Every name in
	// Required references a key in Properties (enforced at meta validation).
	Properties map[string]*Node
	Required   []string

	// Items is set for array nodes only: one node describing every element.
	Items *Node
}

// =============================================================================
// Builders
// =============================================================================

// Object returns an object node with the given properties and required names.
func Object(props map[string]*Node, required ...string) *Node {
	return &Node{Kind: KindObject, Properties: props, Required: required}
}

// Array returns an array node whose elements all match items.
func Array(items *Node) *Node {
	return &Node{Kind: KindArray, Items: items}
}

// String returns a string node with an optional description.
func String(description string) *Node {
	return &Node{Kind: KindString, Description: description}
}

// Number returns a number node. Integers and reals both satisfy it.
func Number(description string) *Node {
	return &Node{Kind: KindNumber, Description: description}
}

// Boolean returns a boolean node.
func Boolean(description string) *Node {
	return &Node{Kind: KindBoolean, Description: description}
}
