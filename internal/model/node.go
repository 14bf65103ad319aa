package model

import "sort"

// Well-known attribute names.
const (
	AttrID           = "id"
	AttrSpeckleType  = "speckle_type"
	AttrParameters   = "parameters"
	AttrDefinition   = "definition"
	AttrDisplayValue = "displayValue"
	AttrName         = "name"
	AttrValue        = "value"
	AttrCategory     = "category"
	AttrReferencedID = "referencedId"
	LegacyAttrPrefix = "@"
)

// Node is a single domain object. ID is empty for objects the platform did
// not assign an identifier to; such nodes can be traversed but never
// annotated.
type Node struct {
	ID          string
	SpeckleType string
	Attrs       map[string]Value
}

// NewNode creates a node with the given ID and no attributes.
func NewNode(id string) *Node {
	return &Node{ID: id, Attrs: make(map[string]Value)}
}

// Set adds or replaces an attribute and returns n for chaining.
// Values are converted with Of.
func (n *Node) Set(name string, v any) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]Value)
	}
	n.Attrs[name] = Of(v)
	return n
}

// Get returns the attribute value and whether the attribute exists.
// An attribute set to Null exists.
func (n *Node) Get(name string) (Value, bool) {
	if n == nil {
		return Value{}, false
	}
	v, ok := n.Attrs[name]
	return v, ok
}

// Names returns the attribute names in sorted order.
func (n *Node) Names() []string {
	names := make([]string, 0, len(n.Attrs))
	for k := range n.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Definition returns the shared type/pattern object an instance delegates
// to, or nil.
func (n *Node) Definition() *Node {
	v, _ := n.Get(AttrDefinition)
	d, _ := v.AsNode()
	return d
}

// Parameters returns the parameter bag, or nil when the node has none.
func (n *Node) Parameters() *Node {
	v, _ := n.Get(AttrParameters)
	p, _ := v.AsNode()
	return p
}

// IsParameterRecord reports whether n looks like a named parameter: it
// carries a "name" or a "value" attribute of its own.
func (n *Node) IsParameterRecord() bool {
	if n == nil {
		return false
	}
	_, hasName := n.Attrs[AttrName]
	_, hasValue := n.Attrs[AttrValue]
	return hasName || hasValue
}

// RecordName returns the record's "name" attribute as a string.
func (n *Node) RecordName() (string, bool) {
	v, ok := n.Get(AttrName)
	if !ok {
		return "", false
	}
	return v.AsString()
}

// RecordValue returns the record's "value" attribute (Null when absent).
func (n *Node) RecordValue() Value {
	v, _ := n.Get(AttrValue)
	return v
}

// Children returns the nodes directly referenced by n's attributes, in
// sorted attribute order, list elements in order (nested lists included).
func (n *Node) Children() []*Node {
	var out []*Node
	for _, name := range n.Names() {
		out = appendNodes(out, n.Attrs[name])
	}
	return out
}

func appendNodes(out []*Node, v Value) []*Node {
	switch v.kind {
	case KindNode:
		return append(out, v.node)
	case KindList:
		for _, e := range v.list {
			out = appendNodes(out, e)
		}
	}
	return out
}

// IDs returns the identifiers of nodes, preserving order.
func IDs(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}
