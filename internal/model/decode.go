package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNotObject is returned when a version document's root is not a JSON object.
var ErrNotObject = errors.New("model: document root is not an object")

// ignoredAttrs are serialization bookkeeping fields, not domain data.
var ignoredAttrs = map[string]bool{
	"__closure":          true,
	"totalChildrenCount": true,
}

// DecodeFile reads and decodes a version document from path.
func DecodeFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("model: read version %q: %w", path, err)
	}
	root, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("model: decode version %q: %w", path, err)
	}
	return root, nil
}

// Decode builds a node graph from a JSON object tree.
//
// Every JSON object becomes a Node; "id" and "speckle_type" are lifted onto
// the Node and every other member becomes an attribute. An object of the form
// {"referencedId": "<id>"} is a reference: it resolves to the node with that
// id anywhere in the document, which is how shared sub-trees and cycles are
// expressed. References to ids that never appear resolve to an empty node
// carrying that id.
func Decode(data []byte) (*Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("model: parse json: %w", err)
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	d := decoder{
		byID:   make(map[string]*Node),
		filled: make(map[*Node]bool),
	}
	root := d.object(obj)
	return root, nil
}

type decoder struct {
	byID   map[string]*Node
	filled map[*Node]bool
}

func (d *decoder) node(id string) *Node {
	if id == "" {
		return NewNode("")
	}
	if n, ok := d.byID[id]; ok {
		return n
	}
	n := NewNode(id)
	d.byID[id] = n
	return n
}

func (d *decoder) object(obj map[string]any) *Node {
	if ref, ok := obj[AttrReferencedID].(string); ok && isReference(obj) {
		return d.node(ref)
	}

	id, _ := obj[AttrID].(string)
	n := d.node(id)
	if d.filled[n] {
		return n
	}
	d.filled[n] = true

	if st, ok := obj[AttrSpeckleType].(string); ok {
		n.SpeckleType = st
	}
	for k, v := range obj {
		if k == AttrID || k == AttrSpeckleType || ignoredAttrs[k] {
			continue
		}
		n.Attrs[k] = d.value(v)
	}
	return n
}

// isReference distinguishes a bare reference from a full object that also
// happens to carry a referencedId member.
func isReference(obj map[string]any) bool {
	if st, _ := obj[AttrSpeckleType].(string); st == "reference" {
		return true
	}
	for k := range obj {
		if k != AttrReferencedID && k != AttrSpeckleType && !ignoredAttrs[k] {
			return false
		}
	}
	return true
}

func (d *decoder) value(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return String(x.String())
		}
		return Number(f)
	case string:
		return String(x)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = d.value(e)
		}
		return List(out...)
	case map[string]any:
		return NodeValue(d.object(x))
	}
	return String(fmt.Sprint(v))
}
