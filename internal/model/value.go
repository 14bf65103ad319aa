// Package model holds the read-only object graph that rules are evaluated
// against: nodes, their attribute values, and graph flattening.
//
// A version received from the platform is a tree of objects. Objects may be
// shared between several parents (and, through references, may even form
// cycles). The engine never mutates the graph; it reads attributes and emits
// annotations keyed by node ID.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags which field of a Value is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindNode
	KindList
)

var kindNames = [...]string{"null", "bool", "number", "string", "node", "list"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is an attribute value. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	node *Node
	list []Value
}

func Null() Value            { return Value{} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value  { return Value{kind: KindString, s: s} }
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

func NodeValue(n *Node) Value {
	if n == nil {
		return Null()
	}
	return Value{kind: KindNode, node: n}
}

// Of converts a Go value into a Value. Supported inputs are nil, bool,
// integer and float types, string, *Node, Value, []Value and []any.
// Anything else is rendered with fmt and stored as a string.
func Of(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case float32:
		return Number(float64(x))
	case float64:
		return Number(x)
	case string:
		return String(x)
	case *Node:
		return NodeValue(x)
	case []Value:
		return List(x...)
	case []any:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = Of(e)
		}
		return List(out...)
	default:
		return String(fmt.Sprint(x))
	}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsNumber() bool { return v.kind == KindNumber }

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) AsNode() (*Node, bool) {
	return v.node, v.kind == KindNode
}

func (v Value) AsList() ([]Value, bool) {
	return v.list, v.kind == KindList
}

// Text renders the value the way it is shown in messages and matched by
// string predicates. Whole numbers print without a fractional part.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindString:
		return v.s
	case KindNode:
		if v.node.ID != "" {
			return v.node.ID
		}
		return v.node.SpeckleType
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.Text()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return ""
}

func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	if v.kind == KindNull {
		return "null"
	}
	return v.Text()
}

// Equal reports exact equality. Values of different kinds are never equal,
// so the string "1" does not equal the number 1 and true does not equal 1.
// Nodes compare by identity.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindNode:
		return a.node == b.node
	case KindList:
		if len(a.list) != len(b.list) {
			return false
		}
		for i := range a.list {
			if !Equal(a.list[i], b.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Contains reports whether v equals any element of set.
func Contains(set []Value, v Value) bool {
	for _, e := range set {
		if Equal(e, v) {
			return true
		}
	}
	return false
}
