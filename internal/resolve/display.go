package resolve

import "modelcheck/internal/model"

// DisplayValues returns the geometry nodes n is drawn with, read from
// "displayValue" or its legacy alias. Non-node elements are ignored. The
// result is nil when there is nothing to draw.
func DisplayValues(n *model.Node) []*model.Node {
	if n == nil {
		return nil
	}
	raw, ok := n.Get(model.AttrDisplayValue)
	if !ok || raw.IsNull() || isEmptyList(raw) {
		raw, _ = n.Get(model.LegacyAttrPrefix + model.AttrDisplayValue)
	}

	var elems []model.Value
	if list, ok := raw.AsList(); ok {
		elems = list
	} else {
		elems = []model.Value{raw}
	}

	var out []*model.Node
	for _, e := range elems {
		if dn, ok := e.AsNode(); ok {
			out = append(out, dn)
		}
	}
	return out
}

func isEmptyList(v model.Value) bool {
	l, ok := v.AsList()
	return ok && len(l) == 0
}

// HasOwnDisplay reports whether n has display values of its own and an ID.
func HasOwnDisplay(n *model.Node) bool {
	return n != nil && n.ID != "" && len(DisplayValues(n)) > 0
}

// IsDisplayable reports whether n can be shown in a viewer. Instances that
// carry no geometry themselves are displayable through their definition when
// the definition has display values and an ID.
//
// Inheriting through the definition applies to this check only; parameter
// lookups never consult the definition.
func IsDisplayable(n *model.Node) bool {
	if HasOwnDisplay(n) {
		return true
	}
	if n == nil {
		return false
	}
	return HasOwnDisplay(n.Definition())
}

// Displayable filters nodes down to displayable ones that can be annotated
// (non-empty ID), preserving order.
func Displayable(nodes []*model.Node) []*model.Node {
	var out []*model.Node
	for _, n := range nodes {
		if n.ID != "" && IsDisplayable(n) {
			out = append(out, n)
		}
	}
	return out
}
