// Package resolve reads parameter values off model nodes.
//
// Authoring tools store the same logical parameter in several places: as a
// direct attribute, as an entry of the "parameters" bag keyed by the
// parameter name, or as a named parameter record keyed by an internal id.
// Resolve hides those storage shapes behind one lookup with a fixed
// precedence:
//
//  1. a direct attribute (or its legacy "@" alias) that is neither null
//     nor the caller's default;
//  2. the bag entry keyed by the name, unwrapped when it is a record;
//  3. the first bag record (sorted by key) whose own "name" matches.
package resolve

import (
	"modelcheck/internal/model"
)

// attr returns a direct attribute. The decoder lifts the identifier and the
// type tag into Node fields, so those two are answered from there.
func attr(n *model.Node, name string) (model.Value, bool) {
	switch name {
	case model.AttrID:
		if n.ID != "" {
			return model.String(n.ID), true
		}
	case model.AttrSpeckleType:
		if n.SpeckleType != "" {
			return model.String(n.SpeckleType), true
		}
	}
	return n.Get(name)
}

// direct returns the first usable value of the attribute or, failing
// that, of its legacy alias.
func direct(n *model.Node, name string, def model.Value) (model.Value, bool) {
	for _, key := range []string{name, model.LegacyAttrPrefix + name} {
		if v, ok := attr(n, key); ok && usable(v, def) {
			return v, true
		}
	}
	return model.Null(), false
}

func hasDirect(n *model.Node, name string) bool {
	if _, ok := attr(n, name); ok {
		return true
	}
	_, ok := attr(n, model.LegacyAttrPrefix+name)
	return ok
}

func usable(v, def model.Value) bool {
	return !v.IsNull() && !model.Equal(v, def)
}

// Resolve returns the value of the named parameter on n. The boolean is
// false when no storage location yields a value. def is the caller's
// "unset" sentinel: steps 1 and 2 skip values equal to it.
func Resolve(n *model.Node, name string, def model.Value) (model.Value, bool) {
	if n == nil {
		return model.Null(), false
	}
	if v, ok := direct(n, name, def); ok {
		return v, true
	}

	bag := n.Parameters()
	if bag == nil {
		return model.Null(), false
	}

	if entry, ok := bag.Get(name); ok {
		if rec, isNode := entry.AsNode(); isNode && rec.IsParameterRecord() {
			if v := rec.RecordValue(); usable(v, def) {
				return v, true
			}
		} else if usable(entry, def) {
			return entry, true
		}
	}

	for _, key := range bag.Names() {
		rec, ok := bag.Attrs[key].AsNode()
		if !ok {
			continue
		}
		if recName, ok := rec.RecordName(); ok && recName == name {
			return rec.RecordValue(), true
		}
	}
	return model.Null(), false
}

// Value is Resolve with a Null default, discarding the found flag.
func Value(n *model.Node, name string) model.Value {
	v, _ := Resolve(n, name, model.Null())
	return v
}

// Has reports whether the parameter exists anywhere on n. Unlike Resolve it
// does not care whether the stored value is null or a default.
func Has(n *model.Node, name string) bool {
	if n == nil {
		return false
	}
	if hasDirect(n, name) {
		return true
	}
	bag := n.Parameters()
	if bag == nil {
		return false
	}
	if _, ok := bag.Get(name); ok {
		return true
	}
	for _, key := range bag.Names() {
		rec, ok := bag.Attrs[key].AsNode()
		if !ok {
			continue
		}
		if recName, ok := rec.RecordName(); ok && recName == name {
			return true
		}
	}
	return false
}
