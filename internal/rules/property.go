package rules

import (
	"fmt"

	"modelcheck/internal/model"
	"modelcheck/internal/resolve"
)

// DefaultEmptyValues are the values that count as "present but not filled
// in" for a property check.
var DefaultEmptyValues = []model.Value{model.Null(), model.String(""), model.String("Default")}

// PropertyCheck is the result of checking one property on every node of one
// category.
type PropertyCheck struct {
	Category string `json:"category"`
	Property string `json:"property"`
	// Total is the number of nodes in the category.
	Total int `json:"total"`
	// OutOfCategory counts nodes the category pre-filter removed.
	OutOfCategory int      `json:"out_of_category"`
	Missing       []string `json:"missing"`
	Invalid       []string `json:"invalid"`
	Valid         []string `json:"valid"`
	// Values holds the resolved value of every valid node.
	Values map[string]model.Value `json:"-"`
}

// CheckProperty filters nodes to category, then classifies each one as
// missing the property, holding an empty/default value (see empty; nil
// means DefaultEmptyValues) or holding a real value.
func CheckProperty(nodes []*model.Node, category, property string, empty []model.Value) PropertyCheck {
	if empty == nil {
		empty = DefaultEmptyValues
	}
	in, out := resolve.PartitionByCategory(nodes, category)
	pc := PropertyCheck{
		Category:      category,
		Property:      property,
		OutOfCategory: len(out),
		Values:        make(map[string]model.Value),
	}
	for _, n := range in {
		if n.ID == "" {
			continue
		}
		pc.Total++
		if !resolve.Has(n, property) {
			pc.Missing = append(pc.Missing, n.ID)
			continue
		}
		v := resolve.Value(n, property)
		if model.Contains(empty, v) {
			pc.Invalid = append(pc.Invalid, n.ID)
			continue
		}
		pc.Valid = append(pc.Valid, n.ID)
		pc.Values[n.ID] = v
	}
	return pc
}

// Status fails the check when any node lacks the property.
func (pc PropertyCheck) Status() Status {
	if len(pc.Missing) > 0 {
		return StatusFailed
	}
	return StatusSucceeded
}

// Summary is the status line for the run.
func (pc PropertyCheck) Summary() string {
	switch {
	case len(pc.Missing) > 0:
		return fmt.Sprintf("Found %d objects without the required property out of %d total %s objects.",
			len(pc.Missing), pc.Total, pc.Category)
	case len(pc.Invalid) > 0:
		return fmt.Sprintf("Found %d objects with empty/default values out of %d total %s objects.",
			len(pc.Invalid), pc.Total, pc.Category)
	default:
		return fmt.Sprintf("All %d %s objects have valid %s properties.", pc.Total, pc.Category, pc.Property)
	}
}

// MissingMessage, InvalidMessage and ValidMessage are the per-object
// annotation texts.
func (pc PropertyCheck) MissingMessage() string {
	return fmt.Sprintf("This %s does not have the specified property %s", pc.Category, pc.Property)
}

func (pc PropertyCheck) InvalidMessage() string {
	return fmt.Sprintf("This %s has the specified property %s but it is empty or default", pc.Category, pc.Property)
}

func (pc PropertyCheck) ValidMessage() string {
	return fmt.Sprintf("This %s has valid values for the property %s", pc.Category, pc.Property)
}
