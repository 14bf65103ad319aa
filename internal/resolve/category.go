package resolve

import "modelcheck/internal/model"

// HasCategory reports whether n carries a category parameter at all.
func HasCategory(n *model.Node) bool {
	return Has(n, model.AttrCategory)
}

// Category returns n's category as text ("" when absent).
func Category(n *model.Node) string {
	return Value(n, model.AttrCategory).Text()
}

// IsCategory reports whether n's category equals want exactly.
func IsCategory(n *model.Node, want string) bool {
	return model.Equal(Value(n, model.AttrCategory), model.String(want))
}

// PartitionByCategory splits nodes into those in category and the rest,
// preserving input order. This is a pre-filter: nodes outside the category
// are out of scope for a check, not failures of it.
func PartitionByCategory(nodes []*model.Node, category string) (in, out []*model.Node) {
	for _, n := range nodes {
		if IsCategory(n, category) {
			in = append(in, n)
		} else {
			out = append(out, n)
		}
	}
	return in, out
}
