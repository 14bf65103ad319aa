// Package predicate is the fixed catalog of comparisons a rule can apply to
// a resolved parameter value.
//
// A Predicate is plain data (a Kind tag plus operands) so rules can be read
// from files and compared in tests; Apply dispatches on the tag.
package predicate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Kind names a comparison.
type Kind string

const (
	Equals      Kind = "equals"
	Matches     Kind = "matches"
	GreaterThan Kind = "greater_than"
	LessThan    Kind = "less_than"
	InRange     Kind = "in_range"
	InList      Kind = "in_list"
	IsTrue      Kind = "is_true"
	IsFalse     Kind = "is_false"
)

// Kinds lists every supported kind in catalog order.
var Kinds = []Kind{Equals, Matches, GreaterThan, LessThan, InRange, InList, IsTrue, IsFalse}

// aliases accepts the spellings used in hand-written rule sheets.
var aliases = map[string]Kind{
	"equal":        Equals,
	"eq":           Equals,
	"==":           Equals,
	"like":         Matches,
	"match":        Matches,
	"greater than": GreaterThan,
	">":            GreaterThan,
	"less than":    LessThan,
	"<":            LessThan,
	"in range":     InRange,
	"range":        InRange,
	"in list":      InList,
	"in":           InList,
	"is true":      IsTrue,
	"true":         IsTrue,
	"is false":     IsFalse,
	"false":        IsFalse,
}

// ParseKind parses a kind name. Matching is case-insensitive and accepts a
// few common aliases ("greater than", ">", "in list", ...).
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if string(k) == norm {
			return k, nil
		}
	}
	if k, ok := aliases[norm]; ok {
		return k, nil
	}
	if hint := suggest(norm); hint != "" {
		return "", fmt.Errorf("predicate: unknown kind %q (did you mean %q?)", s, hint)
	}
	return "", fmt.Errorf("predicate: unknown kind %q", s)
}

// maxSuggestDistance bounds the edit distance of a "did you mean" hint.
const maxSuggestDistance = 2

// suggest returns the catalog name closest to a misspelled kind, or "".
// Ties go to the alphabetically first name.
func suggest(s string) string {
	names := make([]string, 0, len(Kinds)+len(aliases))
	for _, k := range Kinds {
		names = append(names, string(k))
	}
	for a := range aliases {
		names = append(names, a)
	}
	sort.Strings(names)

	best, bestDist := "", maxSuggestDistance+1
	for _, name := range names {
		if d := levenshtein.ComputeDistance(s, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	if best == "" || bestDist >= len(best) {
		return ""
	}
	if k, ok := aliases[best]; ok {
		return string(k)
	}
	return best
}

// Valid reports whether k is in the catalog.
func (k Kind) Valid() bool {
	for _, c := range Kinds {
		if c == k {
			return true
		}
	}
	return false
}

// Numeric reports whether k only applies to numbers.
func (k Kind) Numeric() bool {
	return k == GreaterThan || k == LessThan || k == InRange
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
