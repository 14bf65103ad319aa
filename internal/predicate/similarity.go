package predicate

import (
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Similarity returns the indel similarity of a and b in [0,1]:
// 2*LCS/(len(a)+len(b)) over runes, where LCS is the longest common
// subsequence. Identical strings (including two empty ones) score 1.
func Similarity(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	return 2 * float64(edlib.LCS(a, b)) / float64(total)
}
