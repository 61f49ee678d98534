// Package matching pairs lost posts with found posts (and vice versa) by
// weighted text similarity.
package matching

import (
	"strings"
	"unicode"
)

// Similarity returns the Dice coefficient of the character bigrams of a and
// b, in [0, 1]. Whitespace is ignored and bigrams are counted with
// multiplicity, so "aaaa" vs "aa" shares one "aa" bigram, not three.
//
// Two strings that are equal after removing whitespace score 1, including two
// empty strings. Otherwise a string with fewer than two characters has no
// bigrams and scores 0 against anything.
//
// Callers are expected to lower-case their inputs.
func Similarity(a, b string) float64 {
	ra := stripSpace(a)
	rb := stripSpace(b)

	if string(ra) == string(rb) {
		return 1
	}
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigrams := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[[2]rune{ra[i], ra[i+1]}]++
	}

	shared := 0
	for i := 0; i < len(rb)-1; i++ {
		bg := [2]rune{rb[i], rb[i+1]}
		if bigrams[bg] > 0 {
			bigrams[bg]--
			shared++
		}
	}

	return 2 * float64(shared) / float64(len(ra)+len(rb)-2)
}

func stripSpace(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			out = append(out, r)
		}
	}
	return out
}

// normalized lower-cases a field before comparison.
func normalized(s string) string {
	return strings.ToLower(s)
}
