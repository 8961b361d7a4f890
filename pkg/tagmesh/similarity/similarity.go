// Package similarity provides the pure name-scoring functions used by merge
// and hierarchy detection. All functions are stateless, take immutable
// inputs, and are safe to call from any goroutine without synchronization.
package similarity

import "strings"

// separators are stripped during normalization. Only these four characters;
// no Unicode folding beyond lowercasing.
const separators = "-_/ "

// Normalize lowercases a tag name and strips separator characters so that
// "swift-ui", "swift_ui" and "Swift UI" all compare equal.
func Normalize(name string) string {
	lower := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if strings.ContainsRune(separators, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Score returns a similarity in [0, 1] between two tag names, based on edit
// distance over their normalized forms. Names with identical normalized
// forms score 1.0; if either normalized form is empty the score is 0.
func Score(a, b string) float64 {
	na := Normalize(a)
	nb := Normalize(b)
	if na == nb {
		return 1.0
	}
	if na == "" || nb == "" {
		return 0
	}

	longest := len([]rune(na))
	if lb := len([]rune(nb)); lb > longest {
		longest = lb
	}
	return 1.0 - float64(Levenshtein(na, nb))/float64(longest)
}

// Levenshtein returns the unit-cost edit distance between a and b, measured
// in runes. Uses two rolling rows sized by the shorter string, so memory is
// O(min(|a|, |b|)).
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	if len(rb) > len(ra) {
		ra, rb = rb, ra
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			best := curr[j-1] + 1 // insertion
			if del := prev[j] + 1; del < best {
				best = del
			}
			if sub := prev[j-1] + cost; sub < best {
				best = sub
			}
			curr[j] = best
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
