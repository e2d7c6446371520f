package palace

import (
	"cmp"
	"slices"
	"strings"
)

type matchRank int

const (
	noMatch matchRank = iota
	bodyMatch
	nameSubstring
	nameExact
)

func rank(e Entity, q string) matchRank {
	if q == "" {
		return noMatch
	}

	name := strings.ToLower(e.Label())
	switch {
	case name == q:
		return nameExact
	case strings.Contains(name, q):
		return nameSubstring
	case strings.Contains(strings.ToLower(e.Body()), q):
		return bodyMatch
	}
	return noMatch
}

// bestMatch returns the first candidate of the highest rank, keeping the
// order candidates were given in.
func bestMatch[E Entity](candidates []E, text string) E {
	q := normalize(text)

	var best E
	bestRank := noMatch
	for _, c := range candidates {
		if r := rank(c, q); r > bestRank {
			best, bestRank = c, r
		}
	}
	return best
}

// allMatches returns every candidate matching text, exact names first and
// the rest by name.
func allMatches[E Entity](candidates []E, text string) []E {
	q := normalize(text)

	type ranked struct {
		e    E
		rank matchRank
	}
	var hits []ranked
	for _, c := range candidates {
		if r := rank(c, q); r != noMatch {
			hits = append(hits, ranked{c, r})
		}
	}

	slices.SortStableFunc(hits, func(a, b ranked) int {
		aExact, bExact := a.rank == nameExact, b.rank == nameExact
		if aExact != bExact {
			if aExact {
				return -1
			}
			return 1
		}
		return cmp.Compare(strings.ToLower(a.e.Label()), strings.ToLower(b.e.Label()))
	})

	out := make([]E, len(hits))
	for i, h := range hits {
		out[i] = h.e
	}
	return out
}
