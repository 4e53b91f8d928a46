package modlist

import "github.com/agext/levenshtein"

// suggest returns the known identifier closest to given, or "" if none is
// within a small edit distance.
func suggest(given string, known []string) string {
	best, bestDist := "", 3
	for _, k := range known {
		if d := levenshtein.Distance(given, k, nil); d < bestDist {
			best, bestDist = k, d
		}
	}
	return best
}
