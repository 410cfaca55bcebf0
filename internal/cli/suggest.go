// Package cli provides a lightweight CLI framework with colored help,
// subcommand dispatch, and "did you mean?" suggestions.
package cli

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggest returns the candidate with the smallest case-insensitive
// Levenshtein distance to input, or "" if even that candidate is more
// than len(input)/3+2 edits away.
func Suggest(input string, candidates []string) string {
	if input == "" || len(candidates) == 0 {
		return ""
	}

	var best fuzzy.Rank
	for i, c := range candidates {
		d := fuzzy.LevenshteinDistance(strings.ToLower(input), strings.ToLower(c))
		if i == 0 || d < best.Distance {
			best = fuzzy.Rank{Source: input, Target: c, Distance: d}
		}
	}

	threshold := len(input)/3 + 2
	if best.Distance > threshold {
		return ""
	}
	return best.Target
}
