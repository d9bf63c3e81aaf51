package playbook

import (
	"regexp"
	"strings"
)

var reNonWord = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// normalizeText lowercases, strips non-word characters and collapses runs
// of whitespace to single spaces.
func normalizeText(s string) string {
	s = strings.ToLower(s)
	s = reNonWord.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// AnswersMatch reports whether a prediction counts as correct against the
// ground truth: exact equality after normalization, containment in either
// direction, or at least 70% of the truth's tokens appearing in the
// prediction.
func AnswersMatch(prediction, groundTruth string) bool {
	p := normalizeText(prediction)
	g := normalizeText(groundTruth)
	if p == g {
		return true
	}
	if p == "" || g == "" {
		return false
	}
	if strings.Contains(p, g) || strings.Contains(g, p) {
		return true
	}

	predTokens := map[string]bool{}
	for _, tok := range strings.Fields(p) {
		predTokens[tok] = true
	}
	truthTokens := strings.Fields(g)
	hit := 0
	for _, tok := range truthTokens {
		if predTokens[tok] {
			hit++
		}
	}
	return float64(hit) >= 0.7*float64(len(truthTokens))
}
