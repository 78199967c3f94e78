// Package textsim provides pure text similarity functions used by the
// deduplication service: token-set (Jaccard) similarity, edit-distance
// (Levenshtein) similarity, and weighted combinations of the two.
// All functions are deterministic, never error, and are safe for concurrent use.
package textsim

import "strings"

const (
	// DuplicateThreshold is the combined similarity at or above which two
	// articles are treated as duplicates of the same event.
	DuplicateThreshold = 0.75

	// SimilarThreshold marks related-but-not-duplicate articles.
	SimilarThreshold = 0.6
)

// Combination weights. Jaccard captures shared vocabulary, Levenshtein
// captures phrasing; titles dominate article comparison.
const (
	jaccardWeight     = 0.7
	levenshteinWeight = 0.3
	titleWeight       = 0.8
	descriptionWeight = 0.2
)

// Jaccard computes token-set similarity between two texts in [0, 1].
// Texts are lowercased and split on whitespace; the result is the ratio of
// the word-set intersection to the word-set union. Two empty texts yield 0.
func Jaccard(text1, text2 string) float64 {
	words1 := wordSet(text1)
	words2 := wordSet(text2)

	union := len(words2)
	intersection := 0
	for w := range words1 {
		if _, ok := words2[w]; ok {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// LevenshteinDistance computes the edit distance between two strings,
// counting insertions, deletions and substitutions of runes.
func LevenshteinDistance(str1, str2 string) int {
	r1 := []rune(str1)
	r2 := []rune(str2)

	// Single-row DP keeps memory linear in the shorter string.
	if len(r2) < len(r1) {
		r1, r2 = r2, r1
	}

	prev := make([]int, len(r1)+1)
	curr := make([]int, len(r1)+1)
	for i := 0; i <= len(r1); i++ {
		prev[i] = i
	}

	for j := 1; j <= len(r2); j++ {
		curr[0] = j
		for i := 1; i <= len(r1); i++ {
			if r1[i-1] == r2[j-1] {
				curr[i] = prev[i-1]
			} else {
				curr[i] = min3(prev[i]+1, curr[i-1]+1, prev[i-1]+1)
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(r1)]
}

// LevenshteinSimilarity converts edit distance into a [0, 1] similarity:
// 1 - distance/maxLen. Two empty strings are identical (1).
func LevenshteinSimilarity(str1, str2 string) float64 {
	maxLen := len([]rune(str1))
	if l2 := len([]rune(str2)); l2 > maxLen {
		maxLen = l2
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(LevenshteinDistance(str1, str2))/float64(maxLen)
}

// Text combines Jaccard and Levenshtein similarity with 0.7/0.3 weights.
func Text(text1, text2 string) float64 {
	return Jaccard(text1, text2)*jaccardWeight +
		LevenshteinSimilarity(text1, text2)*levenshteinWeight
}

// News computes article similarity from titles and optional descriptions.
// When both descriptions are present the result is 0.8*title + 0.2*description;
// otherwise the title similarity alone decides.
func News(title1, desc1, title2, desc2 string) float64 {
	titleSim := Text(title1, title2)
	if desc1 == "" || desc2 == "" {
		return titleSim
	}
	return titleSim*titleWeight + Text(desc1, desc2)*descriptionWeight
}

func wordSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
