// Package text provides utilities for text processing and analysis.
// This package includes reusable functions for character counting and rune-safe
// truncation used by the platform formatters and notification templates.
package text

// CountRunes counts the number of Unicode characters (runes) in the given text.
// This function correctly handles multi-byte characters including Korean, Japanese,
// emoji, and other Unicode characters by counting runes instead of bytes.
//
// Platform length limits (Twitter 280, Threads 500, ...) are expressed in
// characters, so every formatter counts runes through this helper for
// consistent behavior.
//
// Examples:
//
//	CountRunes("hello")          // returns 5 (ASCII text)
//	CountRunes("삼성전자")         // returns 4 (Korean text)
//	CountRunes("hello世界")       // returns 7 (mixed text)
//	CountRunes("")               // returns 0 (empty string)
func CountRunes(text string) int {
	return len([]rune(text))
}

// TruncateRunes shortens text to at most maxRunes characters, appending suffix
// when truncation happens. The suffix length counts against the limit.
// A maxRunes smaller than the suffix yields a bare prefix of maxRunes runes.
func TruncateRunes(text string, maxRunes int, suffix string) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}

	suffixRunes := []rune(suffix)
	cut := maxRunes - len(suffixRunes)
	if cut < 0 {
		return string(runes[:maxRunes])
	}
	return string(runes[:cut]) + suffix
}
