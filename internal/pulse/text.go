// Package pulse implements the conversation pulse pipeline: per-turn feature
// extraction, intensity scoring, trend pattern detection, and conversation
// level analysis. Everything in this package is deterministic, in-memory
// computation with no I/O.
package pulse

import (
	"regexp"
	"strings"
)

var (
	wordRe     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	sentenceRe = regexp.MustCompile(`[.!?。！？]+`)
)

// isCJK reports whether r is a CJK unified ideograph.
func isCJK(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}

func containsCJK(text string) bool {
	for _, r := range text {
		if isCJK(r) {
			return true
		}
	}
	return false
}

// tokenize returns lowercased word tokens. A contiguous run of letters,
// digits, and underscores is one token.
func tokenize(text string) []string {
	matches := wordRe.FindAllString(text, -1)
	tokens := make([]string, len(matches))
	for i, m := range matches {
		tokens[i] = strings.ToLower(m)
	}
	return tokens
}

// WordCount counts word units in text. CJK text has no whitespace word
// boundaries, so when any CJK ideograph is present each ideograph counts as
// one unit (punctuation excluded); otherwise word tokens are counted.
func WordCount(text string) int {
	if containsCJK(text) {
		n := 0
		for _, r := range text {
			if isCJK(r) {
				n++
			}
		}
		return n
	}
	return len(tokenize(text))
}

// SentenceCount counts non-empty segments terminated by sentence punctuation.
func SentenceCount(text string) int {
	n := 0
	for _, seg := range sentenceRe.Split(strings.TrimSpace(text), -1) {
		if strings.TrimSpace(seg) != "" {
			n++
		}
	}
	return n
}

// VocabularyRichness is the ratio of unique to total non-stopword tokens.
// Returns 0 when no tokens survive stop-word filtering.
func VocabularyRichness(text string) float64 {
	var total int
	unique := make(map[string]struct{})
	for _, tok := range tokenize(text) {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		total++
		unique[tok] = struct{}{}
	}
	if total == 0 {
		return 0
	}
	return float64(len(unique)) / float64(total)
}

// extractKeywords returns up to max non-stopword tokens of length >= 2, in
// encounter order. Order, not frequency, is the ranking.
func extractKeywords(text string, max int) []string {
	var keywords []string
	for _, tok := range tokenize(text) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		keywords = append(keywords, tok)
		if len(keywords) == max {
			break
		}
	}
	return keywords
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
