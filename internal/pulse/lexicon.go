package pulse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Static lexicons cover mixed Chinese/English vocabulary because input
// conversations may mix both scripts.

var stopWords = map[string]struct{}{
	"的": {}, "了": {}, "在": {}, "是": {}, "我": {}, "有": {}, "和": {}, "就": {},
	"不": {}, "人": {}, "都": {}, "一": {}, "一个": {}, "上": {}, "也": {}, "很": {},
	"到": {}, "说": {}, "要": {}, "去": {}, "你": {}, "会": {}, "着": {}, "没有": {},
	"看": {}, "好": {}, "自己": {}, "这": {},
	"the": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {}, "at": {},
	"to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "did": {},
}

var positiveWords = map[string]struct{}{
	"好": {}, "棒": {}, "优秀": {}, "喜欢": {}, "爱": {}, "高兴": {}, "快乐": {},
	"满意": {}, "赞": {},
	"good": {}, "great": {}, "excellent": {}, "love": {}, "like": {},
	"happy": {}, "joy": {},
}

var negativeWords = map[string]struct{}{
	"坏": {}, "差": {}, "讨厌": {}, "恨": {}, "生气": {}, "难过": {}, "失望": {},
	"bad": {}, "terrible": {}, "hate": {}, "angry": {}, "sad": {},
	"disappointed": {},
}

var confidenceMarkers = []string{
	"确实", "肯定", "一定", "当然", "sure", "definitely", "absolutely", "certainly",
}

var doubtMarkers = []string{
	"可能", "也许", "大概", "或许", "maybe", "perhaps", "probably", "likely",
}

var complexityConnectives = []string{
	"因为", "所以", "但是", "然而", "虽然", "尽管", "如果", "要是",
	"unless", "because", "therefore", "however", "although", "if",
}

var conjunctions = []string{"和", "与", "以及", "and", "or", "but", "so"}

var (
	exclamationRunRe = regexp.MustCompile(`!+`)
	questionRunRe    = regexp.MustCompile(`\?+`)
)

// Sentiment scores text in [-1, 1] as (positive − negative) / total sentiment
// hits. Text with no sentiment words scores 0.0 (neutral), a deliberate
// policy rather than a missing-data error.
func Sentiment(text string) float64 {
	var pos, neg int
	for _, tok := range tokenize(text) {
		if _, ok := positiveWords[tok]; ok {
			pos++
		}
		if _, ok := negativeWords[tok]; ok {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

// Confidence estimates how assertive the text is, in [0, 1]. With no markers
// of either kind the result is the neutral midpoint 0.5 (unlike Sentiment's
// neutral 0.0).
func Confidence(text string) float64 {
	lower := strings.ToLower(text)
	var confident, doubtful int
	for _, m := range confidenceMarkers {
		if strings.Contains(lower, m) {
			confident++
		}
	}
	for _, m := range doubtMarkers {
		if strings.Contains(lower, m) {
			doubtful++
		}
	}
	total := confident + doubtful
	if total == 0 {
		return 0.5
	}
	return float64(confident) / float64(total)
}

// EmotionalIntensity averages three indicators (exclamation runs, question
// runs, uppercase-character ratio) and clamps into [0, 1].
func EmotionalIntensity(text string) float64 {
	exclamations := float64(len(exclamationRunRe.FindAllString(text, -1)))
	questions := float64(len(questionRunRe.FindAllString(text, -1)))

	var upperRatio float64
	if text != "" {
		upper := 0
		for _, r := range text {
			if unicode.IsUpper(r) {
				upper++
			}
		}
		upperRatio = float64(upper) / float64(utf8.RuneCountInString(text))
	}

	return clamp01((exclamations + questions + upperRatio) / 3)
}

// Complexity averages three factors, each clamped to [0, 1] before
// averaging: sentence length against a 20-word norm, complexity connectives
// against 5, and conjunction variety against 3.
func Complexity(text string) float64 {
	words := float64(len(tokenize(text)))
	sentences := float64(max(SentenceCount(text), 1))
	lengthFactor := clamp01(words / sentences / 20)

	lower := strings.ToLower(text)
	connectiveHits := 0
	for _, c := range complexityConnectives {
		if strings.Contains(lower, c) {
			connectiveHits++
		}
	}
	connectiveFactor := clamp01(float64(connectiveHits) / 5)

	conjunctionHits := 0
	for _, c := range conjunctions {
		if strings.Contains(lower, c) {
			conjunctionHits++
		}
	}
	conjunctionFactor := clamp01(float64(conjunctionHits) / 3)

	return (lengthFactor + connectiveFactor + conjunctionFactor) / 3
}
