package pulse

import (
	"math"
	"strings"

	"github.com/pulselabs/conversation-pulse/internal/model"
)

const (
	maxKeywords        = 10
	topicContextTurns  = 3
	idealSentenceWords = 15
)

// ExtractFeatures builds the feature record for a turn given all strictly
// prior turns as context. It is a pure function: neither the turn nor the
// previous turns are modified, and it never fails. Degenerate inputs produce
// documented defaults instead.
func ExtractFeatures(turn *model.Turn, previous []*model.Turn) model.TurnFeatures {
	f := model.TurnFeatures{
		WordCount:          WordCount(turn.Content),
		SentenceCount:      SentenceCount(turn.Content),
		VocabularyRichness: VocabularyRichness(turn.Content),
		SentimentScore:     Sentiment(turn.Content),
		EmotionalIntensity: EmotionalIntensity(turn.Content),
		ConfidenceLevel:    Confidence(turn.Content),
		ComplexityScore:    Complexity(turn.Content),
		ClarityScore:       clarity(turn.Content),
		EngagementScore:    engagement(turn.Content),
		TopicConsistency:   1.0, // no prior turns means nothing to diverge from
	}
	f.AvgSentenceLength = float64(f.WordCount) / float64(max(f.SentenceCount, 1))

	if len(previous) > 0 {
		f.ResponseDelay = responseDelay(turn, previous)
		f.TopicConsistency = topicConsistency(turn, previous)
	}

	return f
}

// responseDelay is the non-negative gap in seconds since the last turn.
func responseDelay(turn *model.Turn, previous []*model.Turn) float64 {
	last := previous[len(previous)-1]
	delay := turn.Timestamp.Sub(last.Timestamp).Seconds()
	if delay < 0 {
		return 0
	}
	return delay
}

// topicConsistency averages the Jaccard overlap between the current turn's
// keyword set and each of up to the last three prior turns. A turn with no
// keywords of its own scores 0.
func topicConsistency(turn *model.Turn, previous []*model.Turn) float64 {
	current := keywordSet(turn.Content)
	if len(current) == 0 {
		return 0
	}

	window := previous
	if len(window) > topicContextTurns {
		window = window[len(window)-topicContextTurns:]
	}

	var total float64
	count := 0
	for _, prev := range window {
		prevSet := keywordSet(prev.Content)
		if len(prevSet) == 0 {
			continue
		}
		total += jaccard(current, prevSet)
		count++
	}

	return total / float64(max(count, 1))
}

func keywordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, kw := range extractKeywords(text, maxKeywords) {
		set[kw] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// clarity blends punctuation density, vocabulary repetition, and proximity to
// an ideal sentence length of about 15 words. Each available indicator is
// averaged; the result is floored at 0.
func clarity(text string) float64 {
	var indicators []float64

	runes := []rune(text)
	punct := 0
	for _, r := range runes {
		if strings.ContainsRune(".,;:!?，。；：！？", r) {
			punct++
		}
	}
	punctRatio := float64(punct) / float64(max(len(runes), 1))
	indicators = append(indicators, clamp01(punctRatio*10))

	tokens := tokenize(text)
	if len(tokens) > 0 {
		unique := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			unique[tok] = struct{}{}
		}
		repetition := 1 - float64(len(unique))/float64(len(tokens))
		indicators = append(indicators, math.Max(0, 1-repetition))
	}

	if sentences := SentenceCount(text); sentences > 0 {
		avgLength := float64(len(tokens)) / float64(sentences)
		indicators = append(indicators, 1-math.Abs(avgLength-idealSentenceWords)/30)
	}

	var sum float64
	for _, v := range indicators {
		sum += v
	}
	return math.Max(0, sum/float64(len(indicators)))
}

// engagement blends question usage, second-person pronouns, and exclamation
// usage, each sub-indicator clamped before averaging.
func engagement(text string) float64 {
	questions := float64(strings.Count(text, "?") + strings.Count(text, "？"))
	questionFactor := clamp01(questions / 2)

	lower := strings.ToLower(text)
	secondPerson := 0
	for _, p := range []string{"你", "您", "you", "your"} {
		if strings.Contains(lower, p) {
			secondPerson++
		}
	}
	secondPersonFactor := clamp01(float64(secondPerson) / 3)

	exclamations := float64(strings.Count(text, "!") + strings.Count(text, "！"))
	exclamationFactor := clamp01(exclamations / 3)

	return (questionFactor + secondPersonFactor + exclamationFactor) / 3
}
