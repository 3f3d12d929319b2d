package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWordCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "english", text: "hello world", want: 2},
		{name: "english with punctuation", text: "Hello, world! How are you?", want: 5},
		{name: "cjk counts ideographs", text: "你好世界", want: 4},
		{name: "cjk with punctuation", text: "你好，世界！", want: 4},
		{name: "mixed counts only ideographs", text: "hello 世界", want: 2},
		{name: "empty", text: "", want: 0},
		{name: "whitespace only", text: "   \n", want: 0},
		{name: "numbers are words", text: "chapter 42", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WordCount(tt.text))
		})
	}
}

func TestSentenceCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "three sentences", text: "Hello. How are you? Great!", want: 3},
		{name: "no terminator is one sentence", text: "no punctuation here", want: 1},
		{name: "cjk terminators", text: "你好。最近怎么样？很好！", want: 3},
		{name: "repeated terminators collapse", text: "Wow!!! Really??", want: 2},
		{name: "empty", text: "", want: 0},
		{name: "terminators only", text: "?!.", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SentenceCount(tt.text))
		})
	}
}

func TestVocabularyRichness(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "all unique", text: "quick brown fox", want: 1.0},
		{name: "two of three unique", text: "cat dog cat", want: 2.0 / 3.0},
		{name: "only stopwords", text: "the and of", want: 0},
		{name: "empty", text: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, VocabularyRichness(tt.text), 1e-9)
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	got := extractKeywords("The quick brown fox jumps over a lazy dog", 3)
	assert.Equal(t, []string{"quick", "brown", "fox"}, got)

	// Single-character tokens and stopwords are dropped.
	got = extractKeywords("I a the fox", 10)
	assert.Equal(t, []string{"fox"}, got)

	assert.Empty(t, extractKeywords("", 10))
}
