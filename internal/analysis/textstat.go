// Package analysis provides the annotation source adapters and the local
// text heuristics they share: sentence and word segmentation with offsets,
// syllable estimation, and the fact-check-worthiness gate.
package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

// Sentence is a sentence of the buffer with its half-open offset range.
type Sentence struct {
	Text      string
	Start     int
	End       int
	WordCount int
}

// Word is a word of the buffer with its half-open offset range.
type Word struct {
	Text  string
	Start int
	End   int
}

var sentenceEnd = regexp.MustCompile(`[.!?]+[\s]+|[.!?]+$`)

// SplitSentences segments text into sentences with offsets.  Terminators are
// runs of [.!?]; the terminator belongs to the sentence it closes.  Offsets
// refer to the original buffer, so a sentence's range is usable directly as
// an annotation anchor.
func SplitSentences(text string) []Sentence {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var sentences []Sentence
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		end := loc[1]
		raw := text[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			sentences = append(sentences, Sentence{
				Text:      trimmed,
				Start:     start + lead,
				End:       start + lead + len(trimmed),
				WordCount: len(strings.Fields(trimmed)),
			})
		}
		start = end
	}
	if start < len(text) {
		raw := text[start:]
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			sentences = append(sentences, Sentence{
				Text:      trimmed,
				Start:     start + lead,
				End:       start + lead + len(trimmed),
				WordCount: len(strings.Fields(trimmed)),
			})
		}
	}
	return sentences
}

// Words tokenizes text into letter runs with offsets.  Apostrophes inside a
// word ("don't") keep the word whole; all other punctuation splits.
func Words(text string) []Word {
	var words []Word
	start := -1
	for i, r := range text {
		isWordRune := unicode.IsLetter(r) || unicode.IsDigit(r) ||
			(r == '\'' && start >= 0)
		if isWordRune {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			words = append(words, Word{Text: text[start:i], Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		words = append(words, Word{Text: text[start:], Start: start, End: len(text)})
	}
	return words
}

// CountSyllables estimates English syllables by counting vowel groups, with
// the usual silent-e adjustment.  Estimates floor at 1.
func CountSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			count++
		}
		prevVowel = isVowel
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

// Patterns that indicate text carrying verifiable claims.
var factualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d+(\.\d+)?\s*(%|percent)`),
	regexp.MustCompile(`[$€£¥]\s?\d`),
	regexp.MustCompile(`\b\d{1,3}(,\d{3})+\b`),
	regexp.MustCompile(`\b(19|20)\d{2}\b`),
	regexp.MustCompile(`(?i)\b(study|studies|research|report|survey)\s+(found|shows?|showed|suggests?|indicates?|concluded?)\b`),
	regexp.MustCompile(`(?i)\baccording to\b`),
	regexp.MustCompile(`(?i)\b(million|billion|trillion)\b`),
	regexp.MustCompile(`"[^"]{10,}"`),
}

// IsFactCheckWorthy reports whether text contains at least one pattern worth
// sending to the factual-claims adapter: statistics, money amounts, large
// numbers, years, attribution phrases, or substantial quotes.  Texts failing
// this gate skip the remote call entirely.
func IsFactCheckWorthy(text string) bool {
	for _, re := range factualPatterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
