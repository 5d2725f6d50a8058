package rag

import (
	"regexp"
	"strings"
)

// Words carrying normative weight in regulatory text. Matched as substrings
// so "prohibit" also covers "prohibited" and "prohibition".
var normativeKeywords = []string{
	"shall", "must", "should", "required", "prohibit", "oblig", "ensure",
}

var sentenceEnd = regexp.MustCompile(`[.!?]+(\s+|$)`)

const maxQuoteWords = 30

// splitSentences breaks text on terminal punctuation followed by whitespace,
// keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[last:loc[1]])
		if s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func scoreSentence(s string) int {
	lower := strings.ToLower(s)
	score := 0
	for _, kw := range normativeKeywords {
		if strings.Contains(lower, kw) {
			score += 2
		}
	}
	wc := len(strings.Fields(s))
	diff := wc - 15
	if diff < 0 {
		diff = -diff
	}
	if bonus := 20 - diff; bonus > 0 {
		score += bonus
	}
	return score
}

// TruncateWords caps text at n words.
func TruncateWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ")
}

// SelectShortQuote picks the most citation-worthy sentence from a passage:
// among sentences of at most thirty words, those mentioning normative
// keywords win, with a bonus for lengths near fifteen words. When no
// sentence is short enough, the first sentence is truncated to thirty
// words instead. Returns "" for empty input.
func SelectShortQuote(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return ""
	}

	best := ""
	bestScore := -1
	for _, s := range sentences {
		if len(strings.Fields(s)) > maxQuoteWords {
			continue
		}
		if sc := scoreSentence(s); sc > bestScore {
			best, bestScore = s, sc
		}
	}
	if best == "" {
		return TruncateWords(sentences[0], maxQuoteWords)
	}

	return strings.Trim(best, `"'`)
}
