package rag

import (
	"strings"
	"testing"
)

func TestSelectShortQuote_PrefersNormativeSentence(t *testing.T) {
	text := "The weather was mild that year. A firm must hold client money in a designated client account at all times. Some firms found this inconvenient."
	got := SelectShortQuote(text)
	if !strings.Contains(got, "must hold client money") {
		t.Errorf("expected the normative sentence, got %q", got)
	}
}

func TestSelectShortQuote_KeywordSubstrings(t *testing.T) {
	// "obligations" and "prohibited" hit the "oblig" and "prohibit" stems.
	text := "This is a plain descriptive remark of medium length about the handbook. Transfers to unregistered accounts are prohibited under the client money obligations."
	got := SelectShortQuote(text)
	if !strings.Contains(got, "prohibited") {
		t.Errorf("expected stem-matched sentence, got %q", got)
	}
}

func TestSelectShortQuote_SkipsOverlongSentences(t *testing.T) {
	// The first sentence is 31 words and loaded with normative keywords,
	// but exceeds the quote cap, so the plain short sentence wins.
	long := "Firms shall at all times ensure that every required record of client money obligations is retained, reviewed, and must be promptly produced on demand as the regulatory handbook and guidance prescribe."
	if n := len(strings.Fields(long)); n != 31 {
		t.Fatalf("fixture sentence has %d words, want 31", n)
	}
	got := SelectShortQuote(long + " The rule applies.")
	if got != "The rule applies." {
		t.Errorf("expected the short sentence, got %q", got)
	}
}

func TestSelectShortQuote_TruncatesWhenNothingQualifies(t *testing.T) {
	long := "The firm shall " + strings.Repeat("always and without exception ", 20) + "retain records."
	got := SelectShortQuote(long)
	words := strings.Fields(got)
	if len(words) != 30 {
		t.Errorf("quote has %d words, want exactly 30", len(words))
	}
	if strings.HasSuffix(got, "...") {
		t.Errorf("truncated quote should not carry an ellipsis: %q", got)
	}
}

func TestSelectShortQuote_Empty(t *testing.T) {
	if got := SelectShortQuote("   "); got != "" {
		t.Errorf("expected empty quote, got %q", got)
	}
}

func TestSelectShortQuote_SingleSentenceFallback(t *testing.T) {
	got := SelectShortQuote("No terminal punctuation here just words about records retention policy")
	if got == "" {
		t.Error("expected fallback to the only sentence")
	}
}

func TestSelectShortQuote_StripsQuoteCharacters(t *testing.T) {
	got := SelectShortQuote(`"Firms must report breaches promptly."`)
	if strings.HasPrefix(got, `"`) || strings.HasSuffix(got, `"`) {
		t.Errorf("surrounding quote characters should be stripped: %q", got)
	}
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("First rule applies. Second rule applies! Does the third? Fourth without end")
	if len(got) != 4 {
		t.Fatalf("expected 4 sentences, got %d: %v", len(got), got)
	}
	if got[0] != "First rule applies." {
		t.Errorf("first sentence = %q", got[0])
	}
	if got[3] != "Fourth without end" {
		t.Errorf("trailing fragment = %q", got[3])
	}
}

func TestTruncateWords(t *testing.T) {
	if got := TruncateWords("one two three", 5); got != "one two three" {
		t.Errorf("short text should be untouched, got %q", got)
	}
	if got := TruncateWords("one two three four", 2); got != "one two" {
		t.Errorf("got %q, want %q", got, "one two")
	}
}
