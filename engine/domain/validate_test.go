package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name    string
		q       string
		wantErr error
	}{
		{"valid", "What are the client money rules?", nil},
		{"empty", "", ErrEmptyQuery},
		{"whitespace only", "  \n\t ", ErrEmptyQuery},
		{"at limit", strings.Repeat("a", MaxQuestionLen), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateQuestion(tt.q)
			if tt.wantErr == nil && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateQuestion_TooLong(t *testing.T) {
	if err := ValidateQuestion(strings.Repeat("a", MaxQuestionLen+1)); err == nil {
		t.Error("expected length error")
	}
}

func TestValidateChunk(t *testing.T) {
	good := Chunk{Document: "handbook.md", Anchor: "p1", Text: "some text"}
	if err := ValidateChunk(good); err != nil {
		t.Errorf("valid chunk rejected: %v", err)
	}
	if err := ValidateChunk(Chunk{Anchor: "p1", Text: "x"}); err == nil {
		t.Error("missing document should fail")
	}
	if err := ValidateChunk(Chunk{Document: "a.md", Anchor: "p1", Text: "  "}); err == nil {
		t.Error("blank text should fail")
	}
}

func TestRetrievalResult_Citation(t *testing.T) {
	r := RetrievalResult{Document: "handbook.md", Anchor: "section-client-money"}
	if got := r.Citation(); got != "handbook.md#section-client-money" {
		t.Errorf("citation = %q", got)
	}
	r.Anchor = ""
	if got := r.Citation(); got != "handbook.md" {
		t.Errorf("citation without anchor = %q", got)
	}
}

func TestAnswer_Insufficient(t *testing.T) {
	a := Answer{Text: InsufficientContext}
	if !a.Insufficient() {
		t.Error("sentinel text should report insufficient")
	}
	b := Answer{Text: "Real answer."}
	if b.Insufficient() {
		t.Error("real answer misreported as insufficient")
	}
}

func TestExtractionError(t *testing.T) {
	inner := errors.New("bad xref table")
	err := NewExtractionError("docs/broken.pdf", inner)
	if !strings.Contains(err.Error(), "docs/broken.pdf") {
		t.Errorf("error should name the path: %v", err)
	}
	if !errors.Is(err, inner) {
		t.Error("Unwrap chain broken")
	}
}
