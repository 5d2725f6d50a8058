package retrieve

import (
	"context"
	"errors"
	"testing"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = s.vector
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return len(s.vector) }
func (s *stubEmbedder) Model() string  { return "stub" }

type stubSearcher struct {
	results []domain.RetrievalResult
	err     error
	gotK    int
}

func (s *stubSearcher) Search(_ context.Context, _ []float32, topK int) ([]domain.RetrievalResult, error) {
	s.gotK = topK
	return s.results, s.err
}

func result(score float32) domain.RetrievalResult {
	return domain.RetrievalResult{Document: "doc.md", Anchor: "p1", Text: "text", Score: score}
}

func TestRetrieve_SufficientAboveThreshold(t *testing.T) {
	search := &stubSearcher{results: []domain.RetrievalResult{result(0.82), result(0.4)}}
	r := New(&stubEmbedder{vector: []float32{1, 0}}, search, DefaultOptions(), nil)

	results, sufficient, err := r.Retrieve(context.Background(), "what are the reporting duties?")
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if !sufficient {
		t.Error("expected sufficient above threshold")
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
	if search.gotK != 5 {
		t.Errorf("searched with k=%d, want 5", search.gotK)
	}
}

func TestRetrieve_ThresholdIsInclusive(t *testing.T) {
	search := &stubSearcher{results: []domain.RetrievalResult{result(0.30)}}
	r := New(&stubEmbedder{vector: []float32{1, 0}}, search, DefaultOptions(), nil)

	_, sufficient, err := r.Retrieve(context.Background(), "question")
	if err != nil {
		t.Fatal(err)
	}
	if !sufficient {
		t.Error("score exactly at threshold must be sufficient")
	}
}

func TestRetrieve_InsufficientBelowThreshold(t *testing.T) {
	search := &stubSearcher{results: []domain.RetrievalResult{result(0.29), result(0.1)}}
	r := New(&stubEmbedder{vector: []float32{1, 0}}, search, DefaultOptions(), nil)

	results, sufficient, err := r.Retrieve(context.Background(), "question")
	if err != nil {
		t.Fatal(err)
	}
	if sufficient {
		t.Error("expected insufficient below threshold")
	}
	if len(results) != 2 {
		t.Error("near misses must still be returned")
	}
}

func TestRetrieve_EmptyIndexInsufficient(t *testing.T) {
	r := New(&stubEmbedder{vector: []float32{1, 0}}, &stubSearcher{}, DefaultOptions(), nil)

	results, sufficient, err := r.Retrieve(context.Background(), "question")
	if err != nil {
		t.Fatal(err)
	}
	if sufficient || len(results) != 0 {
		t.Errorf("expected no results and insufficient, got %d results", len(results))
	}
}

func TestRetrieve_RejectsBlankQuestion(t *testing.T) {
	r := New(&stubEmbedder{vector: []float32{1, 0}}, &stubSearcher{}, DefaultOptions(), nil)

	_, _, err := r.Retrieve(context.Background(), "   ")
	if !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
}

func TestRetrieve_EmbedFailure(t *testing.T) {
	r := New(&stubEmbedder{err: errors.New("boom")}, &stubSearcher{}, DefaultOptions(), nil)

	_, _, err := r.Retrieve(context.Background(), "question")
	if err == nil {
		t.Fatal("expected embed error to surface")
	}
}

func TestNew_DefaultsTopK(t *testing.T) {
	r := New(&stubEmbedder{vector: []float32{1}}, &stubSearcher{}, Options{MinSim: 0.5}, nil)
	if r.Options().TopK != 5 {
		t.Errorf("TopK defaulted to %d, want 5", r.Options().TopK)
	}
}
