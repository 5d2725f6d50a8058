package index

import (
	"context"
	"testing"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
)

func TestSearcher_MapsRowsToChunks(t *testing.T) {
	flat, _ := NewFlat(2)
	s := NewSearcher(flat, nil)

	chunks := []domain.Chunk{
		{Document: "a.md", Anchor: "section-one", Text: "alpha"},
		{Document: "b.md", Anchor: "p3", Text: "beta"},
	}
	vectors := [][]float32{{1, 0}, {0, 1}}
	if err := s.Add(context.Background(), chunks, vectors); err != nil {
		t.Fatal(err)
	}

	results, err := s.Search(context.Background(), []float32{0, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Document != "b.md" || results[0].Anchor != "p3" {
		t.Errorf("top result = %+v, want b.md#p3", results[0])
	}
	if results[0].Score != 1 {
		t.Errorf("top score = %g, want 1", results[0].Score)
	}
}

func TestSearcher_DropsSentinelPadding(t *testing.T) {
	flat, _ := NewFlat(2)
	s := NewSearcher(flat, nil)
	_ = s.Add(context.Background(),
		[]domain.Chunk{{Document: "a.md", Anchor: "p1", Text: "only"}},
		[][]float32{{1, 0}},
	)

	results, err := s.Search(context.Background(), []float32{1, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("expected padding dropped, got %d results", len(results))
	}
}

func TestOpen_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	chunks := testChunks(4)
	flat, err := Build(context.Background(), chunks, &hashEmbedder{dim: 8}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(dir, "regdocs", flat, chunks); err != nil {
		t.Fatal(err)
	}

	s, err := Open(dir, "regdocs")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if s.Len() != 4 {
		t.Errorf("searcher has %d chunks, want 4", s.Len())
	}
}
