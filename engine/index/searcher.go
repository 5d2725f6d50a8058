package index

import (
	"context"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
)

// Searcher is a loaded flat index paired with its metadata, ready for
// query-time similarity search. It is read-only after construction, so
// concurrent queries need no coordination.
type Searcher struct {
	flat   *Flat
	chunks []domain.Chunk
}

// NewSearcher pairs a flat index with its parallel chunk metadata.
func NewSearcher(flat *Flat, chunks []domain.Chunk) *Searcher {
	return &Searcher{flat: flat, chunks: chunks}
}

// Open loads a persisted index from disk and wraps it for searching.
func Open(dir, name string) (*Searcher, error) {
	flat, chunks, err := Load(dir, name)
	if err != nil {
		return nil, err
	}
	return NewSearcher(flat, chunks), nil
}

// Len returns the number of indexed chunks.
func (s *Searcher) Len() int { return s.flat.Len() }

// Search embeds nothing: it takes an already-embedded query vector, runs
// exact top-k inner-product search, drops the sentinel negative indices the
// flat index pads with, and maps surviving rows back to their chunks.
// Results come back in the search's native descending-score order.
func (s *Searcher) Search(_ context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error) {
	scores, ids, err := s.flat.Search(vector, topK)
	if err != nil {
		return nil, err
	}

	results := make([]domain.RetrievalResult, 0, len(ids))
	for i, id := range ids {
		if id < 0 {
			continue
		}
		c := s.chunks[id]
		results = append(results, domain.RetrievalResult{
			Document: c.Document,
			Anchor:   c.Anchor,
			Text:     c.Text,
			Score:    scores[i],
		})
	}
	return results, nil
}

// Add indexes chunks with their vectors, extending both sides of the
// row/metadata pairing together. Used by the ingest pipeline's store stage.
func (s *Searcher) Add(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if err := s.flat.Add(vectors...); err != nil {
		return err
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

// Chunks returns the metadata records in row order.
func (s *Searcher) Chunks() []domain.Chunk { return s.chunks }

// Flat exposes the underlying index for persistence.
func (s *Searcher) Flat() *Flat { return s.flat }
