// Package retrieve embeds a query, runs similarity search against an index
// backend, and applies the sufficiency guardrail that decides whether the
// corpus contains confidently relevant evidence.
package retrieve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
	"github.com/LexGuardAI/lexguard-mvp/pkg/llm"
)

// Searcher abstracts the index backend (flat file index or Qdrant).
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]domain.RetrievalResult, error)
}

// Options configures retrieval behavior.
type Options struct {
	// TopK is the number of nearest neighbors to return.
	TopK int
	// MinSim is the guardrail threshold: when the best hit's cosine score
	// falls below it, retrieval reports insufficient evidence and the
	// caller must refuse to answer rather than generate from weak context.
	MinSim float32
}

// DefaultOptions returns the standard retrieval settings.
func DefaultOptions() Options {
	return Options{TopK: 5, MinSim: 0.30}
}

// Retriever runs the embed-then-search half of the query path.
type Retriever struct {
	embedder llm.Embedder
	search   Searcher
	opts     Options
	logger   *slog.Logger
}

// New creates a Retriever. The embedder must be the same model used at
// index build time or scores are meaningless.
func New(embedder llm.Embedder, search Searcher, opts Options, logger *slog.Logger) *Retriever {
	if opts.TopK <= 0 {
		opts.TopK = DefaultOptions().TopK
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{embedder: embedder, search: search, opts: opts, logger: logger}
}

// Retrieve embeds the query, searches, and gates on the top score. Results
// are ordered by descending score. sufficient is true iff at least one
// result exists and the best score clears the threshold; it is the sole
// guardrail gate in the system.
func (r *Retriever) Retrieve(ctx context.Context, query string) (results []domain.RetrievalResult, sufficient bool, err error) {
	if err := domain.ValidateQuestion(query); err != nil {
		return nil, false, err
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, false, fmt.Errorf("retrieve: embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, false, fmt.Errorf("retrieve: expected 1 query vector, got %d", len(vectors))
	}

	results, err = r.search.Search(ctx, vectors[0], r.opts.TopK)
	if err != nil {
		return nil, false, fmt.Errorf("retrieve: search: %w", err)
	}

	sufficient = len(results) > 0 && results[0].Score >= r.opts.MinSim
	if !sufficient {
		top := float32(0)
		if len(results) > 0 {
			top = results[0].Score
		}
		r.logger.Info("retrieve: below guardrail",
			"results", len(results),
			"top_score", top,
			"threshold", r.opts.MinSim,
		)
	}
	return results, sufficient, nil
}

// Options returns the retriever's configuration.
func (r *Retriever) Options() Options { return r.opts }
