// Package ingest provides the indexing pipeline that turns a document
// directory into a searchable index through chunking, embedding, and storage
// stages, plus a NATS consumer for reindex requests.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LexGuardAI/lexguard-mvp/engine/corpus"
	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
	"github.com/LexGuardAI/lexguard-mvp/pkg/fn"
	"github.com/LexGuardAI/lexguard-mvp/pkg/llm"
)

// EmbedBatchSize is the max chunks per embedding request.
const EmbedBatchSize = 64

// Job names the document tree to index.
type Job struct {
	DocsDir string `json:"docs_dir"`
}

// EmbeddedBatch pairs chunks with their vectors, row for row.
type EmbeddedBatch struct {
	Chunks  []domain.Chunk
	Vectors [][]float32
}

// VectorWriter receives embedded chunks. Both the flat file index and the
// Qdrant store satisfy it.
type VectorWriter interface {
	Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
}

// Deps holds the external dependencies for the pipeline.
type Deps struct {
	Builder  *corpus.Builder
	Embedder llm.Embedder
	Writer   VectorWriter
	Logger   *slog.Logger
}

// NewChunkStage walks the job's document tree and produces the ordered chunk
// list. An empty corpus is an error: indexing nothing is always a mistake.
func NewChunkStage(b *corpus.Builder) fn.Stage[Job, []domain.Chunk] {
	return func(_ context.Context, job Job) fn.Result[[]domain.Chunk] {
		chunks, err := b.Build(job.DocsDir)
		if err != nil {
			return fn.Err[[]domain.Chunk](err)
		}
		if len(chunks) == 0 {
			return fn.Err[[]domain.Chunk](domain.ErrEmptyCorpus)
		}
		return fn.Ok(chunks)
	}
}

// NewEmbedStage embeds chunks in batches of EmbedBatchSize. Output vectors
// are identical regardless of how the batches fall.
func NewEmbedStage(embedder llm.Embedder) fn.Stage[[]domain.Chunk, EmbeddedBatch] {
	return func(ctx context.Context, chunks []domain.Chunk) fn.Result[EmbeddedBatch] {
		vectors := make([][]float32, 0, len(chunks))
		for i := 0; i < len(chunks); i += EmbedBatchSize {
			end := i + EmbedBatchSize
			if end > len(chunks) {
				end = len(chunks)
			}
			texts := make([]string, end-i)
			for j, c := range chunks[i:end] {
				texts[j] = c.Text
			}
			batch, err := embedder.Embed(ctx, texts)
			if err != nil {
				return fn.Err[EmbeddedBatch](fmt.Errorf("ingest: embed batch at %d: %w", i, err))
			}
			if len(batch) != len(texts) {
				return fn.Err[EmbeddedBatch](fmt.Errorf("ingest: embedder returned %d vectors for %d texts", len(batch), len(texts)))
			}
			vectors = append(vectors, batch...)
		}
		return fn.Ok(EmbeddedBatch{Chunks: chunks, Vectors: vectors})
	}
}

// NewStoreStage writes the embedded batch and reports how many chunks landed.
func NewStoreStage(w VectorWriter) fn.Stage[EmbeddedBatch, int] {
	return func(ctx context.Context, batch EmbeddedBatch) fn.Result[int] {
		if err := w.Add(ctx, batch.Chunks, batch.Vectors); err != nil {
			return fn.Err[int](fmt.Errorf("ingest: store: %w", err))
		}
		return fn.Ok(len(batch.Chunks))
	}
}

// loggedTap logs stage entry and exit with duration.
func loggedTap[T any](name string, log *slog.Logger) fn.Stage[T, T] {
	return func(ctx context.Context, t T) fn.Result[T] {
		log.Info("stage.enter", "stage", name)
		start := time.Now()
		defer func() {
			log.Info("stage.exit", "stage", name, "duration", time.Since(start))
		}()
		return fn.Ok(t)
	}
}

// NewPipeline composes chunk, embed, and store stages with logging taps and
// trace spans around each.
func NewPipeline(deps Deps) fn.Stage[Job, int] {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}

	chunk := fn.Traced("ingest.chunk", NewChunkStage(deps.Builder))
	embed := fn.Traced("ingest.embed", NewEmbedStage(deps.Embedder))
	store := fn.Traced("ingest.store", NewStoreStage(deps.Writer))

	chunked := fn.Then(loggedTap[Job]("chunk", log), chunk)
	embedded := fn.Then(chunked, fn.Then(loggedTap[[]domain.Chunk]("embed", log), embed))
	return fn.Then(embedded, fn.Then(loggedTap[EmbeddedBatch]("store", log), store))
}
