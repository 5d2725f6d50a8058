// Package main implements the LexGuard ingestion tool. It chunks a document
// directory, embeds every chunk, and persists the index. With -listen it
// stays up consuming reindex requests over NATS.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"

	"github.com/LexGuardAI/lexguard-mvp/engine/corpus"
	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
	"github.com/LexGuardAI/lexguard-mvp/engine/index"
	"github.com/LexGuardAI/lexguard-mvp/engine/ingest"
	"github.com/LexGuardAI/lexguard-mvp/pkg/config"
	"github.com/LexGuardAI/lexguard-mvp/pkg/llm"
	"github.com/LexGuardAI/lexguard-mvp/pkg/metrics"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to YAML config")
		docsDir    = flag.String("docs", "", "document directory (overrides config)")
		listen     = flag.Bool("listen", false, "keep running and consume reindex requests over NATS")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(*configPath, *docsDir, *listen, logger); err != nil {
		logger.Error("ingest failed", "err", err)
		os.Exit(1)
	}
}

func run(configPath, docsDir string, listen bool, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if docsDir != "" {
		cfg.DocsDir = docsDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	writer, persist, closeWriter, err := buildWriter(cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	reg := metrics.New()
	reg.ServeAsync(cfg.MetricsPort, logger)
	chunksIndexed := reg.Counter("ingest_chunks_indexed_total", "Chunks written to the index")
	runsFailed := reg.Counter("ingest_runs_failed_total", "Failed ingestion runs")

	builder := &corpus.Builder{Window: cfg.ChunkWindow, Overlap: cfg.ChunkOverlap, Logger: logger}
	deps := ingest.Deps{Builder: builder, Embedder: embedder, Writer: writer, Logger: logger}
	pipeline := ingest.NewPipeline(deps)

	result := pipeline(ctx, ingest.Job{DocsDir: cfg.DocsDir})
	count, err := result.Unwrap()
	if err != nil {
		runsFailed.Inc()
		return fmt.Errorf("ingest: %w", err)
	}
	if err := persist(ctx); err != nil {
		return err
	}
	chunksIndexed.Add(int64(count))
	logger.Info("ingestion complete", "docs_dir", cfg.DocsDir, "chunks", count, "embed_model", embedder.Model())

	if !listen {
		return nil
	}
	if cfg.NATSAddr == "" {
		return fmt.Errorf("ingest: -listen requires NATS_ADDR")
	}

	nc, err := nats.Connect(cfg.NATSAddr)
	if err != nil {
		return fmt.Errorf("ingest: nats connect: %w", err)
	}
	defer nc.Close()

	sub, err := ingest.StartConsumer(nc, deps, persist)
	if err != nil {
		return fmt.Errorf("ingest: subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	logger.Info("listening for reindex requests", "subject", ingest.ReindexSubject)
	<-ctx.Done()
	return nil
}

func buildEmbedder(cfg config.Config) (llm.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return llm.NewOllamaEmbedder(cfg.OllamaAddr, cfg.EmbedModel), nil
	default:
		client, err := llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:     cfg.OpenAIKey,
			BaseURL:    cfg.OpenAIBase,
			EmbedModel: cfg.EmbedModel,
			ChatModel:  cfg.ChatModel,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// fileWriter accumulates embedded chunks in memory and persists the flat
// index on demand. The flat index is sized from the first batch's vectors.
type fileWriter struct {
	dir, name string
	searcher  *index.Searcher
}

func (w *fileWriter) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if w.searcher == nil {
		if len(vectors) == 0 {
			return nil
		}
		flat, err := index.NewFlat(len(vectors[0]))
		if err != nil {
			return err
		}
		w.searcher = index.NewSearcher(flat, nil)
	}
	return w.searcher.Add(ctx, chunks, vectors)
}

// persist writes the accumulated index and resets the accumulator so a
// later reindex run starts from scratch.
func (w *fileWriter) persist(context.Context) error {
	if w.searcher == nil {
		return domain.ErrEmptyCorpus
	}
	err := index.Save(w.dir, w.name, w.searcher.Flat(), w.searcher.Chunks())
	w.searcher = nil
	return err
}

// qdrantWriter creates the collection from the first batch's dimensionality,
// then delegates to the store.
type qdrantWriter struct {
	store   *index.QdrantStore
	ensured bool
}

func (w *qdrantWriter) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if !w.ensured && len(vectors) > 0 {
		if err := w.store.EnsureCollection(ctx, len(vectors[0])); err != nil {
			return err
		}
		w.ensured = true
	}
	return w.store.Add(ctx, chunks, vectors)
}

func buildWriter(cfg config.Config) (ingest.VectorWriter, func(context.Context) error, func(), error) {
	switch cfg.Backend {
	case "qdrant":
		store, err := index.NewQdrantStore(cfg.QdrantAddr, cfg.Collection)
		if err != nil {
			return nil, nil, nil, err
		}
		noop := func(context.Context) error { return nil }
		return &qdrantWriter{store: store}, noop, func() { _ = store.Close() }, nil
	default:
		w := &fileWriter{dir: cfg.ArtifactsDir, name: cfg.IndexName}
		return w, w.persist, func() {}, nil
	}
}
