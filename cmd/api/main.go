// Package main implements the LexGuard API server: question answering over
// the indexed regulatory corpus.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
	"github.com/LexGuardAI/lexguard-mvp/engine/index"
	"github.com/LexGuardAI/lexguard-mvp/engine/rag"
	"github.com/LexGuardAI/lexguard-mvp/engine/retrieve"
	"github.com/LexGuardAI/lexguard-mvp/pkg/audit"
	"github.com/LexGuardAI/lexguard-mvp/pkg/config"
	"github.com/LexGuardAI/lexguard-mvp/pkg/llm"
	"github.com/LexGuardAI/lexguard-mvp/pkg/metrics"
	"github.com/LexGuardAI/lexguard-mvp/pkg/mid"
	"github.com/LexGuardAI/lexguard-mvp/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:     cfg.OpenAIKey,
		BaseURL:    cfg.OpenAIBase,
		EmbedModel: cfg.EmbedModel,
		ChatModel:  cfg.ChatModel,
	})
	if err != nil {
		return err
	}

	var embedder llm.Embedder = client
	if cfg.Provider == "ollama" {
		embedder = llm.NewOllamaEmbedder(cfg.OllamaAddr, cfg.EmbedModel)
	}

	searcher, closeSearcher, err := buildSearcher(cfg)
	if err != nil {
		return err
	}
	defer closeSearcher()

	generator := resilience.NewGuardedGenerator(client, resilience.DefaultBreakerOpts)

	retriever := retrieve.New(embedder, searcher, retrieve.Options{
		TopK:   cfg.TopK,
		MinSim: float32(cfg.MinSim),
	}, logger)

	svc := rag.NewService(retriever, generator, logger)
	sink := audit.NewCSVSink(cfg.AuditPath, logger)
	reg := metrics.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", reg.Handler())
	mux.HandleFunc("POST /api/ask", handleAsk(svc, sink, reg, logger))

	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.OTel("lexguard-api"),
		mid.Metrics(reg),
		mid.CORS(cfg.CORSOrigin),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "backend", cfg.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func buildSearcher(cfg config.Config) (retrieve.Searcher, func(), error) {
	switch cfg.Backend {
	case "qdrant":
		store, err := index.NewQdrantStore(cfg.QdrantAddr, cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		s, err := index.Open(cfg.ArtifactsDir, cfg.IndexName)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// AskRequest is the JSON body for POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the JSON response for POST /api/ask.
type AskResponse struct {
	Answer     string                   `json:"answer"`
	Quotes     []string                 `json:"quotes"`
	Citations  []string                 `json:"citations"`
	Contexts   []domain.RetrievalResult `json:"contexts"`
	NearMisses []domain.RetrievalResult `json:"near_misses,omitempty"`
}

func handleAsk(svc *rag.Service, sink *audit.CSVSink, reg *metrics.Registry, logger *slog.Logger) http.HandlerFunc {
	asked := reg.Counter("ask_requests_total", "Questions received")
	refused := reg.Counter("ask_refused_total", "Questions refused by the retrieval guardrail")

	return func(w http.ResponseWriter, r *http.Request) {
		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		asked.Inc()

		answer, err := svc.Ask(r.Context(), req.Question)
		if err != nil {
			status := http.StatusInternalServerError
			msg := `{"error":"internal server error"}`
			switch {
			case errors.Is(err, domain.ErrEmptyQuery):
				status, msg = http.StatusBadRequest, `{"error":"question is required"}`
			case errors.Is(err, domain.ErrMissingIndex):
				status, msg = http.StatusServiceUnavailable, `{"error":"index not built"}`
			}
			if status == http.StatusInternalServerError {
				logger.Error("ask failed", "err", err)
			}
			http.Error(w, msg, status)
			return
		}

		if answer.Insufficient() {
			refused.Inc()
		}
		sink.TryAppend(domain.AuditRecord{
			Timestamp: time.Now(),
			Question:  req.Question,
			Citations: answer.Citations,
		})

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(AskResponse{
			Answer:     answer.Text,
			Quotes:     answer.Quotes,
			Citations:  answer.Citations,
			Contexts:   answer.UsedContexts,
			NearMisses: answer.NearMisses,
		})
	}
}
