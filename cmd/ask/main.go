// Package main implements a one-shot CLI: ask a single question against the
// local index and print the answer with quotes and citations.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
	"github.com/LexGuardAI/lexguard-mvp/engine/index"
	"github.com/LexGuardAI/lexguard-mvp/engine/rag"
	"github.com/LexGuardAI/lexguard-mvp/engine/retrieve"
	"github.com/LexGuardAI/lexguard-mvp/pkg/audit"
	"github.com/LexGuardAI/lexguard-mvp/pkg/config"
	"github.com/LexGuardAI/lexguard-mvp/pkg/llm"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to YAML config")
		timeout    = flag.Duration("timeout", 2*time.Minute, "overall deadline")
		verbose    = flag.Bool("v", false, "log at debug level and print retrieved contexts")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	question := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if question == "" {
		fmt.Fprintln(os.Stderr, "usage: ask [flags] <question>")
		os.Exit(2)
	}

	if err := run(*configPath, question, *timeout, *verbose, logger); err != nil {
		logger.Error("ask failed", "err", err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath, question string, timeout time.Duration, verbose bool, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

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

	searcher, err := index.Open(cfg.ArtifactsDir, cfg.IndexName)
	if err != nil {
		return err
	}

	retriever := retrieve.New(embedder, searcher, retrieve.Options{
		TopK:   cfg.TopK,
		MinSim: float32(cfg.MinSim),
	}, logger)

	svc := rag.NewService(retriever, client, logger)

	answer, err := svc.Ask(ctx, question)
	if err != nil {
		return err
	}

	audit.NewCSVSink(cfg.AuditPath, logger).TryAppend(domain.AuditRecord{
		Timestamp: time.Now(),
		Question:  question,
		Citations: answer.Citations,
	})

	fmt.Println(answer.Text)

	if verbose {
		contexts := answer.UsedContexts
		label := "context"
		if answer.Insufficient() {
			contexts = answer.NearMisses
			label = "near miss"
		}
		for _, c := range contexts {
			fmt.Fprintf(os.Stderr, "[%s] %s score=%.3f\n", label, c.Citation(), c.Score)
		}
	}
	return nil
}
