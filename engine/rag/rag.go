// Package rag composes grounded answers: it drives retrieval, builds the
// generation prompt from the retrieved context, selects supporting quotes,
// and formats citations. Generation failures that look transient are retried
// with backoff; everything else surfaces immediately.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LexGuardAI/lexguard-mvp/engine/domain"
	"github.com/LexGuardAI/lexguard-mvp/pkg/fn"
	"github.com/LexGuardAI/lexguard-mvp/pkg/llm"
)

const systemPrompt = `You are a compliance assistant. Answer only from the provided context.
Rules:
- If the context does not contain the answer, reply exactly: Insufficient context.
- Do not speculate or use outside knowledge.
- Quote regulatory language where it supports the answer.
- Be precise about which document and section each statement comes from.`

// Retriever fetches scored context for a question and reports whether the
// guardrail considers it sufficient to answer from.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.RetrievalResult, bool, error)
}

// Service answers questions over the indexed corpus.
type Service struct {
	retriever Retriever
	generator llm.Generator
	retry     fn.RetryOpts
	logger    *slog.Logger
}

// NewService wires a Service. A nil logger falls back to slog.Default.
func NewService(retriever Retriever, generator llm.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	retry := fn.RetryOpts{
		MaxAttempts: 3,
		InitialWait: 500 * time.Millisecond,
		MaxWait:     8 * time.Second,
		Jitter:      true,
		RetryIf:     llm.IsTransient,
	}
	return &Service{retriever: retriever, generator: generator, retry: retry, logger: logger}
}

// Ask runs the full answer pipeline for one question. When retrieval falls
// below the guardrail the sentinel answer is returned with the discarded
// candidates attached as near misses.
func (s *Service) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	results, sufficient, err := s.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("rag: retrieve: %w", err)
	}
	if !sufficient {
		s.logger.Info("guardrail refused question", "question_len", len(question), "candidates", len(results))
		return &domain.Answer{
			Text:       domain.InsufficientContext,
			NearMisses: results,
		}, nil
	}

	prompt := buildPrompt(question, results)
	gen := fn.Retry(ctx, s.retry, func(ctx context.Context) fn.Result[string] {
		return fn.FromPair(s.generator.Generate(ctx, systemPrompt, prompt))
	})
	text, err := gen.Unwrap()
	if err != nil {
		return nil, fmt.Errorf("rag: generate: %w", err)
	}

	quotes := selectQuotes(results)
	citations := FormatCitations(results)

	return &domain.Answer{
		Text:         assemble(text, quotes, citations),
		Quotes:       quotes,
		Citations:    citations,
		UsedContexts: results,
	}, nil
}

// buildPrompt renders the question with each context block labeled by its
// source so the model can attribute statements.
func buildPrompt(question string, results []domain.RetrievalResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, fmt.Sprintf("[Source: %s]\n%s", r.Citation(), r.Text))
	}

	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\nContext:\n")
	b.WriteString(strings.Join(blocks, "\n\n---\n\n"))
	b.WriteString("\n\nWrite a concise answer as bullet points followed by a one to two sentence summary. Use only the context above.")
	return b.String()
}

// selectQuotes pulls up to two supporting quotes from the strongest results,
// falling back to a truncated excerpt of the top result when no sentence
// scores.
func selectQuotes(results []domain.RetrievalResult) []string {
	top := results
	if len(top) > 2 {
		top = top[:2]
	}
	seen := make(map[string]struct{}, 2)
	var quotes []string
	for _, r := range top {
		q := SelectShortQuote(r.Text)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		quotes = append(quotes, q)
	}
	if len(quotes) == 0 && len(results) > 0 {
		if q := TruncateWords(results[0].Text, maxQuoteWords); q != "" {
			quotes = append(quotes, q)
		}
	}
	return quotes
}

// assemble appends quote lines and a citation footer to the generated text.
func assemble(text string, quotes, citations []string) string {
	parts := []string{strings.TrimSpace(text)}
	for _, q := range quotes {
		parts = append(parts, fmt.Sprintf("> Quote: %q", q))
	}
	if len(citations) > 0 {
		parts = append(parts, "Citations: "+strings.Join(citations, "; "))
	}
	return strings.Join(parts, "\n\n")
}
