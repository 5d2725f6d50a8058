package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// OpenAIConfig configures the OpenAI-compatible client.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // optional, for compatible endpoints
	EmbedModel  string
	ChatModel   string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
	// EmbedRPS throttles outbound embedding requests during index builds.
	EmbedRPS float64
}

// OpenAI implements Embedder and Generator against an OpenAI-compatible API.
type OpenAI struct {
	client      *openai.Client
	embedModel  string
	chatModel   string
	dim         int
	timeout     time.Duration
	temperature float32
	maxTokens   int
	limiter     *rate.Limiter
}

// Known embedding dimensions per model; overridden by the first response
// when the model is unknown.
var embedDims = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// NewOpenAI creates the client. The API key is required.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: OpenAI API key not set")
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = "text-embedding-3-small"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 700
	}
	if cfg.EmbedRPS <= 0 {
		cfg.EmbedRPS = 10
	}

	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(conf),
		embedModel:  cfg.EmbedModel,
		chatModel:   cfg.ChatModel,
		dim:         embedDims[cfg.EmbedModel],
		timeout:     cfg.Timeout,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		limiter:     rate.NewLimiter(rate.Limit(cfg.EmbedRPS), 1),
	}, nil
}

// Embed returns one unit-normalized vector per input text.
func (c *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.embedModel),
		Input: texts,
	})
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.Data) != len(texts) {
		return nil, NewError(KindOther, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data)))
	}

	out := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		v := make([]float32, len(d.Embedding))
		for j, x := range d.Embedding {
			v[j] = float32(x)
		}
		Normalize(v)
		out[i] = v
		if c.dim == 0 {
			c.dim = len(v)
		}
	}
	return out, nil
}

// Dimension returns the embedding dimensionality.
func (c *OpenAI) Dimension() int { return c.dim }

// Model returns the embedding model identifier.
func (c *OpenAI) Model() string { return c.embedModel }

// Generate calls chat completion with a bounded per-call timeout. Errors are
// classified; the caller decides whether to retry.
func (c *OpenAI) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", NewError(KindUpstream, errors.New("no completion choices returned"))
	}
	return resp.Choices[0].Message.Content, nil
}

// classify maps go-openai errors onto the transient/fatal taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return NewError(KindRateLimited, err)
		case apiErr.HTTPStatusCode == http.StatusRequestTimeout:
			return NewError(KindTimeout, err)
		case apiErr.HTTPStatusCode >= 500:
			return NewError(KindUpstream, err)
		}
		return NewError(KindOther, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 500 {
		return NewError(KindUpstream, err)
	}
	return NewError(KindOther, err)
}
