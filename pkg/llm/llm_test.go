package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", NewError(KindRateLimited, errors.New("429")), true},
		{"timeout", NewError(KindTimeout, errors.New("deadline")), true},
		{"upstream", NewError(KindUpstream, errors.New("503")), true},
		{"other", NewError(KindOther, errors.New("bad request")), false},
		{"bare deadline", context.DeadlineExceeded, true},
		{"wrapped classified", fmt.Errorf("rag: %w", NewError(KindUpstream, errors.New("503"))), true},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	pairs := map[Kind]string{
		KindOther:       "other",
		KindRateLimited: "rate_limited",
		KindTimeout:     "timeout",
		KindUpstream:    "upstream",
	}
	for k, want := range pairs {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", k, got, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := NewError(KindUpstream, inner)
	if !errors.Is(err, inner) {
		t.Error("Unwrap chain broken")
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("norm^2 = %g, want 1", sum)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("direction changed: %v", v)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	Normalize(v)
	for _, x := range v {
		if x != 0 {
			t.Errorf("zero vector changed: %v", v)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"429", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, KindRateLimited},
		{"408", &openai.APIError{HTTPStatusCode: http.StatusRequestTimeout}, KindTimeout},
		{"500", &openai.APIError{HTTPStatusCode: http.StatusInternalServerError}, KindUpstream},
		{"503", &openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable}, KindUpstream},
		{"400", &openai.APIError{HTTPStatusCode: http.StatusBadRequest}, KindOther},
		{"request 502", &openai.RequestError{HTTPStatusCode: http.StatusBadGateway}, KindUpstream},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"unknown", errors.New("weird"), KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var le *Error
			got := classify(tt.err)
			if !errors.As(got, &le) {
				t.Fatalf("classify(%v) did not return *Error", tt.err)
			}
			if le.Kind != tt.want {
				t.Errorf("classify(%v) kind = %s, want %s", tt.err, le.Kind, tt.want)
			}
		})
	}
}

func TestNewOpenAI_RequiresKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestNewOpenAI_KnownDimension(t *testing.T) {
	c, err := NewOpenAI(OpenAIConfig{APIKey: "test", EmbedModel: "text-embedding-3-small"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Dimension() != 1536 {
		t.Errorf("dimension = %d, want 1536", c.Dimension())
	}
	if c.Model() != "text-embedding-3-small" {
		t.Errorf("model = %q", c.Model())
	}
}
