// Package llm defines the capability boundaries to external model services:
// an Embedder that maps text to unit-normalized vectors and a Generator that
// produces grounded answer text. Upstream failures are classified so callers
// can retry transient ones and surface the rest immediately.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Embedder converts texts into unit-normalized fixed-dimension vectors,
// deterministic for a fixed model identifier.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Model() string
}

// Generator produces answer text from a system instruction and user prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Kind classifies a generation or embedding failure.
type Kind int

const (
	// KindOther covers malformed or unauthorized requests; retrying wastes
	// latency, so these surface immediately.
	KindOther Kind = iota
	// KindRateLimited is an upstream 429.
	KindRateLimited
	// KindTimeout is a deadline hit on the call.
	KindTimeout
	// KindUpstream is a transient 5xx from the service.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindUpstream:
		return "upstream"
	default:
		return "other"
	}
}

// Error wraps an upstream failure with its classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("llm: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError classifies err under kind.
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// IsTransient reports whether the error should be retried with backoff:
// rate limits, timeouts, and transient upstream failures qualify.
func IsTransient(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		switch le.Kind {
		case KindRateLimited, KindTimeout, KindUpstream:
			return true
		}
		return false
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Normalize scales v to unit length in place. Zero vectors are left alone.
func Normalize(v []float32) {
	var sum float32
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(float64(sum)))
	for i := range v {
		v[i] *= inv
	}
}
