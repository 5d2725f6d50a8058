package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LexGuardAI/lexguard-mvp/pkg/llm"
)

type flakyGenerator struct {
	err   error
	calls int
}

func (f *flakyGenerator) Generate(context.Context, string, string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "answer", nil
}

func TestGuardedGenerator_PassesThrough(t *testing.T) {
	g := NewGuardedGenerator(&flakyGenerator{}, DefaultBreakerOpts)
	out, err := g.Generate(context.Background(), "sys", "prompt")
	if err != nil || out != "answer" {
		t.Errorf("got (%q, %v)", out, err)
	}
}

func TestGuardedGenerator_OpenCircuitIsTransient(t *testing.T) {
	inner := &flakyGenerator{err: errors.New("provider down")}
	g := NewGuardedGenerator(inner, BreakerOpts{FailThreshold: 2, Cooldown: time.Minute})

	_, _ = g.Generate(context.Background(), "s", "p")
	_, _ = g.Generate(context.Background(), "s", "p")
	if g.Breaker().State() != StateOpen {
		t.Fatal("breaker should be open")
	}

	calls := inner.calls
	_, err := g.Generate(context.Background(), "s", "p")
	if inner.calls != calls {
		t.Error("open breaker must not call the provider")
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen in chain, got %v", err)
	}
	if !llm.IsTransient(err) {
		t.Errorf("open circuit should classify as transient: %v", err)
	}
}
