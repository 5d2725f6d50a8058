package resilience

import (
	"context"

	"github.com/LexGuardAI/lexguard-mvp/pkg/llm"
)

// GuardedGenerator wraps a Generator with a circuit breaker so a dead
// provider fails fast instead of stacking timeouts.
type GuardedGenerator struct {
	inner   llm.Generator
	breaker *Breaker
}

// NewGuardedGenerator wraps g with the given breaker options.
func NewGuardedGenerator(g llm.Generator, opts BreakerOpts) *GuardedGenerator {
	return &GuardedGenerator{inner: g, breaker: NewBreaker(opts)}
}

// Generate runs the wrapped generator through the breaker. ErrCircuitOpen
// comes back tagged as an upstream failure so callers classify it like any
// other provider outage.
func (g *GuardedGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	var out string
	err := g.breaker.Call(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.inner.Generate(ctx, system, prompt)
		return err
	})
	if err == ErrCircuitOpen {
		return "", llm.NewError(llm.KindUpstream, err)
	}
	return out, err
}

// Breaker exposes the underlying breaker for state inspection.
func (g *GuardedGenerator) Breaker() *Breaker { return g.breaker }
