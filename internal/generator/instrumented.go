package generator

import (
	"context"
	"errors"
	"time"
)

// Generation outcomes reported to an Observer.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

// Observer records the outcome and duration of each generation.
type Observer interface {
	ObserveGeneration(outcome string, d time.Duration)
}

// Instrumented reports every call of an inner generator to an Observer.
type Instrumented struct {
	inner    Generator
	observer Observer
}

// NewInstrumented wraps inner.
func NewInstrumented(inner Generator, observer Observer) *Instrumented {
	return &Instrumented{inner: inner, observer: observer}
}

// Generate implements Generator.
func (g *Instrumented) Generate(ctx context.Context, message *string) (string, error) {
	start := time.Now()
	answer, err := g.inner.Generate(ctx, message)
	g.observer.ObserveGeneration(Outcome(err), time.Since(start))
	return answer, err
}

// Outcome classifies a generation error.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}
