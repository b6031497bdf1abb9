// Package generator produces answers for chat messages.
//
// A message is passed as a *string: nil means the caller supplied no message
// at all, which implementations answer with their fallback reply rather than
// treating it as an error.
package generator

import (
	"context"
	"errors"
	"strings"
)

// DefaultFallback is returned when a generator has nothing better to say.
const DefaultFallback = "I do not understand..."

// ErrUpstream marks failures of a remote generation backend.
var ErrUpstream = errors.New("upstream generator failure")

// Generator maps an optional input message to a reply.
type Generator interface {
	Generate(ctx context.Context, message *string) (string, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, message *string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, message *string) (string, error) {
	return f(ctx, message)
}

// Echo replies with the message itself, or the empty string when absent.
type Echo struct{}

// Generate implements Generator.
func (Echo) Generate(ctx context.Context, message *string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if message == nil {
		return "", nil
	}
	return *message, nil
}

// blank reports whether message is absent or only whitespace.
func blank(message *string) bool {
	return message == nil || strings.TrimSpace(*message) == ""
}
