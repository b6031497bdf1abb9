package generator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gaspardpetit/chatpredict/internal/config"
)

type recordingObserver struct{ outcomes []string }

func (o *recordingObserver) ObserveGeneration(outcome string, d time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

func TestInstrumented(t *testing.T) {
	obs := &recordingObserver{}
	errs := []error{nil, errors.New("x"), fmt.Errorf("wrapped: %w", context.DeadlineExceeded)}
	i := 0
	g := NewInstrumented(Func(func(ctx context.Context, m *string) (string, error) {
		err := errs[i]
		i++
		return "", err
	}), obs)
	for range errs {
		_, _ = g.Generate(context.Background(), nil)
	}
	want := []string{OutcomeSuccess, OutcomeError, OutcomeTimeout}
	for k := range want {
		if obs.outcomes[k] != want[k] {
			t.Fatalf("outcomes = %v; want %v", obs.outcomes, want)
		}
	}
}

func TestNewFromConfig(t *testing.T) {
	cases := map[string]string{
		config.GeneratorRules:  "*generator.Rules",
		config.GeneratorEcho:   "generator.Echo",
		config.GeneratorOllama: "*generator.Ollama",
	}
	for kind, typ := range cases {
		var cfg config.ServerConfig
		cfg.Generator = kind
		cfg.SetDefaults()
		g, err := New(cfg)
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if got := fmt.Sprintf("%T", g); got != typ {
			t.Fatalf("%s: type %s; want %s", kind, got, typ)
		}
	}
	if _, err := New(config.ServerConfig{Generator: "nope"}); err == nil {
		t.Fatalf("expected error for unknown generator")
	}
	if _, err := New(config.ServerConfig{Generator: config.GeneratorRules, IntentsFile: "/does/not/exist.yaml"}); err == nil {
		t.Fatalf("expected error for missing intents file")
	}
}

func TestNamespace(t *testing.T) {
	if Namespace(config.ServerConfig{Generator: config.GeneratorOllama, OllamaModel: "m"}) != "ollama:m" {
		t.Fatalf("ollama namespace")
	}
	if Namespace(config.ServerConfig{}) != "rules" {
		t.Fatalf("default namespace")
	}
}
