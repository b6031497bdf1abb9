package generator

import (
	"fmt"

	"github.com/gaspardpetit/chatpredict/internal/config"
)

// New constructs the generator selected by cfg.Generator.
func New(cfg config.ServerConfig) (Generator, error) {
	switch cfg.Generator {
	case config.GeneratorEcho:
		return Echo{}, nil
	case config.GeneratorOllama:
		return NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.OllamaAPIKey), nil
	case config.GeneratorRules, "":
		in := DefaultIntents()
		if cfg.IntentsFile != "" {
			var err error
			if in, err = LoadIntents(cfg.IntentsFile); err != nil {
				return nil, fmt.Errorf("load intents %s: %w", cfg.IntentsFile, err)
			}
		}
		return NewRules(in), nil
	default:
		return nil, fmt.Errorf("unknown generator %q", cfg.Generator)
	}
}

// Namespace identifies a configured generator in cache keys.
func Namespace(cfg config.ServerConfig) string {
	switch cfg.Generator {
	case config.GeneratorOllama:
		return cfg.Generator + ":" + cfg.OllamaModel
	case config.GeneratorRules, "":
		if cfg.IntentsFile != "" {
			return config.GeneratorRules + ":" + cfg.IntentsFile
		}
		return config.GeneratorRules
	default:
		return cfg.Generator
	}
}
