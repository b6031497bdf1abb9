package generator

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed intents.yaml
var defaultIntents []byte

// Intent groups the phrasings of one user intention with its replies.
type Intent struct {
	Tag       string   `yaml:"tag"`
	Patterns  []string `yaml:"patterns"`
	Responses []string `yaml:"responses"`
}

// Intents is the document loaded by the rules generator.
type Intents struct {
	Fallback  string   `yaml:"fallback"`
	Threshold float64  `yaml:"threshold"`
	Intents   []Intent `yaml:"intents"`
}

// ParseIntents decodes and validates an intents document.
func ParseIntents(b []byte) (Intents, error) {
	var in Intents
	if err := yaml.Unmarshal(b, &in); err != nil {
		return Intents{}, fmt.Errorf("parse intents: %w", err)
	}
	if in.Fallback == "" {
		in.Fallback = DefaultFallback
	}
	if in.Threshold <= 0 {
		in.Threshold = 0.5
	}
	if len(in.Intents) == 0 {
		return Intents{}, errors.New("intents: no intents defined")
	}
	for i, it := range in.Intents {
		if len(it.Patterns) == 0 || len(it.Responses) == 0 {
			return Intents{}, fmt.Errorf("intents: intent %d (%q) needs patterns and responses", i, it.Tag)
		}
	}
	return in, nil
}

// LoadIntents reads an intents document from path.
func LoadIntents(path string) (Intents, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Intents{}, err
	}
	return ParseIntents(b)
}

// DefaultIntents returns the built-in intents.
func DefaultIntents() Intents {
	in, err := ParseIntents(defaultIntents)
	if err != nil {
		panic(err)
	}
	return in
}

type pattern struct {
	intent int
	tokens map[string]struct{}
}

// Rules answers by matching the message against intent patterns. It is
// read-only after construction and safe for concurrent use.
type Rules struct {
	intents  Intents
	patterns []pattern
}

// NewRules builds a rules generator from in.
func NewRules(in Intents) *Rules {
	r := &Rules{intents: in}
	for i, it := range in.Intents {
		for _, p := range it.Patterns {
			set := map[string]struct{}{}
			for _, tok := range tokenize(p) {
				set[tok] = struct{}{}
			}
			if len(set) == 0 {
				continue
			}
			r.patterns = append(r.patterns, pattern{intent: i, tokens: set})
		}
	}
	return r
}

// Generate implements Generator. The reply for a given input is stable.
func (r *Rules) Generate(ctx context.Context, message *string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if blank(message) {
		return r.intents.Fallback, nil
	}
	toks := tokenize(*message)
	it, ok := r.match(toks)
	if !ok {
		return r.intents.Fallback, nil
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.Join(toks, " ")))
	return it.Responses[int(h.Sum32()%uint32(len(it.Responses)))], nil
}

// Match returns the tag of the intent message resolves to, if any.
func (r *Rules) Match(message string) (string, bool) {
	it, ok := r.match(tokenize(message))
	if !ok {
		return "", false
	}
	return it.Tag, true
}

func (r *Rules) match(toks []string) (Intent, bool) {
	if len(toks) == 0 {
		return Intent{}, false
	}
	words := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		words[t] = struct{}{}
	}
	best, bestScore := -1, 0.0
	for _, p := range r.patterns {
		hits := 0
		for tok := range p.tokens {
			if _, ok := words[tok]; ok {
				hits++
			}
		}
		score := float64(hits) / float64(len(p.tokens))
		// patterns are ordered by intent, so the first intent wins ties
		if score > bestScore {
			best, bestScore = p.intent, score
		}
	}
	if best < 0 || bestScore < r.intents.Threshold {
		return Intent{}, false
	}
	return r.intents.Intents[best], true
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '\''
	})
}
