package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Ollama answers messages with a model served by an Ollama instance.
type Ollama struct {
	BaseURL  string
	Model    string
	APIKey   string
	Fallback string

	httpClient *http.Client
}

// NewOllama returns a generator using model at base.
func NewOllama(base, model, apiKey string) *Ollama {
	return &Ollama{
		BaseURL:    strings.TrimRight(base, "/"),
		Model:      model,
		APIKey:     apiKey,
		Fallback:   DefaultFallback,
		httpClient: &http.Client{},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// Generate implements Generator. Absent or blank messages get the fallback
// reply without contacting Ollama.
func (o *Ollama) Generate(ctx context.Context, message *string) (string, error) {
	if blank(message) {
		return o.Fallback, nil
	}
	b, err := json.Marshal(ollamaGenerateRequest{Model: o.Model, Prompt: *message})
	if err != nil {
		return "", err
	}
	resp, err := o.do(ctx, http.MethodPost, "/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode ollama response: %w", ErrUpstream, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: ollama: %s", ErrUpstream, out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}

// Models lists the model names available on the Ollama instance.
func (o *Ollama) Models(ctx context.Context) ([]string, error) {
	resp, err := o.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	var v struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: decode ollama tags: %w", ErrUpstream, err)
	}
	models := make([]string, 0, len(v.Models))
	for _, m := range v.Models {
		models = append(models, m.Name)
	}
	return models, nil
}

func (o *Ollama) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, o.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: ollama %s %s: status %d: %s", ErrUpstream, method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}
