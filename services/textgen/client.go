// Package textgen is a thin collaborator around a text-generation API.
// Every call goes through the resilience guard; the wire shape is a minimal
// prompt-in / text-out JSON exchange.
package textgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"coursegen-go/guard"
	"coursegen-go/logcolors"

	log "github.com/sirupsen/logrus"
)

var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// Client calls a text-generation endpoint under guard protection.
type Client struct {
	baseURL string
	apiKey  string
	guard   *guard.Guard
}

// New creates a text-generation client. The guard supplies caching, rate
// limiting, circuit breaking and retries for every call.
func New(baseURL, apiKey string, g *guard.Guard) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		guard:   g,
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model,omitempty"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Generate produces text for prompt, optionally pinning a model. Identical
// prompt/model pairs are served from the cache.
func (c *Client) Generate(ctx context.Context, prompt, model string) (string, error) {
	spec := guard.CallSpec{
		Name:      "textgen.generate",
		Args:      []any{prompt},
		Kwargs:    map[string]any{"model": model},
		KeyPrefix: "textgen",
		RateKey:   "llm_api",
		Kind:      guard.KindLLM,
	}

	return guard.Call(c.guard, ctx, spec, func(ctx context.Context) (string, error) {
		return c.post(ctx, generateRequest{Prompt: prompt, Model: model})
	})
}

func (c *Client) post(ctx context.Context, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Warnf("%s Request failed with status %d", logcolors.LogTextGen, resp.StatusCode)
		return "", fmt.Errorf("text generation failed with status %d: %s", resp.StatusCode, string(data))
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("text generation error: %s", out.Error)
	}

	return out.Text, nil
}
