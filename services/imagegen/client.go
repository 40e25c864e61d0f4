// Package imagegen is a thin collaborator around an image-generation API:
// prompt in, hosted image URL out. Single generations go through the guard;
// batch generation fans out on a bounded worker pool.
package imagegen

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

// Client calls an image-generation endpoint under guard protection.
type Client struct {
	baseURL string
	apiKey  string
	width   int
	height  int
	guard   *guard.Guard
}

// New creates an image-generation client producing width x height images.
func New(baseURL, apiKey string, width, height int, g *guard.Guard) *Client {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 512
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		width:   width,
		height:  height,
		guard:   g,
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type generateResponse struct {
	ImageURL string `json:"image_url"`
	Error    string `json:"error,omitempty"`
}

// Generate produces an image for prompt and returns its URL. Repeated
// prompts at the same dimensions are served from the cache.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	spec := guard.CallSpec{
		Name:      "imagegen.generate",
		Args:      []any{prompt},
		Kwargs:    map[string]any{"width": c.width, "height": c.height},
		KeyPrefix: "imagegen",
		RateKey:   "image_api",
		Kind:      guard.KindImage,
	}

	return guard.Call(c.guard, ctx, spec, func(ctx context.Context) (string, error) {
		return c.post(ctx, generateRequest{Prompt: prompt, Width: c.width, Height: c.height})
	})
}

// GenerateBatch produces one image per prompt on at most workers concurrent
// calls. Each prompt still passes through the guard individually, so the
// rate limiter and breaker see every call. Failures are reported per item.
func (c *Client) GenerateBatch(ctx context.Context, prompts []string, workers int) []guard.BatchResult[string] {
	log.Infof("%s Generating %d images with %d workers", logcolors.LogImageGen, len(prompts), workers)
	return guard.RunBatch(ctx, workers, prompts, func(ctx context.Context, jobID string, prompt string) (string, error) {
		return c.Generate(ctx, prompt)
	})
}

func (c *Client) post(ctx context.Context, payload generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images", bytes.NewReader(body))
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
		log.Warnf("%s Request failed with status %d", logcolors.LogImageGen, resp.StatusCode)
		return "", fmt.Errorf("image generation failed with status %d: %s", resp.StatusCode, string(data))
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("image generation error: %s", out.Error)
	}

	return out.ImageURL, nil
}
