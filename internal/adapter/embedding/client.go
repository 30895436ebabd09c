// Package embedding provides the text-embedding client.
//
// It talks to an OpenAI-compatible /embeddings endpoint (e.g. a
// text-embeddings-inference server hosting a sentence-transformers model).
// The model is treated as a black box: string in, fixed-length unit vector
// out, deterministic for a given model version.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
)

// Client implements domain.Embedder against an OpenAI-compatible API.
// It is stateless and safe for concurrent use; the expected dimension is
// validated once, guarded against duplicate concurrent initialization.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dim        int
	httpClient *http.Client

	maxElapsed      time.Duration
	initialInterval time.Duration
	maxInterval     time.Duration

	initOnce sync.Once
	initErr  error
}

// New constructs a Client for the given endpoint and model.
func New(baseURL, apiKey, model string, dim int, maxElapsed, initialInterval, maxInterval time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		dim:     dim,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxElapsed:      maxElapsed,
		initialInterval: initialInterval,
		maxInterval:     maxInterval,
	}
}

// ModelName returns the model identifier persisted next to every embedding.
func (c *Client) ModelName() string { return c.model }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// retryableError marks transient failures worth retrying within one call.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Embed returns the unit-normalized vector for text. Transient upstream
// failures (429/5xx, transport errors) are retried with exponential backoff
// inside this single call; once the backoff budget is exhausted the error is
// final, matching the pipeline's no-retry contract.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	// First successful call pins down the deployment's dimension contract.
	c.initOnce.Do(func() {
		if c.dim <= 0 {
			c.initErr = fmt.Errorf("embedding dimension must be positive, got %d", c.dim)
		}
	})
	if c.initErr != nil {
		return nil, c.initErr
	}

	var vec []float32
	op := func() error {
		v, err := c.embedOnce(ctx, text)
		if err != nil {
			var re *retryableError
			if errors.As(err, &re) {
				return err
			}
			return backoff.Permanent(err)
		}
		vec = v
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialInterval
	bo.MaxInterval = c.maxInterval
	bo.MaxElapsedTime = c.maxElapsed

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		observability.EmbedRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("op=embedding.embed: %w", err)
	}
	observability.EmbedRequestsTotal.WithLabelValues("ok").Inc()
	return vec, nil
}

func (c *Client) embedOnce(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: c.model, Input: []string{text}})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &retryableError{err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &retryableError{err: fmt.Errorf("embeddings status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embeddings status %d: %s", resp.StatusCode, b)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("embeddings response has no data")
	}
	vec := out.Data[0].Embedding
	if len(vec) != c.dim {
		return nil, fmt.Errorf("embedding dimension %d, want %d", len(vec), c.dim)
	}
	return normalizeUnit(vec), nil
}

// normalizeUnit rescales to unit length. Servers normally return normalized
// vectors already; this keeps the 1 - distance = similarity identity exact.
func normalizeUnit(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	n := math.Sqrt(sum)
	if n == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) / n)
	}
	return out
}
