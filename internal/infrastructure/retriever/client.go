package retriever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/productrecommend/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Request outcome labels passed to the RequestObserver
const (
	StatusOK          = "ok"
	StatusClientError = "client_error"
	StatusServerError = "server_error"
	StatusTransport   = "transport_error"
)

// RequestObserver is notified of every upstream attempt
type RequestObserver interface {
	ObserveRetrieverRequest(status string)
}

// ClientConfig holds retrieval backend client settings
type ClientConfig struct {
	BaseURL       string
	APIKey        string
	TopK          int
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	MaxRetries    int
}

// Client talks to the upstream retrieval/LLM backend
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	topK        int
	maxRetries  int
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	observer    RequestObserver
	debug       bool
}

type retrieveRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

// NewClient creates a new retrieval backend client
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 1
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		topK:        cfg.TopK,
		maxRetries:  cfg.MaxRetries,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		backoff:     exponentialBackoff,
	}
}

// SetDebug enables verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SetObserver registers an observer for upstream attempts
func (c *Client) SetObserver(observer RequestObserver) {
	c.observer = observer
}

// maxBackoffExponent caps the backoff at 500ms * 2^6 = 32s
const maxBackoffExponent = 6

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	exp := min(max(attempt-1, 0), maxBackoffExponent)
	return time.Duration(500*(1<<exp)) * time.Millisecond
}

// Retrieve asks the backend for candidate documents matching query.
// Transport errors and 5xx responses are retried; 4xx responses are not.
// A body that is not a list of documents is returned as a *domain.ParseError.
func (c *Client) Retrieve(ctx context.Context, query string) ([]domain.Document, error) {
	payload, err := json.Marshal(retrieveRequest{Query: query, K: c.topK})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, retry, err := c.do(ctx, payload)
		if err == nil {
			docs, err := domain.DecodeDocuments(body)
			if err != nil {
				log.Printf("[RETRIEVER] Malformed response for %q", query)
				return nil, err
			}
			if c.debug {
				log.Printf("[RETRIEVER] %d candidates for %q", len(docs), query)
			}
			return docs, nil
		}

		log.Printf("[RETRIEVER] Attempt %d failed: %v", attempt, err)
		lastErr = err
		if !retry {
			return nil, err
		}
	}

	log.Printf("[RETRIEVER] All retries failed for %q", query)
	return nil, lastErr
}

// do performs one POST and reports whether a failure is worth retrying
func (c *Client) do(ctx context.Context, payload []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/retrieve", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "productrec/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(StatusTransport)
		if ctx.Err() != nil {
			return nil, false, fmt.Errorf("%w: %v", domain.ErrRetrieverFailure, err)
		}
		return nil, true, fmt.Errorf("%w: %v", domain.ErrRetrieverFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(StatusTransport)
		return nil, true, fmt.Errorf("%w: reading body: %v", domain.ErrRetrieverFailure, err)
	}

	switch {
	case resp.StatusCode >= 500:
		c.observe(StatusServerError)
		return nil, true, fmt.Errorf("%w: status %d", domain.ErrRetrieverFailure, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		c.observe(StatusClientError)
		return nil, false, fmt.Errorf("%w: status %d, body: %s", domain.ErrRetrieverFailure, resp.StatusCode, string(body))
	}

	c.observe(StatusOK)
	return body, false, nil
}

func (c *Client) observe(status string) {
	if c.observer != nil {
		c.observer.ObserveRetrieverRequest(status)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
