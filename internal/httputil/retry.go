// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the JSON-over-HTTP client shared by the model
// executor and the monitor plugin.
package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

const defaultMaxRetries = 5

// statusOverloaded is returned by the Messages API when it sheds load.
const statusOverloaded = 529

// StatusError is returned by PostJSON for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Client sends requests and retries on HTTP 429 and 529 with exponential
// backoff. The zero value uses http.DefaultClient, five retries and no logging.
type Client struct {
	HTTP       *http.Client
	MaxRetries int
	UserAgent  string
	Logger     *zap.Logger
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code == statusOverloaded
}

// Do executes req, retrying on 429 and 529. The delay starts at
// RetryBaseDelay and doubles each attempt. Request bodies are replayed via
// req.GetBody, which http.NewRequest sets for in-memory readers.
//
// If the context is cancelled during a backoff wait Do returns ctx.Err().
// After exhausting retries the last retryable response is returned so the
// caller can inspect it.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	log := c.Logger
	if log == nil {
		log = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		attemptReq := req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			attemptReq.Body = body
		}
		if c.UserAgent != "" {
			attemptReq.Header.Set("User-Agent", c.UserAgent)
		}

		resp, err := client.Do(attemptReq)
		if err != nil {
			return nil, err
		}
		if !retryable(resp.StatusCode) || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		log.Warn("rate limited, backing off",
			zap.String("url", req.URL.String()),
			zap.Int("status", resp.StatusCode),
			zap.Duration("backoff", backoff),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", maxRetries))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}

// PostJSON marshals in, POSTs it to url with headers, and decodes a 2xx
// response body into out. A nil out discards the body. Non-2xx responses
// return a *StatusError.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
