// Package ai sends prompts to a hosted text generation model.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/juju/ratelimit"
)

var (
	// ErrMissingCredential is returned when no API key is available.
	ErrMissingCredential = errors.New("missing credential")
	// ErrMalformedCredential is returned when the API key can't be sent as-is.
	ErrMalformedCredential = errors.New("malformed credential")
	// ErrRateLimited is returned when the local request budget is spent.
	ErrRateLimited = errors.New("rate limit exceeded, try again later")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty response")
)

// DefaultEndpoint is the base URL of the Gemini REST API.
const DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client talks to the Gemini generateContent API.
type Client struct {
	Endpoint   string
	Model      string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	// Limiter, if set, must have a token available for a request to be sent.
	Limiter *ratelimit.Bucket
}

var _ Generator = (*Client)(nil)

// NewLimiter returns a bucket allowing perMinute requests each minute, or nil
// for no limit.
func NewLimiter(perMinute int) *ratelimit.Bucket {
	if perMinute <= 0 {
		return nil
	}
	return ratelimit.NewBucketWithQuantum(time.Minute, int64(perMinute), int64(perMinute))
}

// CheckCredential validates an API key before it's put in a request header.
func CheckCredential(key string) error {
	if key == "" {
		return ErrMissingCredential
	}
	for _, r := range key {
		if r <= ' ' || r == 0x7f {
			return ErrMalformedCredential
		}
	}
	return nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate sends prompt as a single user message and returns the reply text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if err := CheckCredential(c.APIKey); err != nil {
		return "", err
	}
	if c.Limiter != nil && c.Limiter.TakeAvailable(1) == 0 {
		return "", ErrRateLimited
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("request timed out after %v", timeout)
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("service error (%s): %s", resp.Status, apiErr.Error.Message)
		}
		return "", fmt.Errorf("service error (%s)", resp.Status)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if fb := parsed.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", fb.BlockReason)
	}

	var out strings.Builder
	// Only the first candidate is used.
	if len(parsed.Candidates) > 0 {
		for _, p := range parsed.Candidates[0].Content.Parts {
			out.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", ErrEmptyResponse
	}

	return out.String(), nil
}

func (c *Client) url() string {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(endpoint, "/"), url.PathEscape(c.Model))
}
