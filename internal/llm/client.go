// Package llm is the HTTP client for the coverage-judgment and title
// generation service. Both calls sit behind interfaces defined in the
// analysis package; pipeline code never talks to this client directly, so
// tests run on fakes and the verifier's deterministic fallback covers
// outages.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/metrics"
	"github.com/YvesMatteo/GapIntel-sub002/pkg/retry"
)

// Client talks to the LLM service over HTTP JSON with the LLM retry policy.
// It implements analysis.CoverageJudge and analysis.TitleGenerator.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	policy  retry.Policy
}

// NewClient builds an LLM client. The per-request timeout is generous
// because classification calls routinely take several seconds.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
		policy:  retry.LLMPolicy(),
	}
}

// JudgeCoverage asks whether the given transcript evidence explains the
// topic in genuine detail.
func (c *Client) JudgeCoverage(ctx context.Context, topic, evidence string) (bool, error) {
	req := struct {
		Topic    string `json:"topic"`
		Evidence string `json:"evidence"`
	}{Topic: topic, Evidence: evidence}

	var resp struct {
		Detailed bool `json:"detailed"`
	}
	if err := c.postJSON(ctx, "judge_coverage", "/v1/coverage/judge", req, &resp); err != nil {
		return false, err
	}
	return resp.Detailed, nil
}

// GenerateTitles asks for up to n viral title candidates for a topic.
func (c *Client) GenerateTitles(ctx context.Context, topic string, keywords []string, n int) ([]string, error) {
	req := struct {
		Topic    string   `json:"topic"`
		Keywords []string `json:"keywords"`
		Count    int      `json:"count"`
	}{Topic: topic, Keywords: keywords, Count: n}

	var resp struct {
		Titles []string `json:"titles"`
	}
	if err := c.postJSON(ctx, "generate_titles", "/v1/titles/generate", req, &resp); err != nil {
		return nil, err
	}
	return resp.Titles, nil
}

// postJSON performs one POST under the retry policy: 429 and 5xx retry,
// other client errors fail immediately.
func (c *Client) postJSON(ctx context.Context, operation, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	err = c.policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			statusErr := fmt.Errorf("llm service returned status %d", resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return statusErr
			}
			return retry.Permanent(statusErr)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	})

	metrics.LLMCall(operation, err)
	if err != nil {
		log.Warn().Err(err).Str("component", "llm").Str("operation", operation).
			Msg("llm call failed")
	}
	return err
}
