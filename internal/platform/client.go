package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/YvesMatteo/GapIntel-sub002/internal/metrics"
	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
	"github.com/YvesMatteo/GapIntel-sub002/pkg/retry"
)

// Source is what the ingestion service needs from the content platform.
type Source interface {
	FetchVideos(ctx context.Context, channelID string) ([]model.Video, error)
	FetchComments(ctx context.Context, channelID string) ([]model.Comment, error)
	FetchTranscripts(ctx context.Context, videoIDs []string) (map[string]model.Transcript, error)
}

// Client is an HTTP JSON client for the content-platform data API. Rate
// limits (429) and server errors retry with backoff; other client errors
// fail immediately.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	policy  retry.Policy
}

// NewClient builds a platform client with the platform retry policy and a
// per-request timeout.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		policy:  retry.PlatformPolicy(),
	}
}

// FetchVideos returns the channel's uploads, newest first as the platform
// serves them.
func (c *Client) FetchVideos(ctx context.Context, channelID string) ([]model.Video, error) {
	var out struct {
		Videos []model.Video `json:"videos"`
	}
	err := c.getJSON(ctx, "videos", "/v1/channels/"+url.PathEscape(channelID)+"/videos", &out)
	if err != nil {
		return nil, fmt.Errorf("fetch videos for %s: %w", channelID, err)
	}
	return out.Videos, nil
}

// FetchComments returns the channel's comments across all collected videos.
func (c *Client) FetchComments(ctx context.Context, channelID string) ([]model.Comment, error) {
	var out struct {
		Comments []model.Comment `json:"comments"`
	}
	err := c.getJSON(ctx, "comments", "/v1/channels/"+url.PathEscape(channelID)+"/comments", &out)
	if err != nil {
		return nil, fmt.Errorf("fetch comments for %s: %w", channelID, err)
	}
	return out.Comments, nil
}

// FetchTranscripts returns transcripts for the given videos. Videos without
// captions are simply absent from the result; that is not an error.
func (c *Client) FetchTranscripts(ctx context.Context, videoIDs []string) (map[string]model.Transcript, error) {
	transcripts := make(map[string]model.Transcript, len(videoIDs))
	for _, id := range videoIDs {
		var out model.Transcript
		err := c.getJSON(ctx, "transcripts", "/v1/videos/"+url.PathEscape(id)+"/transcript", &out)
		if err != nil {
			var status statusError
			if errors.As(err, &status) && status.code == http.StatusNotFound {
				continue
			}
			return nil, fmt.Errorf("fetch transcript for %s: %w", id, err)
		}
		out.VideoID = id
		transcripts[id] = out
	}
	return transcripts, nil
}

// getJSON performs one GET under the retry policy and decodes the body.
func (c *Client) getJSON(ctx context.Context, operation, path string, out interface{}) error {
	err := c.policy.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return retry.Permanent(err)
		}
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
			return classifyStatus(resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return retry.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	})

	metrics.PlatformCall(operation, err)
	if err != nil {
		log.Warn().Err(err).Str("component", "platform").Str("operation", operation).
			Msg("platform call failed")
	}
	return err
}

// statusError carries the HTTP status of a failed call so callers can
// distinguish not-found from real failures.
type statusError struct {
	code int
}

func (e statusError) Error() string {
	return fmt.Sprintf("platform returned status %d", e.code)
}

// classifyStatus maps a non-200 response onto the retry policy: 429 and 5xx
// are transient, everything else is permanent.
func classifyStatus(code int) error {
	err := statusError{code: code}
	if code == http.StatusTooManyRequests || code >= 500 {
		return err
	}
	return retry.Permanent(err)
}

