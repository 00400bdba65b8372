package platform

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/YvesMatteo/GapIntel-sub002/internal/model"
)

// TrendClient serves per-topic trend and competitor-gap signals from the
// platform's trends endpoint. It satisfies analysis.TrendSource.
type TrendClient struct {
	client *Client
}

// NewTrendClient wraps an existing platform client.
func NewTrendClient(client *Client) *TrendClient {
	return &TrendClient{client: client}
}

// TopicSignals fetches the external signals for one topic. A topic the
// platform has never seen is not an error; both metrics come back missing
// and the ranker renormalizes without them.
func (t *TrendClient) TopicSignals(ctx context.Context, topic string) (model.Metric, model.Metric, error) {
	var out struct {
		TrendScore    model.Metric `json:"trendScore"`
		CompetitorGap model.Metric `json:"competitorGap"`
	}
	err := t.client.getJSON(ctx, "trends", "/v1/trends/"+url.PathEscape(topic), &out)
	if err != nil {
		var status statusError
		if errors.As(err, &status) && status.code == http.StatusNotFound {
			return model.MissingMetric(), model.MissingMetric(), nil
		}
		return model.MissingMetric(), model.MissingMetric(), err
	}
	return out.TrendScore, out.CompetitorGap, nil
}
