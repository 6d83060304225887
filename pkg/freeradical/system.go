package freeradical

import (
	"context"
	"encoding/json"
	"net/http"
)

// Health returns the server's health payload verbatim.
func (c *Client) Health(ctx context.Context) (json.RawMessage, error) {
	body, err := c.get(ctx, "/api/health", nil, nil)
	if err != nil {
		return nil, err
	}
	return passthrough(body), nil
}

// Metrics returns the server's metrics payload verbatim.
func (c *Client) Metrics(ctx context.Context) (json.RawMessage, error) {
	body, err := c.get(ctx, "/api/metrics", nil, nil)
	if err != nil {
		return nil, err
	}
	return passthrough(body), nil
}

func (c *Client) AnalyticsSummary(ctx context.Context) (*AnalyticsSummary, error) {
	body, err := c.get(ctx, "/api/analytics/summary", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[AnalyticsSummary](body)
}

func (c *Client) TrackVisit(ctx context.Context, input VisitInput) error {
	_, err := c.write(ctx, http.MethodPost, "/api/analytics/visits", nil, input)
	return err
}
