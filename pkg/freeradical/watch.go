package freeradical

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// WatchMetrics streams metric samples from /ws/metrics and calls fn for each
// one until ctx is done, fn returns an error, or the server closes the stream.
// The stream requires a bearer token.
func (c *Client) WatchMetrics(ctx context.Context, fn func(json.RawMessage) error) error {
	if c.cfg.Token == "" {
		return errors.New("freeradical: watching metrics requires a token")
	}
	target := c.metricsSocketURL()
	header := http.Header{}
	header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.APIKey != "" {
		header.Set(headerAPIKey, c.cfg.APIKey)
	}
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.Timeout}
	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			apiErr := newAPIError(resp.StatusCode, nil)
			if resp.StatusCode == http.StatusUnauthorized && c.cfg.OnUnauthorized != nil {
				c.cfg.OnUnauthorized(apiErr)
			}
			return apiErr
		}
		return newTransportError(http.MethodGet, "/ws/metrics", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return newTransportError(http.MethodGet, "/ws/metrics", err)
		}
		if err := fn(passthrough(payload)); err != nil {
			return err
		}
	}
}

func (c *Client) metricsSocketURL() string {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/metrics"
	u.RawQuery = url.Values{"token": []string{c.cfg.Token}}.Encode()
	return u.String()
}
