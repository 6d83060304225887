package freeradical

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout = 10 * time.Second

	headerAPIKey    = "X-API-Key"
	defaultAgent    = "freeradical-go"
	jsonContentType = "application/json"
)

// Logger receives transport diagnostics. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

// Config describes how a Client reaches the API.
type Config struct {
	// BaseURL is the API origin, e.g. "https://cms.example.com". Required.
	BaseURL string
	// APIKey is sent as X-API-Key when set.
	APIKey string
	// Token is sent as "Authorization: Bearer <token>" when set.
	Token string
	// Timeout bounds every request. Zero means DefaultTimeout.
	Timeout time.Duration
	// UserAgent overrides the default User-Agent header.
	UserAgent string
	// OnUnauthorized is invoked for every 401 response before the error is
	// returned to the caller.
	OnUnauthorized func(*APIError)
	Logger         Logger
	// Debug makes the transport log every request and response.
	Debug bool
}

// Client is safe for concurrent use. It holds no mutable state.
type Client struct {
	cfg  Config
	base *url.URL
	http *resty.Client
}

func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("freeradical: base URL is required")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("freeradical: invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("freeradical: base URL %q must be absolute", raw)
	}
	cfg.BaseURL = strings.TrimRight(raw, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultAgent
	}

	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", jsonContentType).
		SetHeader("Accept", jsonContentType).
		SetHeader("User-Agent", cfg.UserAgent).
		SetDebug(cfg.Debug)
	if cfg.APIKey != "" {
		hc.SetHeader(headerAPIKey, cfg.APIKey)
	}
	if cfg.Token != "" {
		hc.SetAuthToken(cfg.Token)
	}
	if cfg.Logger != nil {
		hc.SetLogger(restyLogger{cfg.Logger})
	}
	if cfg.OnUnauthorized != nil {
		notify := cfg.OnUnauthorized
		hc.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() == http.StatusUnauthorized {
				notify(newAPIError(resp.StatusCode(), resp.Body()))
			}
			return nil
		})
	}
	return &Client{cfg: cfg, base: base, http: hc}, nil
}

// WithToken returns a new client with the same configuration and a different
// bearer token. An empty token yields a client without an Authorization header.
func (c *Client) WithToken(token string) (*Client, error) {
	cfg := c.cfg
	cfg.Token = token
	return New(cfg)
}

// BaseURL reports the normalized base URL.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// send executes req and returns the raw body of a 2xx response.
func (c *Client) send(req *resty.Request, method, path string) ([]byte, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, newTransportError(method, path, err)
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode(), resp.Body())
	}
	return resp.Body(), nil
}

func (c *Client) get(ctx context.Context, path string, q query, pathParams map[string]string) ([]byte, error) {
	req := c.request(ctx).SetPathParams(pathParams)
	return c.send(req, http.MethodGet, q.appendTo(path))
}

func (c *Client) write(ctx context.Context, method, path string, pathParams map[string]string, body any) ([]byte, error) {
	req := c.request(ctx).SetPathParams(pathParams)
	if body != nil {
		req.SetBody(body)
	}
	return c.send(req, method, path)
}

func (c *Client) remove(ctx context.Context, path string, pathParams map[string]string) error {
	_, err := c.send(c.request(ctx).SetPathParams(pathParams), http.MethodDelete, path)
	return err
}

func decodeOne[T any](body []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("freeradical: decode response: %w", err)
	}
	return &out, nil
}

// decodeList accepts a bare JSON array or an object wrapping the array under
// one of keys.
func decodeList[T any](body []byte, keys ...string) ([]T, error) {
	raw, err := unwrapList(body, keys...)
	if err != nil {
		return nil, err
	}
	items := []T{}
	if len(raw) == 0 || string(raw) == "null" {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("freeradical: decode list: %w", err)
	}
	return items, nil
}

func unwrapList(body []byte, keys ...string) (json.RawMessage, error) {
	trimmed := trimJSON(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}
	wrapped := map[string]json.RawMessage{}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("freeradical: decode list: %w", err)
	}
	candidates := append(append([]string{}, keys...), "items", "data")
	for _, key := range candidates {
		if raw, ok := wrapped[key]; ok {
			return trimJSON(raw), nil
		}
	}
	return nil, errors.New("freeradical: decode list: response object holds no list")
}

// unwrapObject returns wrapped[key] when body is an object whose only member
// is key, otherwise body itself.
func unwrapObject(body []byte, key string) ([]byte, error) {
	trimmed := trimJSON(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed, nil
	}
	wrapped := map[string]json.RawMessage{}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("freeradical: decode response: %w", err)
	}
	if inner, ok := wrapped[key]; ok && len(wrapped) == 1 {
		return inner, nil
	}
	return trimmed, nil
}

func trimJSON(body []byte) json.RawMessage {
	return json.RawMessage(strings.TrimSpace(string(body)))
}

// passthrough returns the body verbatim, or JSON null for an empty body.
func passthrough(body []byte) json.RawMessage {
	trimmed := trimJSON(body)
	if len(trimmed) == 0 {
		return json.RawMessage("null")
	}
	out := make(json.RawMessage, len(trimmed))
	copy(out, trimmed)
	return out
}

type restyLogger struct {
	l Logger
}

func (r restyLogger) Errorf(format string, v ...any) { r.l.Printf("ERROR "+format, v...) }
func (r restyLogger) Warnf(format string, v ...any)  { r.l.Printf("WARN "+format, v...) }
func (r restyLogger) Debugf(format string, v ...any) { r.l.Printf("DEBUG "+format, v...) }
