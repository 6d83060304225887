package freeradical

import (
	"context"
	"encoding/json"
	"net/http"
)

func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	body, err := c.get(ctx, "/api/webhooks", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Webhook](body, "webhooks")
}

func (c *Client) CreateWebhook(ctx context.Context, input CreateWebhookInput) (*Webhook, error) {
	body, err := c.write(ctx, http.MethodPost, "/api/webhooks", nil, input)
	if err != nil {
		return nil, err
	}
	return decodeOne[Webhook](body)
}

func (c *Client) UpdateWebhook(ctx context.Context, id int64, input UpdateWebhookInput) (*Webhook, error) {
	body, err := c.write(ctx, http.MethodPut, "/api/webhooks/{id}", intIDParam(id), input)
	if err != nil {
		return nil, err
	}
	return decodeOne[Webhook](body)
}

func (c *Client) DeleteWebhook(ctx context.Context, id int64) error {
	return c.remove(ctx, "/api/webhooks/{id}", intIDParam(id))
}

// TestWebhook asks the server to deliver a test event and returns its
// answer verbatim.
func (c *Client) TestWebhook(ctx context.Context, id int64) (json.RawMessage, error) {
	body, err := c.write(ctx, http.MethodPost, "/api/webhooks/{id}/test", intIDParam(id), nil)
	if err != nil {
		return nil, err
	}
	return passthrough(body), nil
}

func (c *Client) WebhookLogs(ctx context.Context, id int64) ([]WebhookLog, error) {
	body, err := c.get(ctx, "/api/webhooks/{id}/logs", nil, intIDParam(id))
	if err != nil {
		return nil, err
	}
	return decodeList[WebhookLog](body, "logs")
}
