package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"freeradical-go/internal/models"

	"github.com/go-resty/resty/v2"
	"github.com/jmoiron/sqlx"
)

const (
	HeaderEvent     = "X-FreeRadical-Event"
	HeaderSignature = "X-FreeRadical-Signature"
)

// Envelope is the JSON body POSTed to webhook targets.
type Envelope struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// DeliveryResult is what a single delivery attempt produced.
type DeliveryResult struct {
	WebhookID  int64  `json:"webhook_id"`
	Event      string `json:"event"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Sign returns the signature header value for body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// WebhookSender posts envelopes and records each attempt in webhook_logs.
type WebhookSender struct {
	DB     *sqlx.DB
	client *resty.Client
}

func NewWebhookSender(db *sqlx.DB, timeout time.Duration) *WebhookSender {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "freeradical-webhooks")
	return &WebhookSender{DB: db, client: client}
}

// Deliver makes one attempt. A failed target is reported in the result, not
// as an error; err is only set when the attempt could not be recorded.
func (s *WebhookSender) Deliver(ctx context.Context, hook models.Webhook, event string, data any) (DeliveryResult, error) {
	result := DeliveryResult{WebhookID: hook.ID, Event: event}
	body, err := json.Marshal(Envelope{Event: event, Timestamp: time.Now().UTC(), Data: data})
	if err != nil {
		return result, WrapError(err, "encode webhook payload")
	}
	req := s.client.R().
		SetContext(ctx).
		SetHeader(HeaderEvent, event).
		SetBody(body)
	if hook.Secret != "" {
		req.SetHeader(HeaderSignature, Sign(hook.Secret, body))
	}

	start := time.Now()
	resp, err := req.Post(hook.URL)
	result.DurationMS = time.Since(start).Milliseconds()
	switch {
	case err != nil:
		result.Error = err.Error()
	default:
		result.StatusCode = resp.StatusCode()
		result.Success = resp.IsSuccess()
		if !result.Success {
			result.Error = resp.Status()
		}
	}

	_, err = RecordDelivery(s.DB, models.WebhookLog{
		WebhookID:  hook.ID,
		Event:      event,
		StatusCode: result.StatusCode,
		Success:    result.Success,
		Error:      trimString(result.Error, 1024),
		DurationMS: result.DurationMS,
		CreatedAt:  time.Now().UTC(),
	})
	return result, err
}

// Test sends a webhook.test event to a webhook regardless of its
// subscriptions or active flag.
func (s *WebhookSender) Test(ctx context.Context, id int64) (DeliveryResult, error) {
	hook, err := GetWebhook(s.DB, id)
	if err != nil {
		return DeliveryResult{}, err
	}
	return s.Deliver(ctx, hook, EventWebhookTest, map[string]any{
		"webhook_id": hook.ID,
		"message":    "This is a test delivery",
	})
}

type outboundEvent struct {
	name string
	data any
}

// WebhookDispatcher fans content events out to subscribed, active webhooks
// from a single background goroutine.
type WebhookDispatcher struct {
	sender *WebhookSender
	ch     chan outboundEvent
}

func NewWebhookDispatcher(sender *WebhookSender) *WebhookDispatcher {
	return &WebhookDispatcher{sender: sender, ch: make(chan outboundEvent, 64)}
}

// Publish queues an event without blocking; events are dropped when the
// queue is full.
func (d *WebhookDispatcher) Publish(event string, data any) {
	select {
	case d.ch <- outboundEvent{name: event, data: data}:
	default:
		log.Printf("webhooks: queue full, dropped %s", event)
	}
}

func (d *WebhookDispatcher) Run(ctx context.Context) {
	for {
		select {
		case ev := <-d.ch:
			d.dispatch(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (d *WebhookDispatcher) dispatch(ctx context.Context, ev outboundEvent) {
	hooks, err := ListWebhooks(d.sender.DB)
	if err != nil {
		log.Printf("webhooks: list: %v", err)
		return
	}
	for _, hook := range hooks {
		if !hook.Active || !Subscribed(hook, ev.name) {
			continue
		}
		result, err := d.sender.Deliver(ctx, hook, ev.name, ev.data)
		if err != nil {
			log.Printf("webhooks: record delivery %d: %v", hook.ID, err)
			continue
		}
		if !result.Success {
			log.Printf("webhooks: %s to #%d failed: %s", ev.name, hook.ID, result.Error)
		}
	}
}
