package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"freeradical-go/internal/models"

	"github.com/jmoiron/sqlx"
)

const (
	EventPageCreated   = "page.created"
	EventPageUpdated   = "page.updated"
	EventPageDeleted   = "page.deleted"
	EventModuleCreated = "module.created"
	EventModuleUpdated = "module.updated"
	EventModuleDeleted = "module.deleted"
	EventMediaUploaded = "media.uploaded"
	EventMediaDeleted  = "media.deleted"
	EventWebhookTest   = "webhook.test"
	// EventAll subscribes a webhook to every event.
	EventAll = "*"
)

var knownEvents = map[string]bool{
	EventPageCreated:   true,
	EventPageUpdated:   true,
	EventPageDeleted:   true,
	EventModuleCreated: true,
	EventModuleUpdated: true,
	EventModuleDeleted: true,
	EventMediaUploaded: true,
	EventMediaDeleted:  true,
	EventWebhookTest:   true,
	EventAll:           true,
}

const webhookColumns = `id, url, events, secret, active, created_at, updated_at`

type WebhookInput struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Secret string   `json:"secret"`
	Active *bool    `json:"active"`
}

type WebhookPatch struct {
	URL    *string   `json:"url"`
	Events *[]string `json:"events"`
	Secret *string   `json:"secret"`
	Active *bool     `json:"active"`
}

// WebhookEvents decodes the stored event list.
func WebhookEvents(hook models.Webhook) []string {
	events := []string{}
	_ = json.Unmarshal([]byte(hook.Events), &events)
	return events
}

// Subscribed reports whether hook wants event.
func Subscribed(hook models.Webhook, event string) bool {
	for _, e := range WebhookEvents(hook) {
		if e == event || e == EventAll {
			return true
		}
	}
	return false
}

func ListWebhooks(db *sqlx.DB) ([]models.Webhook, error) {
	items := []models.Webhook{}
	err := db.Select(&items, `SELECT `+webhookColumns+` FROM webhooks ORDER BY id ASC`)
	return items, err
}

func GetWebhook(db *sqlx.DB, id int64) (models.Webhook, error) {
	var hook models.Webhook
	err := db.Get(&hook, db.Rebind(`SELECT `+webhookColumns+` FROM webhooks WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Webhook{}, ErrNotFound("Webhook not found")
	}
	return hook, err
}

func CreateWebhook(db *sqlx.DB, in WebhookInput) (models.Webhook, error) {
	target, err := validateHookURL(in.URL)
	if err != nil {
		return models.Webhook{}, err
	}
	events, err := encodeEvents(in.Events)
	if err != nil {
		return models.Webhook{}, err
	}
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	now := time.Now().UTC()
	hook := models.Webhook{
		URL:       target,
		Events:    events,
		Secret:    in.Secret,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx, err := db.Beginx()
	if err != nil {
		return models.Webhook{}, err
	}
	defer func() { _ = tx.Rollback() }()
	if hook.ID, err = nextID(tx, "webhooks"); err != nil {
		return models.Webhook{}, err
	}
	if _, err := tx.NamedExec(`
INSERT INTO webhooks (id, url, events, secret, active, created_at, updated_at)
VALUES (:id, :url, :events, :secret, :active, :created_at, :updated_at)
`, hook); err != nil {
		return models.Webhook{}, err
	}
	return hook, tx.Commit()
}

func UpdateWebhook(db *sqlx.DB, id int64, patch WebhookPatch) (models.Webhook, error) {
	hook, err := GetWebhook(db, id)
	if err != nil {
		return models.Webhook{}, err
	}
	if patch.URL != nil {
		if hook.URL, err = validateHookURL(*patch.URL); err != nil {
			return models.Webhook{}, err
		}
	}
	if patch.Events != nil {
		if hook.Events, err = encodeEvents(*patch.Events); err != nil {
			return models.Webhook{}, err
		}
	}
	assign(&hook.Secret, patch.Secret)
	if patch.Active != nil {
		hook.Active = *patch.Active
	}
	hook.UpdatedAt = time.Now().UTC()
	_, err = db.NamedExec(`
UPDATE webhooks SET url = :url, events = :events, secret = :secret, active = :active, updated_at = :updated_at
WHERE id = :id
`, hook)
	if err != nil {
		return models.Webhook{}, err
	}
	return hook, nil
}

// DeleteWebhook removes the webhook and its delivery log.
func DeleteWebhook(db *sqlx.DB, id int64) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	res, err := tx.Exec(tx.Rebind(`DELETE FROM webhooks WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound("Webhook not found")
	}
	if _, err := tx.Exec(tx.Rebind(`DELETE FROM webhook_logs WHERE webhook_id = ?`), id); err != nil {
		return err
	}
	return tx.Commit()
}

// WebhookLogs returns the newest deliveries first.
func WebhookLogs(db *sqlx.DB, id int64, limit int) ([]models.WebhookLog, error) {
	if _, err := GetWebhook(db, id); err != nil {
		return nil, err
	}
	items := []models.WebhookLog{}
	err := db.Select(&items, db.Rebind(`
SELECT id, webhook_id, event, status_code, success, error, duration_ms, created_at
FROM webhook_logs WHERE webhook_id = ?
ORDER BY id DESC
LIMIT ?`), id, limit)
	return items, err
}

func RecordDelivery(db *sqlx.DB, entry models.WebhookLog) (models.WebhookLog, error) {
	tx, err := db.Beginx()
	if err != nil {
		return entry, err
	}
	defer func() { _ = tx.Rollback() }()
	if entry.ID, err = nextID(tx, "webhook_logs"); err != nil {
		return entry, err
	}
	if _, err := tx.NamedExec(`
INSERT INTO webhook_logs (id, webhook_id, event, status_code, success, error, duration_ms, created_at)
VALUES (:id, :webhook_id, :event, :status_code, :success, :error, :duration_ms, :created_at)
`, entry); err != nil {
		return entry, err
	}
	return entry, tx.Commit()
}

func validateHookURL(raw string) (string, error) {
	target, err := NormalizeRequired(raw, "url is required")
	if err != nil {
		return "", err
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", ErrBadRequest("url must be an absolute http(s) URL")
	}
	return target, nil
}

func encodeEvents(events []string) (string, error) {
	cleaned := make([]string, 0, len(events))
	seen := map[string]bool{}
	for _, event := range events {
		event = strings.TrimSpace(event)
		if event == "" || seen[event] {
			continue
		}
		if !knownEvents[event] {
			return "", ErrBadRequest("Unknown event: " + event)
		}
		seen[event] = true
		cleaned = append(cleaned, event)
	}
	raw, err := json.Marshal(cleaned)
	return string(raw), err
}
