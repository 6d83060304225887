package httpapi

import (
	"net/http"
	"time"

	"freeradical-go/internal/models"
	"freeradical-go/internal/services"
)

// WebhookDTO never carries the secret, only whether one is set.
type WebhookDTO struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	HasSecret bool      `json:"has_secret"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toWebhookDTO(hook models.Webhook) WebhookDTO {
	return WebhookDTO{
		ID:        hook.ID,
		URL:       hook.URL,
		Events:    services.WebhookEvents(hook),
		Active:    hook.Active,
		HasSecret: hook.Secret != "",
		CreatedAt: hook.CreatedAt,
		UpdatedAt: hook.UpdatedAt,
	}
}

func (s *Server) ListWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := services.ListWebhooks(s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	items := make([]WebhookDTO, 0, len(hooks))
	for _, hook := range hooks {
		items = append(items, toWebhookDTO(hook))
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) GetWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	hook, err := services.GetWebhook(s.DB, id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toWebhookDTO(hook))
}

func (s *Server) CreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req services.WebhookInput
	if !decodeJSON(w, r, &req) {
		return
	}
	hook, err := services.CreateWebhook(s.DB, req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toWebhookDTO(hook))
}

func (s *Server) UpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	var req services.WebhookPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	hook, err := services.UpdateWebhook(s.DB, id, req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toWebhookDTO(hook))
}

func (s *Server) DeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := services.DeleteWebhook(s.DB, id); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TestWebhook answers 200 with the delivery result even when the target
// failed; the result says so.
func (s *Server) TestWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	result, err := s.Sender.Test(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (s *Server) WebhookLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	limit := parseInt(r.URL.Query().Get("limit"), 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	logs, err := services.WebhookLogs(s.DB, id, limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, logs)
}
