package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"freeradical-go/internal/models"
	"freeradical-go/internal/services"

	"github.com/go-chi/chi/v5"
)

// ModuleDTO emits the stored config blobs as JSON values, not strings.
type ModuleDTO struct {
	UUID            string          `json:"uuid"`
	PageUUID        string          `json:"page_uuid"`
	Title           string          `json:"title"`
	Content         string          `json:"content"`
	FieldType       *string         `json:"field_type,omitempty"`
	FieldConfig     json.RawMessage `json:"field_config,omitempty"`
	ValidationRules json.RawMessage `json:"validation_rules,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toModuleDTO(module models.Module) ModuleDTO {
	return ModuleDTO{
		UUID:            module.UUID,
		PageUUID:        module.PageUUID,
		Title:           module.Title,
		Content:         module.Content,
		FieldType:       module.FieldType,
		FieldConfig:     rawJSON(module.FieldConfig),
		ValidationRules: rawJSON(module.ValidationRules),
		CreatedAt:       module.CreatedAt,
		UpdatedAt:       module.UpdatedAt,
	}
}

func rawJSON(stored *string) json.RawMessage {
	if stored == nil || !json.Valid([]byte(*stored)) {
		return nil
	}
	return json.RawMessage(*stored)
}

func (s *Server) ListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := services.ListModules(s.DB, r.URL.Query().Get("page_uuid"), pagination(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	items := make([]ModuleDTO, 0, len(modules))
	for _, module := range modules {
		items = append(items, toModuleDTO(module))
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) GetModule(w http.ResponseWriter, r *http.Request) {
	module, err := services.GetModule(s.DB, chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toModuleDTO(module))
}

func (s *Server) CreateModule(w http.ResponseWriter, r *http.Request) {
	var req services.ModuleInput
	if !decodeJSON(w, r, &req) {
		return
	}
	module, err := services.CreateModule(s.DB, req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	dto := toModuleDTO(module)
	s.publish(services.EventModuleCreated, dto)
	WriteJSON(w, http.StatusCreated, dto)
}

func (s *Server) UpdateModule(w http.ResponseWriter, r *http.Request) {
	var req services.ModulePatch
	if !decodeJSON(w, r, &req) {
		return
	}
	module, err := services.UpdateModule(s.DB, chi.URLParam(r, "id"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	dto := toModuleDTO(module)
	s.publish(services.EventModuleUpdated, dto)
	WriteJSON(w, http.StatusOK, dto)
}

func (s *Server) DeleteModule(w http.ResponseWriter, r *http.Request) {
	module, err := services.DeleteModule(s.DB, chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publish(services.EventModuleDeleted, toModuleDTO(module))
	w.WriteHeader(http.StatusNoContent)
}
