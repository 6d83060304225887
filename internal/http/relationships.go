package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"freeradical-go/internal/models"
	"freeradical-go/internal/services"

	"github.com/go-chi/chi/v5"
)

type RelationshipDTO struct {
	ID               int64           `json:"id"`
	SourceType       string          `json:"source_type"`
	SourceID         string          `json:"source_id"`
	TargetType       string          `json:"target_type"`
	TargetID         string          `json:"target_id"`
	RelationshipType string          `json:"relationship_type"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (s *Server) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req services.RelationshipInput
	if !decodeJSON(w, r, &req) {
		return
	}
	rel, err := services.CreateRelationship(s.DB, req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toRelationshipDTO(rel))
}

func toRelationshipDTO(rel models.Relationship) RelationshipDTO {
	return RelationshipDTO{
		ID:               rel.ID,
		SourceType:       rel.SourceType,
		SourceID:         rel.SourceID,
		TargetType:       rel.TargetType,
		TargetID:         rel.TargetID,
		RelationshipType: rel.RelationshipType,
		Metadata:         rawJSON(rel.Metadata),
		CreatedAt:        rel.CreatedAt,
	}
}

func (s *Server) Related(w http.ResponseWriter, r *http.Request) {
	items, err := services.RelatedTo(s.DB, chi.URLParam(r, "type"), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(w, r, "id")
	if !ok {
		return
	}
	if err := services.DeleteRelationship(s.DB, id); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
