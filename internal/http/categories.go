package httpapi

import (
	"net/http"

	"freeradical-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := services.ListCategories(s.DB, r.URL.Query().Get("page_uuid"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := services.GetCategory(s.DB, chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, category)
}

func (s *Server) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req services.CategoryInput
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := services.CreateCategory(s.DB, req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, category)
}

func (s *Server) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req services.CategoryPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	category, err := services.UpdateCategory(s.DB, chi.URLParam(r, "id"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, category)
}

func (s *Server) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteCategory(s.DB, chi.URLParam(r, "id")); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
