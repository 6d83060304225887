package httpapi

import (
	"net/http"

	"freeradical-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := services.ListPages(s.DB, pagination(r))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, pages)
}

func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	page, err := services.GetPage(s.DB, chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req services.PageInput
	if !decodeJSON(w, r, &req) {
		return
	}
	page, err := services.CreatePage(s.DB, req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publish(services.EventPageCreated, page)
	WriteJSON(w, http.StatusCreated, page)
}

func (s *Server) UpdatePage(w http.ResponseWriter, r *http.Request) {
	var req services.PagePatch
	if !decodeJSON(w, r, &req) {
		return
	}
	page, err := services.UpdatePage(s.DB, chi.URLParam(r, "id"), req)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publish(services.EventPageUpdated, page)
	WriteJSON(w, http.StatusOK, page)
}

func (s *Server) DeletePage(w http.ResponseWriter, r *http.Request) {
	page, err := services.DeletePage(s.DB, chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	s.publish(services.EventPageDeleted, page)
	w.WriteHeader(http.StatusNoContent)
}
