package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"freeradical-go/internal/services"
)

type VisitRequest struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer"`
}

type HealthResponse struct {
	Status   string    `json:"status"`
	Database string    `json:"database"`
	Time     time.Time `json:"time"`
}

func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := services.Search(s.DB, services.SearchQuery{
		Term:      q.Get("q"),
		Resources: splitCSV(q.Get("resources")),
		Page:      parseInt(q.Get("page"), 1),
		PerPage:   parseInt(q.Get("per_page"), services.DefaultPerPage),
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, results)
}

func (s *Server) TrackVisit(w http.ResponseWriter, r *http.Request) {
	var req VisitRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Referrer == "" {
		req.Referrer = r.Header.Get("Referer")
	}
	if err := services.TrackVisit(s.DB, resolveClientIP(r), r.Header.Get("User-Agent"), req.Path, req.Referrer); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := services.Summarize(s.DB, time.Now())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// Health answers 503 when the database does not respond.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	resp := HealthResponse{Status: "ok", Database: "ok", Time: time.Now().UTC()}
	status := http.StatusOK
	if err := s.DB.PingContext(ctx); err != nil {
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, resp)
}
