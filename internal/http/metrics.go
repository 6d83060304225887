package httpapi

import (
	"net/http"

	"freeradical-go/internal/services"

	"github.com/gorilla/websocket"
)

type MetricsResponse struct {
	Sample           services.MetricSample  `json:"sample"`
	Content          services.ContentCounts `json:"content"`
	WebsocketClients int                    `json:"websocket_clients"`
}

type MetricsHistoryResponse struct {
	Items []services.MetricSample `json:"items"`
}

func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	counts, err := services.CountContent(s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	resp := MetricsResponse{
		Sample:  services.SampleMetrics(s.Config.MetricsDiskPath),
		Content: counts,
	}
	if s.MetricsHub != nil {
		resp.WebsocketClients = s.MetricsHub.Clients()
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 120)
	if limit < 1 {
		limit = 120
	}
	if limit > 500 {
		limit = 500
	}
	items, err := services.LatestMetrics(s.DB, limit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, MetricsHistoryResponse{Items: items})
}

// MetricsSocket authenticates with ?token= since browsers cannot set headers
// on a websocket handshake.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("token")
	if query == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if _, err := s.Tokens.Authenticate(query); err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if s.MetricsHub == nil {
		WriteError(w, http.StatusServiceUnavailable, "Metrics stream unavailable")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.MetricsHub.Add(conn)
	defer func() {
		s.MetricsHub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
