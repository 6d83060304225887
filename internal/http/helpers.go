package httpapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"freeradical-go/internal/services"

	"github.com/go-chi/chi/v5"
)

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback
	}
	return value
}

// pagination is nil unless the caller asked for a page window.
func pagination(r *http.Request) *services.Pagination {
	q := r.URL.Query()
	if !q.Has("page") && !q.Has("per_page") {
		return nil
	}
	return services.NewPagination(parseInt(q.Get("page"), 1), parseInt(q.Get("per_page"), services.DefaultPerPage))
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		WriteError(w, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func resolveClientIP(r *http.Request) string {
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func splitCSV(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
