package server

import (
	"net/http"
	"strings"
)

// PipelineHTTP defines the minimal surface the lifecycle router needs from the
// relay pipeline to serve HTTP requests.
type PipelineHTTP interface {
	ServeCheckCompetitions(http.ResponseWriter, *http.Request)
	ServeHealth(http.ResponseWriter, *http.Request)
	WriteError(http.ResponseWriter, int, string)
}

// NewPipelineHandler wires the HTTP routing facade to the relay pipeline so
// the lifecycle server owns URL dispatch without embedding routing logic into
// the pipeline itself.
func NewPipelineHandler(p PipelineHTTP) http.Handler {
	if p == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "pipeline unavailable", http.StatusServiceUnavailable)
		})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch route(r.URL.Path) {
		case "check-competitions":
			if r.Method != http.MethodGet {
				p.WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
				return
			}
			p.ServeCheckCompetitions(w, r)
		case "healthz":
			p.ServeHealth(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func route(path string) string {
	trimmed := strings.Trim(path, "/")
	switch strings.ToLower(trimmed) {
	case "check-competitions":
		return "check-competitions"
	case "health", "healthz":
		return "healthz"
	}
	return ""
}
