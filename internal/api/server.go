// Package api exposes a small diagnostics HTTP server over the
// metadata cache: health, cache statistics, the cached catalog, and a
// manual refresh trigger. It is independent of the MCP transport and
// only started when an address is configured.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/gxtract/internal/metadata"
)

// ListenAndServe starts the diagnostics HTTP server on addr.
func ListenAndServe(addr string, cache *metadata.Cache, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/stats", statsHandler(cache))
	mux.HandleFunc("/catalog", catalogHandler(cache))
	mux.HandleFunc("/refresh", refreshHandler(cache))

	if logger != nil {
		logger.Info("diagnostics API listening", "addr", addr)
	}
	return http.ListenAndServe(addr, mux)
}

type statusResponse struct {
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

type catalogResponse struct {
	Projects      []metadata.Project `json:"projects"`
	LastRefreshed time.Time          `json:"lastRefreshed,omitzero"`
}

type refreshResponse struct {
	Success       bool      `json:"success"`
	ProjectCount  int       `json:"projectCount"`
	LastRefreshed time.Time `json:"lastRefreshed,omitzero"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func statsHandler(cache *metadata.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, statusResponse{Error: "method not allowed"})
			return
		}
		writeJSON(w, http.StatusOK, cache.Statistics())
	}
}

func catalogHandler(cache *metadata.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, statusResponse{Error: "method not allowed"})
			return
		}
		writeJSON(w, http.StatusOK, catalogResponse{
			Projects:      cache.Projects(),
			LastRefreshed: cache.LastRefreshed(),
		})
	}
}

func refreshHandler(cache *metadata.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, statusResponse{Error: "method not allowed"})
			return
		}

		success := cache.Refresh(r.Context())
		status := http.StatusOK
		if !success {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, refreshResponse{
			Success:       success,
			ProjectCount:  len(cache.Projects()),
			LastRefreshed: cache.LastRefreshed(),
		})
	}
}
