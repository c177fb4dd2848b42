// Package api provides the chi router used by the HTTP transport: the MCP
// endpoint plus an unauthenticated health probe.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a chi router mounting the MCP handler at /mcp.
func NewRouter(mcpHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check — used by load balancers and health probes.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	// Streamable HTTP: the MCP handler owns method dispatch (POST/GET/DELETE).
	r.Handle("/mcp", mcpHandler)

	return r
}
