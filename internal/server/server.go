package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	httpmiddleware "github.com/wolfeidau/orgregistry/internal/http"
	"github.com/wolfeidau/orgregistry/internal/logger"
	"github.com/wolfeidau/orgregistry/internal/store"
)

const healthCheckTimeout = 2 * time.Second

// Server wires the organization service to its HTTP routes
type Server struct {
	organizations *OrganizationService
}

// NewServer creates a new server over the given store
func NewServer(orgStore store.OrganizationStore, ids IDGenerator, maxAttempts uint) *Server {
	return &Server{
		organizations: NewOrganizationService(orgStore, ids, maxAttempts),
	}
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler(log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := s.organizations.Ping(ctx); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("Health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	NewOrganizationHandler(s.organizations).Register(mux)

	var handler http.Handler = mux
	handler = logger.NewHTTPRequests(log).Wrap(handler)
	handler = httpmiddleware.ClientIPMiddleware()(handler)
	handler = httpmiddleware.RequestIDMiddleware()(handler)

	return handler
}
