package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/oraclevm/oracle-vm/internal/config"
	"github.com/oraclevm/oracle-vm/internal/observability/tracing"
	"github.com/oraclevm/oracle-vm/internal/services"
)

type Server struct {
	httpServer *http.Server
}

func New(cfg *config.ServerConfig, service *services.Service) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Address(),
			Handler:      NewRouter(service),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

func NewRouter(service *services.Service) http.Handler {
	h := &handler{service: service}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(traceRequest)

	r.Post("/submit-price", h.submitPrice)
	r.Get("/health", h.health)
	r.Get("/aggregated-price", h.aggregatedPrice)
	r.Post("/prove-settlement", h.proveSettlement)
	r.Post("/vaults", h.createVault)
	r.Post("/options", h.createOption)
	r.Get("/vm/state", h.vmState)

	return r
}

const traceIDHeader = "X-Trace-Id"

// traceRequest gives every request a trace id and a logger carrying it.
// A caller supplied X-Trace-Id is kept.
func traceRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ctx context.Context
		if id := r.Header.Get(traceIDHeader); id != "" {
			ctx = tracing.InjectTraceIDValue(r.Context(), id)
		} else {
			ctx = tracing.InjectTraceID(r.Context())
		}
		logger := log.Ctx(ctx).With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx)))
	})
}

// Start blocks until the server stops. It returns nil after Shutdown.
func (s *Server) Start(ctx context.Context) error {
	log.Ctx(ctx).Info().Str("addr", s.httpServer.Addr).Msg("starting api server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
