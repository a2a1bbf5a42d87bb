package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bagdasarian/teamhub/internal/handler"
	"github.com/bagdasarian/teamhub/internal/logger"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	handler *handler.Handler
	server  *http.Server
	log     *logger.Logger
}

func NewRouter(h *handler.Handler) *mux.Router {
	r := mux.NewRouter()
	SetupRoutes(r, h)
	return r
}

func NewServer(h *handler.Handler, addr string, log *logger.Logger) *Server {
	router := NewRouter(h)

	return &Server{
		handler: h,
		log:     log,
		server: &http.Server{
			Addr:              addr,
			Handler:           otelhttp.NewHandler(router, "teamhub"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	s.log.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
