package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// Server runs the HTTP API.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, svc Service, allowedOrigins []string) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(svc, allowedOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("HTTP API listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
