// internal/metrics/server.go

// Package metrics serves the daemon statistics over HTTP in
// Prometheus text format. It only reads already-computed counters;
// it never touches monitoring state.
package metrics

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Source renders current statistics into w.
type Source interface {
	WritePrometheus(w io.Writer)
}

// Server is the opt-in /metrics listener.
type Server struct {
	srv *http.Server
	log *logrus.Entry
}

func NewServer(listen string, src Source, log *logrus.Entry) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		src.WritePrometheus(w)
	})

	return &Server{
		srv: &http.Server{
			Addr:         listen,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start runs the listener until the context is canceled. Listener
// failure is logged, not fatal: metrics are an auxiliary surface.
func (s *Server) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()

	s.log.WithField("listen", s.srv.Addr).Info("metrics server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.WithError(err).Warning("metrics server stopped")
	}
}
