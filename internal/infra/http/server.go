package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

type Server struct {
	srv *http.Server
}

// New: /health всегда, /metrics если передан обработчик, всё остальное уходит в api.
func New(addr string, api http.Handler, metrics http.Handler) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics)
	}
	if api != nil {
		mux.Handle("/", api)
	}

	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start блокируется до Shutdown; штатная остановка не считается ошибкой.
func (s *Server) Start() error {
	return ignoreClosed(s.srv.ListenAndServe())
}

func (s *Server) Serve(l net.Listener) error {
	return ignoreClosed(s.srv.Serve(l))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
