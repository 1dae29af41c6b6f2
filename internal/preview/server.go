// Package preview serves the rendered crossing page over HTTP together with
// health and metrics endpoints.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"
)

type Server struct {
	addr            string
	pagePath        string
	metrics         http.Handler
	shutdownTimeout time.Duration
	logger          *slog.Logger
	router          chi.Router
}

// New serves the file at pagePath. metricsHandler may be nil.
func New(addr, pagePath string, metricsHandler http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) *Server {
	s := &Server{
		addr:            addr,
		pagePath:        pagePath,
		metrics:         metricsHandler,
		shutdownTimeout: shutdownTimeout,
		logger:          logger.With("component", "preview"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(gzipMiddleware)

	r.Get("/", s.handlePage)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	s.router = r
	return s
}

func gzipMiddleware(next http.Handler) http.Handler {
	wrapper, _ := gzhttp.NewWrapper(
		gzhttp.MinSize(1024),
		gzhttp.CompressionLevel(6),
	)
	return wrapper(next)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.pagePath); err != nil {
		http.Error(w, "page not rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeFile(w, r, s.pagePath)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	if _, err := os.Stat(s.pagePath); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("waiting for first render"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("starting preview server", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			s.logger.Error("preview server error", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("preview server shutdown error", "error", err)
		return err
	}
	s.logger.Info("preview server stopped")
	return nil
}
