// Package httpapi exposes the artifact and history services to the UI layer
// over JSON/HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/llmtxt/internal/ctxutil"
	"github.com/example/llmtxt/internal/logging"
	"github.com/example/llmtxt/internal/ports/primary"
)

// Principal headers set by the authenticating proxy in front of the server.
const (
	HeaderOwnerID   = "X-Owner-ID"
	HeaderCanManage = "X-Can-Manage"
)

// maxBodyBytes caps request bodies. Full artifacts can be large.
const maxBodyBytes = 32 << 20

// Services groups the primary ports served over HTTP.
type Services struct {
	Artifacts  primary.ArtifactService
	History    primary.HistoryService
	Generation primary.GenerationService
}

// Server is the HTTP surface of llmtxt.
type Server struct {
	services     Services
	defaultOwner string
	gatherer     prometheus.Gatherer
	logger       *zap.Logger
	router       chi.Router
}

// NewServer builds the router. Requests without an owner header act as
// defaultOwner. A nil gatherer disables /metrics.
func NewServer(services Services, defaultOwner string, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		services:     services,
		defaultOwner: defaultOwner,
		gatherer:     gatherer,
		logger:       logging.Component(logger, "http"),
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.principal)
		r.Get("/files/exists", s.handleFilesExist)
		r.Post("/save", s.handleSave)
		r.Get("/history", s.handleHistoryList)
		r.Get("/history/{id}", s.handleHistoryGet)
		r.Delete("/history/{id}", s.handleHistoryDelete)
		r.Post("/generate", s.handleGenerate)
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// principal moves the upstream identity headers into the request context.
func (s *Server) principal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(HeaderOwnerID))
		if owner == "" {
			owner = s.defaultOwner
		}
		canManage, _ := strconv.ParseBool(r.Header.Get(HeaderCanManage))
		next.ServeHTTP(w, r.WithContext(ctxutil.WithPrincipal(r.Context(), owner, canManage)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}
