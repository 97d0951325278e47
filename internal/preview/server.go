// Package preview serves the resolved site from memory for local authoring,
// rebuilding the whole graph when the outline or content changes. There is no
// incremental rebuild: a change triggers a full build, and the last good
// result keeps serving while a broken edit is being fixed.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/sitegraph/internal/build"
	"git.home.luguber.info/inful/sitegraph/internal/config"
	"git.home.luguber.info/inful/sitegraph/internal/logfields"
	"git.home.luguber.info/inful/sitegraph/internal/site"
)

// Server is the local preview HTTP server.
type Server struct {
	cfg      *config.Config
	builder  *build.Builder
	renderer site.Renderer
	metrics  http.Handler

	mu      sync.RWMutex
	current *build.Result
}

// New creates a preview server. metricsHandler may be nil; /metrics is only
// mounted when it is provided.
func New(cfg *config.Config, builder *build.Builder, metricsHandler http.Handler) *Server {
	return &Server{
		cfg:     cfg,
		builder: builder,
		metrics: metricsHandler,
	}
}

// Run builds once, then serves until the context is canceled. The initial
// build must succeed; later rebuild failures are logged and the previous
// result keeps serving.
func (s *Server) Run(ctx context.Context) error {
	if err := s.rebuild(ctx); err != nil {
		return err
	}

	if s.cfg.Preview.Watch {
		watcher, err := s.watch(ctx)
		if err != nil {
			return err
		}
		defer watcher.Close()
	}

	srv := &http.Server{
		Addr:    s.cfg.Preview.Addr,
		Handler: s.router(),
	}

	done := make(chan error, 1)
	go func() {
		slog.Info("preview server listening", slog.String("addr", s.cfg.Preview.Addr))
		done <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	r.NotFound(s.servePage)
	return r
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	url := strings.TrimRight(r.URL.Path, "/")
	if url == "" {
		url = "/"
	}

	s.mu.RLock()
	result := s.current
	s.mu.RUnlock()
	if result == nil {
		http.Error(w, "no build available", http.StatusServiceUnavailable)
		return
	}

	rendered, ok := result.Pages[url]
	if !ok {
		http.NotFound(w, r)
		return
	}

	doc, err := s.renderer.Page(result.Registry, result.Registry.Pages[url], rendered.HTML)
	if err != nil {
		slog.Error("page render failed", logfields.URL(url), logfields.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(doc)
}

func (s *Server) rebuild(ctx context.Context) error {
	result, err := s.builder.Run(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.current = result
	s.mu.Unlock()
	return nil
}
