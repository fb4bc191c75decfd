// Package keepalive serves the status pages hosting platforms ping
// to keep the bot running
package keepalive

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jukebox/internal/log"
	"jukebox/pkg/catalog"
	"jukebox/pkg/voice"
)

const shutdownTimeout = 5 * time.Second

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Voice provides the state of the voice sessions
type Voice interface {
	Snapshot() voice.Snapshot
}

type Options struct {
	Catalog *catalog.Catalog
	// Voice is nil when the server runs without the bot
	Voice Voice
	// Online reports whether the bot is connected to discord
	Online func() bool
	// FFmpeg reports whether ffmpeg can be run
	FFmpeg          func(ctx context.Context) bool
	TokenConfigured bool
	Prefix          string
}

type Server struct {
	opts   Options
	router chi.Router
}

func New(opts Options) *Server {
	if opts.Online == nil {
		opts.Online = func() bool { return false }
	}
	if opts.FFmpeg == nil {
		opts.FFmpeg = func(context.Context) bool { return false }
	}
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}

	s := &Server{opts: opts}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", s.handleHome)
	r.Get("/dashboard", s.handleDashboard)
	r.Get("/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleAPIStatus)
		r.Get("/music", s.handleAPIMusic)
	})
	s.router = r

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until the context is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("keep-alive server started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).Dur("took", time.Since(start)).Msg("http request")
	})
}
