// Package server exposes captcha and thumbnail operations over HTTP with a
// chi router.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/leeforge/mediakit/captcha"
	"github.com/leeforge/mediakit/config"
	"github.com/leeforge/mediakit/http/middleware"
	"github.com/leeforge/mediakit/http/responder"
	"github.com/leeforge/mediakit/logging"
	"github.com/leeforge/mediakit/media/storage"
	"github.com/leeforge/mediakit/media/thumbnail"
)

const shutdownTimeout = 10 * time.Second

// Deps are the services the handlers call. Storage may be nil, in which
// case store=true uploads are rejected.
type Deps struct {
	Captcha     *captcha.Service
	Renderer    *captcha.Renderer
	Thumbnailer *thumbnail.Thumbnailer
	Storage     storage.Provider
	Thumbnail   config.ThumbnailConfig
}

type Server struct {
	cfg    config.ServerConfig
	deps   Deps
	logger logging.Logger
	router chi.Router
}

func New(cfg config.ServerConfig, deps Deps, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.Named("http")
	}
	if deps.Renderer == nil {
		deps.Renderer = captcha.NewRenderer(nil)
	}
	if deps.Thumbnailer == nil {
		deps.Thumbnailer = thumbnail.New(thumbnail.WithLogger(logger))
	}
	s := &Server{cfg: cfg, deps: deps, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.TraceID)
	r.Use(middleware.Timing)
	r.Use(logging.HTTPMiddleware(s.logger, middleware.TraceIDFromRequest))
	r.Use(logging.RecoveryMiddleware)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.CORS(s.cfg.CORS))

	r.NotFound(responder.NotFound)
	r.MethodNotAllowed(responder.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		responder.From(w, r).OK(map[string]string{"status": "ok"})
	})

	r.Route("/captcha", func(r chi.Router) {
		r.Get("/", s.generateCaptcha)
		r.Post("/verify", s.verifyCaptcha)
		r.Get("/image.png", s.captchaImage)
	})
	r.Post("/thumbnails", s.createThumbnail)
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// clientID identifies the caller for rate limiting. RealIP has already
// rewritten RemoteAddr from forwarding headers.
func clientID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
