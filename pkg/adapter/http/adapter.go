// Package http exposes the drive service over a JSON HTTP API.
//
// The adapter owns the listener and request routing only; every domain
// decision (validation, visibility, error taxonomy) lives in the drive
// service. Callers authenticate with an opaque bearer token in the X-Token
// header, resolved against the session store.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/internal/ratelimiter"
	"github.com/marmos91/dittodrive/pkg/adapter"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/queue"
	"github.com/marmos91/dittodrive/pkg/store/session"
)

// HTTPConfig holds configuration parameters for the HTTP server.
//
// Default values (applied by New if zero):
//   - Port: 5000
//   - ReadTimeout: 30s
//   - WriteTimeout: 60s
//   - IdleTimeout: 2m
//   - ShutdownTimeout: 30s
type HTTPConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MaxBodyBytes caps the request body size (default: 64 MiB). Uploads
	// arrive base64 encoded, so the effective payload limit is ~3/4 of
	// this value.
	MaxBodyBytes int64

	// RateLimit is the sustained request rate per second across all
	// callers. Zero disables limiting.
	RateLimit uint

	// RateBurst is the burst capacity above the sustained rate (default:
	// 2x RateLimit).
	RateBurst uint
}

// HTTPAdapter serves the drive API over HTTP.
//
// Thread safety: Serve runs the listener loop; Stop may be called from any
// goroutine and is idempotent.
type HTTPAdapter struct {
	config   HTTPConfig
	service  *drive.Service
	sessions session.SessionStore
	jobs     queue.Queue
	limiter  *ratelimiter.RateLimiter
	server   *http.Server
}

// New creates an HTTP adapter over the given service.
//
// The jobs queue is optional and only feeds the /status report; pass nil
// when the queue is disabled.
func New(config HTTPConfig, svc *drive.Service, sessions session.SessionStore, jobs queue.Queue) *HTTPAdapter {
	if config.Port == 0 {
		config.Port = 5000
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 60 * time.Second
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = 2 * time.Minute
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 30 * time.Second
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = 64 << 20
	}
	if config.RateBurst == 0 {
		config.RateBurst = config.RateLimit * 2
	}

	a := &HTTPAdapter{
		config:   config,
		service:  svc,
		sessions: sessions,
		jobs:     jobs,
		limiter:  ratelimiter.New(config.RateLimit, config.RateBurst),
	}

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      a.Router(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return a
}

// Router builds the chi router with all API routes mounted. Exposed so
// tests can drive the handlers without a listener.
func (a *HTTPAdapter) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(a.throttle)
	r.Use(a.limitBody)
	r.Use(requestLogger)

	r.Get("/status", a.handleStatus)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Content download resolves the token when present but allows
	// anonymous callers; public files are readable without a session.
	r.With(a.identify(false)).Get("/files/{id}/data", a.handleDownload)

	r.Group(func(r chi.Router) {
		r.Use(a.identify(true))

		r.Post("/files", a.handleCreate)
		r.Get("/files", a.handleList)
		r.Get("/files/{id}", a.handleGet)
		r.Put("/files/{id}/publish", a.handlePublish)
		r.Put("/files/{id}/unpublish", a.handleUnpublish)
	})

	return r
}

// Serve starts the HTTP server and blocks until the context is cancelled
// or the listener fails. On cancellation the server drains in-flight
// requests for up to ShutdownTimeout.
func (a *HTTPAdapter) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("HTTP server listening on %s", a.server.Addr)

		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("HTTP server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}

		logger.Info("HTTP server stopped")
		return nil

	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

var _ adapter.Adapter = (*HTTPAdapter)(nil)

func (a *HTTPAdapter) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAdapter) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("%s %s completed in %s", r.Method, r.URL.Path, time.Since(start))
	})
}
