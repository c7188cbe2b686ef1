// Package server is the HTTP adapter over the content store and the delivery scheduler:
// subscribe and unsubscribe endpoints, lesson archive and RSS, status and on-demand delivery.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/rest/logger"
	"github.com/go-pkgz/routegroup"

	"github.com/dailylesson/lessonmail/pkg/delivery"
	"github.com/dailylesson/lessonmail/pkg/domain"
	"github.com/dailylesson/lessonmail/pkg/scheduler"
	"github.com/dailylesson/lessonmail/pkg/store"
)

//go:generate moq -out mocks/config.go -pkg mocks -skip-ensure -fmt goimports . ConfigProvider
//go:generate moq -out mocks/store.go -pkg mocks -skip-ensure -fmt goimports . Store
//go:generate moq -out mocks/deliverer.go -pkg mocks -skip-ensure -fmt goimports . Deliverer

// Server represents HTTP server instance
type Server struct {
	config    ConfigProvider
	store     Store
	deliverer Deliverer
	baseURL   string
	version   string
	debug     bool
	now       func() time.Time

	lock       sync.Mutex
	httpServer *http.Server
	router     *routegroup.Bundle
}

// Store reads the state and applies serialized updates
type Store interface {
	Load(ctx context.Context) (store.State, error)
	Update(ctx context.Context, fn func(st *store.State) error) error
}

// Deliverer runs delivery cycles on demand and reports schedules
type Deliverer interface {
	Trigger(ctx context.Context, lang domain.Language) (delivery.Summary, error)
	Jobs() []scheduler.Job
}

// ConfigProvider provides server configuration
type ConfigProvider interface {
	GetServerConfig() (listen string, timeout time.Duration)
}

// Params configures a Server
type Params struct {
	Config    ConfigProvider
	Store     Store
	Deliverer Deliverer // nil disables on-demand delivery
	BaseURL   string    // public address for links in feeds and mails
	Version   string
	Debug     bool
}

// New initializes a new server instance
func New(p Params) *Server {
	s := &Server{
		config:    p.Config,
		store:     p.Store,
		deliverer: p.Deliverer,
		baseURL:   strings.TrimRight(p.BaseURL, "/"),
		version:   p.Version,
		debug:     p.Debug,
		now:       time.Now,
		router:    routegroup.New(http.NewServeMux()),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Run starts the HTTP server and handles graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	listen, timeout := s.config.GetServerConfig()
	log.Printf("[INFO] starting server on %s", listen)

	s.lock.Lock()
	s.httpServer = &http.Server{
		Addr:              listen,
		Handler:           s.router,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}
	s.lock.Unlock()

	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] server shutdown error: %v", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

// ServeHTTP makes the server usable as a handler in tests
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures standard middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(rest.AppInfo("lessonmail", "dailylesson", s.version))
	s.router.Use(rest.Ping)

	if s.debug {
		s.router.Use(logger.New(logger.Log(lgr.Default()), logger.Prefix("[DEBUG]")).Handler)
	}

	s.router.Use(rest.Recoverer(lgr.Default()))
	s.router.Use(rest.Throttle(100))
	s.router.Use(rest.SizeLimit(64 * 1024))
}

// setupRoutes configures application routes
func (s *Server) setupRoutes() {
	s.router.Mount("/api/v1").Route(func(r *routegroup.Bundle) {
		r.HandleFunc("GET /status", s.statusHandler)
		r.HandleFunc("GET /topics", s.topicsHandler)
		r.HandleFunc("POST /subscribe", s.subscribeHandler)
		r.HandleFunc("POST /unsubscribe", s.unsubscribeHandler)
		r.HandleFunc("GET /lessons/{id}", s.lessonHandler)
		if s.deliverer != nil {
			r.HandleFunc("POST /deliver", s.deliverHandler)
		}
	})

	s.router.HandleFunc("GET /unsubscribe", s.unsubscribeLinkHandler)
	s.router.HandleFunc("GET /rss/{token}", s.rssHandler)
}

// renderJSON sends JSON response
func renderJSON(w http.ResponseWriter, _ *http.Request, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("[ERROR] can't encode response to JSON: %v", err)
		}
	}
}

// renderError sends error response as JSON
func renderError(w http.ResponseWriter, r *http.Request, err error, code int) {
	errMsg := "unknown error"
	if err != nil {
		errMsg = err.Error()
	}
	renderJSON(w, r, code, rest.JSON{"error": errMsg})
}
