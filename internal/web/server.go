// Package web provides the HTTP server and handlers for the product catalog
// API.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/prodcat/catalog/internal/catalog"
	"github.com/prodcat/catalog/internal/config"
	"github.com/prodcat/catalog/internal/web/middleware"
)

// Pinger reports whether the backing store is reachable, for the liveness
// endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the catalog API.
type Server struct {
	service *catalog.Service
	pinger  Pinger
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer wires the router, middleware, and routes.
func NewServer(service *catalog.Service, pinger Pinger, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		pinger:  pinger,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(newIPLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		if s.cfg.Rate.Enabled {
			importLimiter := newIPLimiter(s.cfg.Rate.ImportPerMinute)
			r.With(importLimiter.middleware).Post("/products/import", s.handleImportProducts)
		} else {
			r.Post("/products/import", s.handleImportProducts)
		}

		r.Get("/products/export", s.handleExportProducts)
		r.Get("/products", s.handleListProducts)
		r.Put("/products/{id}", s.handleUpdateProduct)
		r.Get("/products/{id}/history", s.handleProductHistory)
	})
}

// Start begins listening for HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds hardening headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// ipLimiter throttles requests per client IP using token buckets.
type ipLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perMinute int) *ipLimiter {
	l := &ipLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
	}
	go l.cleanup()
	return l
}

// cleanup evicts visitors idle for more than three minutes.
func (l *ipLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		l.mu.Lock()
		for ip, v := range l.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(l.visitors, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			writeErrorResponse(w, http.StatusTooManyRequests, "Too many requests, please try again later.", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}
