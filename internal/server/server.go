// Package server assembles the BFF router.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/osse101/opitemdb/internal/auth"
	"github.com/osse101/opitemdb/internal/catalog"
	"github.com/osse101/opitemdb/internal/domain"
	"github.com/osse101/opitemdb/internal/handler"
	"github.com/osse101/opitemdb/internal/logger"
	"github.com/osse101/opitemdb/internal/metrics"
	"github.com/osse101/opitemdb/internal/sse"
	"github.com/osse101/opitemdb/internal/storage"
)

// Options are the listener and proxy settings of the server
type Options struct {
	Port           int
	TrustedProxies []string
	PublicURL      string
	Version        string
}

// Dependencies are the services behind the routes
type Dependencies struct {
	Catalog catalog.Service
	Auth    *auth.Service
	Storage *storage.DiskStore
	Hub     *sse.Hub
	DB      handler.Pinger
}

// Server is the BFF HTTP server
type Server struct {
	httpServer *http.Server
}

// NewServer creates a new Server instance
func NewServer(opts Options, deps Dependencies) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           NewRouter(opts, deps),
			ReadHeaderTimeout: ReadHeaderTimeout,
			IdleTimeout:       IdleTimeout,
		},
	}
}

// NewRouter builds the route tree
func NewRouter(opts Options, deps Dependencies) chi.Router {
	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()
	r.Use(SecurityHeadersMiddleware())
	r.Use(SecurityLoggingMiddleware(opts.TrustedProxies, detector))
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)
	r.Use(deps.Auth.Middleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(deps.DB))
	r.Get("/version", handler.HandleVersion(opts.Version))
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	items := handler.NewItemHandler(deps.Catalog)
	lookups := handler.NewLookupHandler(deps.Catalog)
	authHandler := handler.NewAuthHandler(deps.Auth)
	objects := handler.NewStorageHandler(deps.Storage, opts.PublicURL)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handler.HandleHealthz())
		r.Get("/events", sse.Handler(deps.Hub))

		r.Group(func(r chi.Router) {
			r.Use(RequestSizeLimitMiddleware(MaxAPIBodyBytes))

			r.Get("/item_types", lookups.HandleLookups(domain.LookupItemTypes))
			r.Get("/materials", lookups.HandleLookups(domain.LookupMaterials))
			r.Get("/rarities", lookups.HandleLookups(domain.LookupRarities))
			r.Get("/enchantments", lookups.HandleEnchantments)

			r.Get("/items", items.HandleList)
			r.Get("/items/{id}", items.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireUser)
				r.Get("/me", authHandler.HandleMe)
				r.Post("/items", items.HandleCreate)
				r.Patch("/items/{id}", items.HandleUpdate)
				r.Delete("/items/{id}", items.HandleDelete)
				r.Get("/items/{id}/versions", items.HandleVersions)
			})
		})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/discord/login", authHandler.HandleLogin)
		r.Get("/discord/callback", authHandler.HandleCallback)
		r.Post("/signout", authHandler.HandleSignOut)
	})

	r.Route(strings.TrimSuffix(storage.ObjectPrefix, "/"), func(r chi.Router) {
		r.Get("/public/{bucket}/*", objects.HandlePublic)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.With(RequestSizeLimitMiddleware(domain.MaxUploadBytes+1)).Post("/{bucket}/*", objects.HandleUpload)
			r.With(RequestSizeLimitMiddleware(MaxAPIBodyBytes)).Delete("/{bucket}", objects.HandleRemove)
		})
	})

	return r
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Flush keeps the event stream working through the wrapper
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func isQuietPath(path string) bool {
	for _, p := range QuietPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isQuietPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ctx := logger.WithRequestID(r.Context(), logger.GenerateRequestID())
		r = r.WithContext(ctx)
		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		sanitizedHeaders := make(http.Header, len(r.Header))
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAuthorization) || strings.EqualFold(k, HeaderCookie) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
