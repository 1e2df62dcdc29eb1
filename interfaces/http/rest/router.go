package rest

import (
	"context"
	"net/http"
	"time"

	"ponydocs/application/commands/bus"
	querybus "ponydocs/application/queries/bus"
	"ponydocs/interfaces/http/rest/handlers"
	"ponydocs/interfaces/http/rest/middleware"
	pkgerrors "ponydocs/pkg/errors"
	"ponydocs/pkg/observability"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ReadinessCheck reports whether the backing stores can serve traffic
type ReadinessCheck func(ctx context.Context) error

// Router creates and configures the HTTP router
type Router struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger

	namespace   string
	corsOrigins []string
	debug       bool
	metrics     *observability.Metrics
	tracer      *observability.Tracer
	ready       ReadinessCheck
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithNamespace sets the wiki namespace served under /documentation
func WithNamespace(namespace string) RouterOption {
	return func(rt *Router) { rt.namespace = namespace }
}

// WithCORS enables CORS for the given origins
func WithCORS(origins ...string) RouterOption {
	return func(rt *Router) { rt.corsOrigins = origins }
}

// WithMetrics records request metrics and serves /metrics
func WithMetrics(m *observability.Metrics) RouterOption {
	return func(rt *Router) { rt.metrics = m }
}

// WithTracer opens an X-Ray segment per request when the tracer is enabled
func WithTracer(t *observability.Tracer) RouterOption {
	return func(rt *Router) { rt.tracer = t }
}

// WithReadinessCheck backs /ready
func WithReadinessCheck(check ReadinessCheck) RouterOption {
	return func(rt *Router) { rt.ready = check }
}

// WithDebugErrors includes stack traces in error responses
func WithDebugErrors(debug bool) RouterOption {
	return func(rt *Router) { rt.debug = debug }
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
		namespace:  "Documentation",
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() *chi.Mux {
	router := chi.NewRouter()
	errorHandler := pkgerrors.NewErrorHandler(rt.logger, rt.debug)

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	if rt.tracer.Enabled() {
		router.Use(func(next http.Handler) http.Handler {
			return xray.Handler(xray.NewFixedSegmentNamer("ponydocs"), next)
		})
	}
	router.Use(middleware.DocContext)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(rt.metrics.Middleware)
	}

	if len(rt.corsOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: rt.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept", "Content-Type", "X-Request-ID",
				middleware.HeaderProduct, middleware.HeaderManual,
				middleware.HeaderTopic, middleware.HeaderVersion,
			},
			ExposedHeaders: []string{"X-Request-ID", "Location"},
			MaxAge:         300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.metrics != nil {
		router.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	docHandler := handlers.NewDocHandler(rt.queryBus, errorHandler, rt.namespace, rt.logger)
	pageHandler := handlers.NewPageHandler(rt.commandBus, errorHandler, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/resolve", docHandler.Resolve)
		r.Get("/navigation/{product}/{version}", docHandler.Navigation)
		r.Get("/toc/{product}/{manual}/{version}", docHandler.TOC)

		r.Route("/links", func(r chi.Router) {
			r.Get("/translate", docHandler.Translate)
			r.Get("/backlinks", docHandler.Backlinks)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", docHandler.Products)
			r.Get("/{product}/versions", docHandler.Versions)
		})

		r.Route("/pages", func(r chi.Router) {
			r.Put("/", pageHandler.SavePage)
			r.Delete("/", pageHandler.DeletePage)
			r.Post("/remove-tags", pageHandler.RemoveTags)
		})

		r.Get("/documentation", docHandler.Documentation)
		r.Get("/documentation/*", docHandler.Documentation)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if rt.ready != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := rt.ready(ctx); err != nil {
			rt.logger.Warn("Readiness check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
