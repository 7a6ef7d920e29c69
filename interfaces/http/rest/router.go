package rest

import (
	"net/http"

	"tripgraph/application/commands/bus"
	querybus "tripgraph/application/queries/bus"
	"tripgraph/infrastructure/config"
	"tripgraph/interfaces/http/rest/handlers"
	"tripgraph/interfaces/http/rest/middleware"
	"tripgraph/pkg/common"
	pkgerrors "tripgraph/pkg/errors"
	"tripgraph/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the events API router
type Router struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	limiter      middleware.Limiter
	validator    middleware.TokenValidator
	collector    *observability.Collector
	tracer       *observability.Tracer
	cfg          *config.Config
	logger       *zap.Logger
}

// RouterOption customises optional parts of the router
type RouterOption func(*Router)

// WithAuthentication requires a bearer token on every /events route
func WithAuthentication(validator middleware.TokenValidator) RouterOption {
	return func(rt *Router) { rt.validator = validator }
}

// WithRateLimiter enables per-IP limiting of /events
func WithRateLimiter(limiter middleware.Limiter) RouterOption {
	return func(rt *Router) { rt.limiter = limiter }
}

// WithCollector records Prometheus metrics and serves /metrics
func WithCollector(collector *observability.Collector) RouterOption {
	return func(rt *Router) { rt.collector = collector }
}

// WithTracer wraps every request in an X-Ray segment
func WithTracer(tracer *observability.Tracer) RouterOption {
	return func(rt *Router) { rt.tracer = tracer }
}

// NewRouter creates a new router instance
func NewRouter(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		cfg:          cfg,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(rt.errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger))
	if rt.tracer.Enabled() {
		router.Use(rt.tracer.Middleware)
	}
	if rt.collector != nil {
		router.Use(rt.collector.Middleware)
	}
	if rt.cfg.EnableCORS {
		router.Use(corsHandler(rt.cfg.CORSOrigins))
	}

	router.Get("/health", healthCheck)
	if rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}

	eventHandler := handlers.NewEventHandler(rt.commandBus, rt.queryBus, rt.errorHandler, rt.logger)
	router.Route("/events", func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(middleware.RateLimit(rt.limiter, rt.cfg.RateLimitPerMinute, rt.errorHandler, rt.logger))
		}
		if rt.validator != nil {
			r.Use(middleware.Authenticate(rt.validator, rt.errorHandler, rt.logger))
		}

		r.Get("/", eventHandler.ListEvents)
		r.Post("/", eventHandler.CreateEvent)
		r.Get("/{eventID}", eventHandler.GetEvent)
		r.Put("/{eventID}", eventHandler.UpdateEvent)
		r.Delete("/{eventID}", eventHandler.DeleteEvent)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rt.errorHandler.HandleStatus(w, r, http.StatusNotFound, "route not found")
	})

	return router
}

// NewPlannerRouter routes the planner's timeline endpoints
func NewPlannerRouter(
	planner handlers.Planner,
	errorHandler *pkgerrors.ErrorHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(logger))
	if tracer.Enabled() {
		router.Use(tracer.Middleware)
	}
	if collector != nil {
		router.Use(collector.Middleware)
	}

	router.Get("/health", healthCheck)
	if collector != nil {
		router.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	timeline := handlers.NewTimelineHandler(planner, errorHandler, logger)
	router.Route("/timeline", func(r chi.Router) {
		r.Get("/graph", timeline.Graph)
		r.Get("/status", timeline.Status)
		r.Post("/refresh", timeline.Refresh)

		r.Get("/events", timeline.Events)
		r.Post("/events", timeline.AppendEvent)
		r.Put("/events/{eventID}", timeline.RenameEvent)
		r.Delete("/events/{eventID}", timeline.RemoveEvent)

		r.Post("/edges", timeline.Connect)
		r.Delete("/edges/{edgeID}", timeline.Disconnect)
	})

	return router
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// healthCheck handles health check requests
func healthCheck(w http.ResponseWriter, _ *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
