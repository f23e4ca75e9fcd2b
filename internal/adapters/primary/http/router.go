package http

import (
	"log/slog"
	"net/http"

	mw "github.com/gamemod/support-desk/internal/adapters/primary/http/middleware"
	wsAdapter "github.com/gamemod/support-desk/internal/adapters/primary/websocket"
	"github.com/gamemod/support-desk/internal/auth"
	"github.com/gamemod/support-desk/internal/config"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// corsMaxAge is how long browsers may cache preflight responses, in seconds.
const corsMaxAge = 300

// RouterDeps wires the primary adapters to the core.
type RouterDeps struct {
	Config *config.Config
	Logger *slog.Logger

	Tickets   ports.TicketService
	Topics    ports.TopicService
	Analytics ports.AnalyticsService
	Settings  ports.SettingsService
	Health    ports.HealthChecker

	// Hub may be nil, in which case /v1/ws is not mounted.
	Hub *wsAdapter.Hub

	AdminKey *auth.AdminKey
	Tokens   *auth.TokenManager
}

// Router is the application's HTTP handler.
type Router struct {
	chi.Router
	limiters []*mw.RateLimiter
}

// Close stops background work owned by the router.
func (r *Router) Close() {
	for _, limiter := range r.limiters {
		limiter.Stop()
	}
}

// NewRouter builds the chi router: global middleware, health probes,
// metrics and the /v1 API.
func NewRouter(deps RouterDeps) *Router {
	cfg := deps.Config
	logger := deps.Logger

	errorHandler := NewErrorHandler(logger)
	adminGate := mw.AdminGate(deps.AdminKey, deps.Tokens, errorHandler.Handle)

	ticketHandler := NewTicketHandler(deps.Tickets, deps.Analytics, errorHandler, logger)
	topicHandler := NewTopicHandler(deps.Topics, errorHandler, logger)
	staffHandler := NewStaffHandler(deps.Settings, deps.AdminKey, deps.Tokens, errorHandler, logger)
	healthHandler := NewHealthHandler(deps.Health, cfg.StorageBackend(), cfg.App.Version)

	r := chi.NewRouter()
	router := &Router{Router: r}

	// Global middleware
	if cfg.Server.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(mw.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.AdminKeyHeader, mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           corsMaxAge,
	}))

	// Probes and metrics sit outside the rate limiters
	r.Get("/health", healthHandler.HandleLiveness)
	r.Get("/health/ready", healthHandler.HandleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	var general, admin *mw.RateLimiter
	var adminLimit func(http.Handler) http.Handler
	if cfg.RateLimit.Enabled {
		general = mw.NewRateLimiter(mw.GeneralRateLimiterConfig(cfg.RateLimit))
		admin = mw.NewRateLimiter(mw.AdminRateLimiterConfig(cfg.RateLimit))
		router.limiters = append(router.limiters, general, admin)

		adminLimit = admin.Middleware
		adminGate = chainMiddleware(admin.Middleware, adminGate)
	}

	r.Group(func(r chi.Router) {
		if general != nil {
			r.Use(general.Middleware)
		}

		r.Route("/v1", func(r chi.Router) {
			r.Route("/tickets", ticketHandler.RegisterRoutes)
			r.Route("/topics", func(r chi.Router) {
				topicHandler.RegisterRoutes(r, adminGate)
			})
			r.Route("/staff", func(r chi.Router) {
				staffHandler.RegisterRoutes(r, adminGate, adminLimit)
			})

			if deps.Hub != nil {
				r.Get("/ws", NewWebSocketHandler(deps.Hub, cfg, logger).ServeHTTP)
			}
		})
	})

	return router
}

// chainMiddleware applies outer before inner.
func chainMiddleware(outer, inner func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return outer(inner(next))
	}
}
