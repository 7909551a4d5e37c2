package routing

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"maru/internal/handlers"
	"maru/internal/middleware"
)

// Config holds the configuration needed for setting up routes
type Config struct {
	Handlers *handlers.Handler
	Logger   zerolog.Logger
}

// SetupRouter creates and configures the HTTP router with all routes and middleware
func SetupRouter(cfg Config) http.Handler {
	h := cfg.Handlers
	mux := http.NewServeMux()

	// Create CrossOriginProtection for CSRF protection
	cop := http.NewCrossOriginProtection()

	// Infra routes
	mux.HandleFunc("GET /healthz", h.HandleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Listing CRUD
	mux.HandleFunc("GET /listings", h.HandleListingList)
	mux.Handle("POST /listings", cop.Handler(http.HandlerFunc(h.HandleListingCreate)))
	mux.HandleFunc("GET /listings/{id}", h.HandleListingGet)
	mux.Handle("PUT /listings/{id}", cop.Handler(http.HandlerFunc(h.HandleListingUpdate)))
	mux.Handle("DELETE /listings/{id}", cop.Handler(http.HandlerFunc(h.HandleListingDelete)))
	mux.Handle("POST /listings/{id}/status", cop.Handler(http.HandlerFunc(h.HandleListingStatus)))

	// Wanted-ad CRUD
	mux.HandleFunc("GET /wanted", h.HandleWantedList)
	mux.Handle("POST /wanted", cop.Handler(http.HandlerFunc(h.HandleWantedCreate)))
	mux.HandleFunc("GET /wanted/{id}", h.HandleWantedGet)
	mux.Handle("PUT /wanted/{id}", cop.Handler(http.HandlerFunc(h.HandleWantedUpdate)))
	mux.Handle("DELETE /wanted/{id}", cop.Handler(http.HandlerFunc(h.HandleWantedDelete)))

	// Admin moderation actions
	mux.Handle("POST /admin/listings/{id}/moderate", cop.Handler(http.HandlerFunc(h.HandleModerateListing)))
	mux.Handle("POST /admin/wanted/{id}/moderate", cop.Handler(http.HandlerFunc(h.HandleModerateWanted)))

	// Admin audit-log reads
	mux.HandleFunc("GET /admin/listings/{id}/history", h.HandleListingHistory)
	mux.HandleFunc("GET /admin/wanted/{id}/history", h.HandleWantedHistory)
	mux.HandleFunc("GET /admin/logs/recent", h.HandleLogsRecent)
	mux.HandleFunc("GET /admin/logs/by-moderator", h.HandleLogsByModerator)
	mux.HandleFunc("GET /admin/logs/by-status", h.HandleLogsByStatus)
	mux.HandleFunc("GET /admin/logs/search", h.HandleLogsSearch)
	mux.HandleFunc("GET /admin/logs/auto", h.HandleLogsAuto)
	mux.HandleFunc("GET /admin/stats", h.HandleAdminStats)

	// Apply middleware in order (outermost first, innermost last)
	var handler http.Handler = mux

	// 1. Resolve the caller's identity from the actor header
	handler = middleware.IdentityMiddleware(handler)

	// 2. Wrap with OpenTelemetry HTTP instrumentation
	handler = otelhttp.NewHandler(handler, "http.server")

	// 3. Apply logging middleware (outermost - wraps everything)
	handler = middleware.LoggingMiddleware(cfg.Logger)(handler)

	return handler
}
