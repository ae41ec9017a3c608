package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hermannafesehbuma/khalifa-auto/internal/checkout"
	"github.com/hermannafesehbuma/khalifa-auto/internal/service"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/health"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/middleware"
)

const serviceName = "storefront"

// catalogMaxAge is the public cache lifetime of catalog responses, in seconds.
const catalogMaxAge = 60

// RouterConfig holds everything the storefront router mounts.
type RouterConfig struct {
	Vehicles *service.VehicleService
	Carts    *service.CartService
	Checkout *checkout.Adapter
	Leads    *service.LeadService
	Orders   *service.OrderService
	Health   *health.Handler
	Logger   *slog.Logger

	Session     SessionConfig
	CORS        middleware.CORSConfig
	FormLimit   middleware.RateLimitConfig
	AdminAuth   middleware.TokenValidator
	AdminUserID string
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger, "/health/live", "/health/ready", "/metrics"))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	vehicleHandler := NewVehicleHandler(cfg.Vehicles, logger)
	cartHandler := NewCartHandler(cfg.Carts, logger)
	checkoutHandler := NewCheckoutHandler(cfg.Checkout, cfg.Carts, logger)
	leadHandler := NewLeadHandler(cfg.Leads, logger)
	adminHandler := NewAdminHandler(cfg.Orders, logger)

	// Form submissions are throttled per client; a zero rate disables it.
	formLimit := func(next http.Handler) http.Handler { return next }
	if cfg.FormLimit.PerMinute > 0 {
		formLimit = middleware.RateLimit(cfg.FormLimit)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Each group mounts RequestLogger once, after the middleware that
		// puts a session or user id in the context.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestLogger(logger))

			r.Route("/vehicles", func(r chi.Router) {
				r.Use(middleware.CacheControl(catalogMaxAge))

				r.Get("/", vehicleHandler.ListVehicles)
				r.Get("/{id}", vehicleHandler.GetVehicle)
			})

			r.With(formLimit).Post("/leads", leadHandler.SubmitLead)
		})

		// Shopper routes are keyed by the session cookie.
		r.Group(func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(Sessions(cfg.Session))
			r.Use(middleware.RequestLogger(logger))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)

				r.Post("/items", cartHandler.AddItem)
				r.Get("/items/{vehicleId}", cartHandler.ContainsItem)
				r.Put("/items/{vehicleId}", cartHandler.UpdateItemQuantity)
				r.Delete("/items/{vehicleId}", cartHandler.RemoveItem)
			})

			r.With(formLimit).Post("/checkout", checkoutHandler.Submit)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(middleware.Auth(cfg.AdminAuth))
			r.Use(middleware.RequireUser(cfg.AdminUserID))
			r.Use(middleware.RequestLogger(logger))

			r.Get("/orders", adminHandler.ListOrders)
			r.Get("/orders/{id}", adminHandler.GetOrder)
		})
	})

	return r
}
