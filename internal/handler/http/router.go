package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

const serviceName = "storefront"

// RouterConfig carries everything NewRouter mounts.
type RouterConfig struct {
	Catalog   *service.CatalogService
	Reviews   *service.ReviewService
	Orders    *service.OrderService
	Analytics *service.AnalyticsService

	Health         *health.Handler
	ValidateToken  middleware.TokenValidator
	RateLimiter    *middleware.RateLimiter
	CORSOrigins    []string
	PprofCIDRs     []string
	ProductMaxAge  time.Duration
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig, logger *slog.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	products := NewProductHandler(cfg.Catalog, cfg.Reviews, logger)
	orders := NewOrderHandler(cfg.Orders, cfg.Analytics, logger)

	authenticated := middleware.Auth(cfg.ValidateToken)
	adminOnly := middleware.RequireRole(middleware.RoleAdmin)
	limited := cfg.RateLimiter.Handler

	r.Route("/api/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Group(func(r chi.Router) {
			r.Use(middleware.CacheControl(cfg.ProductMaxAge))
			r.Get("/", products.ListProducts)
			r.Get("/{id}", products.GetProduct)
		})

		r.With(authenticated, limited).Post("/{id}/reviews", products.CreateReview)

		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly, limited)
			r.Post("/", products.CreateProduct)
			r.Put("/{id}", products.UpdateProduct)
			r.Delete("/{id}", products.DeleteProduct)
			r.Put("/{id}/media/order", products.ReorderMedia)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Use(ContentTypeJSON, middleware.NoStore, authenticated)

		r.With(limited).Post("/", orders.PlaceOrder)
		r.Get("/myorders", orders.ListMyOrders)
		r.Get("/{id}", orders.GetOrder)
		r.With(limited).Put("/{id}/pay", orders.MarkPaid)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Get("/", orders.ListOrders)
			r.Get("/analytics", orders.Analytics)
			r.With(limited).Put("/{id}/deliver", orders.MarkDelivered)
			r.With(limited).Put("/{id}/refund", orders.Refund)
		})
	})

	return r
}
