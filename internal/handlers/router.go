package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/middleware"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// RouterConfig carries everything the API router mounts
type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	Sessions       middleware.SessionValidator
	Health         *HealthHandler
	Products       *ProductHandler
	Zones          *ZoneHandler
	Orders         *OrderHandler
	Admin          *AdminHandler
	Metrics        http.Handler
}

// NewRouter builds the chi router for the order API
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", cfg.Health.ServeHTTP)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		// Public catalog and zone lookups
		r.Get("/product", cfg.Products.ListProducts)
		r.Get("/product/{productId}", cfg.Products.GetProduct)
		r.Get("/zones/cities", cfg.Zones.ListCities)
		r.Get("/zones/cities/{city}/neighborhoods", cfg.Zones.ListNeighborhoods)
		r.Get("/zones/fee", cfg.Zones.ResolveFee)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(cfg.Sessions, log))

			r.Post("/order", cfg.Orders.CreateOrder)
			r.Get("/order", cfg.Orders.ListOrders)
			r.Get("/order/{orderId}", cfg.Orders.GetOrder)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(log, models.RoleAdmin))

				r.Get("/orders", cfg.Admin.ListOrders)
				r.Patch("/orders/{orderId}/status", cfg.Admin.UpdateStatus)
				r.Patch("/orders/{orderId}/payment", cfg.Admin.UpdatePayment)
			})
		})
	})

	return r
}
