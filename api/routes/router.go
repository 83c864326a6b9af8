package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/avelasquez/storefront-backend/api/controllers"
	"github.com/avelasquez/storefront-backend/api/middleware"
	authsvc "github.com/avelasquez/storefront-backend/internal/auth"
	cartsvc "github.com/avelasquez/storefront-backend/internal/cart"
	catalogsvc "github.com/avelasquez/storefront-backend/internal/catalog"
	checkoutsvc "github.com/avelasquez/storefront-backend/internal/checkout"
	ordersvc "github.com/avelasquez/storefront-backend/internal/orders"
	"github.com/avelasquez/storefront-backend/pkg/config"
	"github.com/avelasquez/storefront-backend/pkg/db"
	"github.com/avelasquez/storefront-backend/pkg/logger"
	"github.com/avelasquez/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	authService authsvc.Service,
	catalogService catalogsvc.Service,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
	ordersService ordersvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbClient, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(authService, logg))
		r.With(middleware.Auth(cfg.JWT, redisClient, logg)).Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/v1/items", func(r chi.Router) {
		r.Get("/", controllers.ItemsList(catalogService, cfg.Display, logg))
		r.Get("/{itemId}", controllers.ItemsGet(catalogService, cfg.Display, logg))
		r.Get("/code/{code}", controllers.ItemsGetByCode(catalogService, cfg.Display, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartView(cartService, cfg.Display, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Post("/scan", controllers.CartScan(cartService, logg))
			r.Patch("/items/{itemId}", controllers.CartSetQuantity(cartService, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Post("/checkout", controllers.CheckoutSubmit(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrdersGet(ordersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, redisClient, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/items", func(r chi.Router) {
			r.Post("/", controllers.AdminItemCreate(catalogService, cfg.Display, logg))
			r.Put("/{itemId}", controllers.AdminItemUpdate(catalogService, cfg.Display, logg))
			r.Delete("/{itemId}", controllers.AdminItemDelete(catalogService, logg))
			r.Post("/{itemId}/stock", controllers.AdminItemAdjustStock(catalogService, cfg.Display, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Patch("/{orderId}/status", controllers.AdminOrderUpdateStatus(ordersService, logg))
		})
	})

	return r
}
