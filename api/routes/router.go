package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ruizcommerce/storefront-backend/api/controllers"
	"github.com/ruizcommerce/storefront-backend/api/middleware"
	"github.com/ruizcommerce/storefront-backend/internal/admins"
	"github.com/ruizcommerce/storefront-backend/internal/cart"
	"github.com/ruizcommerce/storefront-backend/internal/catalog"
	checkoutsvc "github.com/ruizcommerce/storefront-backend/internal/checkout"
	"github.com/ruizcommerce/storefront-backend/internal/coupons"
	"github.com/ruizcommerce/storefront-backend/internal/orders"
	"github.com/ruizcommerce/storefront-backend/pkg/config"
	"github.com/ruizcommerce/storefront-backend/pkg/db"
	"github.com/ruizcommerce/storefront-backend/pkg/logger"
	"github.com/ruizcommerce/storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	metricsRegistry *prometheus.Registry,
	catalogService catalog.Service,
	cartService cart.Service,
	checkoutService checkoutsvc.Service,
	couponService coupons.Service,
	adminService admins.Service,
	ordersRepo orders.Repository,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	// Storefront. Session carts work for guests; a bearer token only adds
	// identity for coupon per-user limits and order history.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(catalogService, logg))
			r.Get("/variants/{variantId}", controllers.VariantDetail(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Put("/items/{variantId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{variantId}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Post("/checkout/quote", controllers.CartQuote(checkoutService, logg))
		r.Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersRepo, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersRepo, logg))
		})
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(redisClient, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow, logg)).
			Post("/login", controllers.AdminLogin(adminService, logg))
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminRegister(adminService, cfg, logg))
		}
	})

	// Back office.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", controllers.CouponList(couponService, logg))
			r.Post("/", controllers.CouponCreate(couponService, logg))
			r.Get("/export", controllers.CouponExport(couponService, logg))
			r.Put("/{couponId}", controllers.CouponUpdate(couponService, logg))
			r.Post("/{couponId}/toggle", controllers.CouponToggle(couponService, logg))
			r.Post("/{couponId}/duplicate", controllers.CouponDuplicate(couponService, logg))
			r.Delete("/{couponId}", controllers.CouponDelete(couponService, logg))
		})
	})

	return r
}
