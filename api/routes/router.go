package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront-backend/api/controllers"
	"storefront-backend/api/middleware"
	"storefront-backend/internal/cart"
	checkoutsvc "storefront-backend/internal/checkout"
	"storefront-backend/internal/coupons"
	"storefront-backend/internal/orders"
	"storefront-backend/pkg/config"
	"storefront-backend/pkg/db"
	"storefront-backend/pkg/enums"
	"storefront-backend/pkg/logger"
	"storefront-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	cartService *cart.Service,
	couponService *coupons.Service,
	checkoutService *checkoutsvc.Service,
	orderService *orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Get("/", controllers.CartFetch(cartService, logg))
			r.Get("/validate", controllers.CartValidate(cartService, logg))
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, logg))
			r.Delete("/", controllers.CartClear(cartService, logg))
			r.With(middleware.Auth(cfg.JWT, logg)).Post("/transfer", controllers.CartTransfer(cartService, logg))
		})

		r.With(middleware.OptionalAuth(cfg.JWT, logg)).
			Post("/coupons/validate", controllers.CouponValidate(couponService, logg))

		r.With(middleware.OptionalAuth(cfg.JWT, logg)).
			Post("/checkout", controllers.Checkout(checkoutService, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/", controllers.OrdersList(orderService, logg))
			r.Get("/{orderId}", controllers.OrderFetch(orderService, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(orderService, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(string(enums.UserRoleStaff), logg))

			r.Route("/coupons", func(r chi.Router) {
				r.Get("/", controllers.AdminCouponList(couponService, logg))
				r.Post("/", controllers.AdminCouponCreate(couponService, logg))
				r.Patch("/{couponId}", controllers.AdminCouponUpdate(couponService, logg))
				r.Delete("/{couponId}", controllers.AdminCouponDeactivate(couponService, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrdersList(orderService, logg))
				r.Post("/batch-transition", controllers.AdminOrderBatchTransition(orderService, logg))
				r.Post("/{orderId}/transition", controllers.AdminOrderTransition(orderService, logg))
			})
		})
	})

	return r
}
