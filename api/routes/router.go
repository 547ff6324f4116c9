package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/chocandle/cho-candle-backend/api/controllers"
	"github.com/chocandle/cho-candle-backend/api/middleware"
	"github.com/chocandle/cho-candle-backend/internal/cart"
	"github.com/chocandle/cho-candle-backend/internal/checkout"
	"github.com/chocandle/cho-candle-backend/internal/notifications"
	"github.com/chocandle/cho-candle-backend/internal/orders"
	"github.com/chocandle/cho-candle-backend/internal/payments"
	product "github.com/chocandle/cho-candle-backend/internal/products"
	"github.com/chocandle/cho-candle-backend/internal/profiles"
	"github.com/chocandle/cho-candle-backend/pkg/config"
	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
	pkgredis "github.com/chocandle/cho-candle-backend/pkg/redis"
)

// RedisStore is the slice of the Redis client the HTTP layer uses.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisStore RedisStore,
	productService product.Service,
	cartService cart.Service,
	checkoutService checkout.Service,
	paymentService payments.Service,
	orderService orders.Service,
	profileService profiles.Service,
	notificationService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.HTTP.AllowedOrigins()),
	)

	readiness := map[string]controllers.Pinger{}
	if dbP != nil {
		readiness["db"] = dbP
	}
	if redisStore != nil {
		readiness["redis"] = redisStore
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	sessionPolicy := middleware.RateLimitPolicy{
		Name:   "checkout-session",
		Limit:  cfg.Checkout.SessionLimit,
		Window: cfg.Checkout.SessionWindow,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", controllers.LegacyHealth())
		r.Get("/products", controllers.LegacyProductList(productService, logg))
		r.Get("/v1/products", controllers.ProductCatalog(productService, logg))
		r.Get("/v1/products/{slug}", controllers.ProductBySlug(productService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Idempotency(redisStore, logg))

			r.With(middleware.UserRateLimit(sessionPolicy, redisStore, logg)).
				Post("/create-checkout-session", controllers.CreateCheckoutSession(paymentService, logg))
			r.Post("/confirm-order", controllers.ConfirmOrder(paymentService, logg))

			r.Route("/v1/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{productId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{productId}", controllers.CartRemoveItem(cartService, logg))
			})
			r.Post("/v1/checkout", controllers.CheckoutPlaceOrder(checkoutService, logg))

			r.Route("/v1/orders", func(r chi.Router) {
				r.Get("/", controllers.OrderList(orderService, logg))
				r.Get("/summary", controllers.OrderSummary(orderService, logg))
				r.Get("/{orderId}", controllers.OrderDetail(orderService, logg))
				r.Post("/{orderId}/cancel", controllers.OrderCancel(orderService, logg))
				r.Post("/{orderId}/receipt", controllers.OrderConfirmReceipt(orderService, logg))
				r.Post("/{orderId}/issues", controllers.OrderReportIssue(orderService, logg))
				r.Post("/{orderId}/refunds", controllers.OrderRequestRefund(orderService, logg))
			})

			r.Route("/v1/profile", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(profileService, logg))
				r.Put("/", controllers.ProfileUpdate(profileService, logg))
			})

			r.Route("/v1/notifications", func(r chi.Router) {
				r.Get("/", controllers.NotificationList(notificationService, logg))
				r.Get("/unread-count", controllers.NotificationUnreadCount(notificationService, logg))
				r.Post("/read-all", controllers.NotificationMarkAllRead(notificationService, logg))
				r.Post("/{id}/read", controllers.NotificationMarkRead(notificationService, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin(profileService, logg))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.AdminProductList(productService, logg))
					r.Post("/", controllers.AdminProductCreate(productService, logg))
					r.Put("/{id}", controllers.AdminProductUpdate(productService, logg))
					r.Delete("/{id}", controllers.AdminProductDelete(productService, logg))
				})
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", controllers.AdminOrderList(orderService, logg))
					r.Get("/{id}", controllers.AdminOrderGet(orderService, logg))
					r.Patch("/{id}/status", controllers.AdminOrderUpdateStatus(orderService, logg))
				})
				r.Route("/notifications", func(r chi.Router) {
					r.Get("/", controllers.AdminNotificationList(notificationService, logg))
					r.Post("/", controllers.AdminNotificationCreate(notificationService, logg))
					r.Delete("/{id}", controllers.AdminNotificationDelete(notificationService, logg))
				})
			})
		})
	})

	return r
}
