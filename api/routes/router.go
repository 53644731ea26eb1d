package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pizzapalace/backend/api/controllers"
	webhookcontrollers "github.com/pizzapalace/backend/api/controllers/webhooks"
	"github.com/pizzapalace/backend/api/middleware"
	authsvc "github.com/pizzapalace/backend/internal/auth"
	cartsvc "github.com/pizzapalace/backend/internal/cart"
	menusvc "github.com/pizzapalace/backend/internal/menu"
	ordersvc "github.com/pizzapalace/backend/internal/orders"
	paymentsvc "github.com/pizzapalace/backend/internal/payments"
	stripewebhook "github.com/pizzapalace/backend/internal/webhooks/stripe"
	"github.com/pizzapalace/backend/pkg/config"
	"github.com/pizzapalace/backend/pkg/db"
	"github.com/pizzapalace/backend/pkg/logger"
	"github.com/pizzapalace/backend/pkg/metrics"
	"github.com/pizzapalace/backend/pkg/redis"
	"github.com/pizzapalace/backend/pkg/stripe"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          redis.Pinger
	Registry       *prometheus.Registry
	PaymentMetrics *metrics.PaymentMetrics

	AuthService    authsvc.Service
	MenuService    menusvc.Service
	CartService    cartsvc.Service
	OrderService   ordersvc.Service
	PaymentService paymentsvc.Service

	StripeClient *stripe.Client
	WebhookSvc   *stripewebhook.Service
	WebhookGuard *stripewebhook.IdempotencyGuard
}

// NewRouter builds the chi router with the full route tree.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	cartSession := middleware.CartToken(cfg.Cart.TTL, cfg.App.IsProd())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.WebhookSvc, d.StripeClient, d.WebhookGuard, d.PaymentMetrics, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(d.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(d.AuthService, logg))
	})

	r.Route("/api/v1/menu", func(r chi.Router) {
		r.Get("/", controllers.ListMenu(d.MenuService, logg))
		r.Get("/{itemId}", controllers.GetMenuItem(d.MenuService, logg))
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(cartSession)
		r.Get("/", controllers.GetCart(d.CartService, logg))
		r.Delete("/", controllers.ClearCart(d.CartService, logg))
		r.Post("/items", controllers.AddCartItem(d.CartService, logg))
		r.Put("/items/{itemId}", controllers.UpdateCartItem(d.CartService, logg))
		r.Delete("/items/{itemId}", controllers.RemoveCartItem(d.CartService, logg))
	})

	r.Group(func(r chi.Router) {
		r.Use(cartSession, middleware.OptionalAuth(cfg.JWT, logg))
		r.Post("/api/v1/checkout", controllers.Checkout(d.OrderService, d.CartService, logg))
		r.Get("/api/v1/payments/success", controllers.PaymentSuccess(d.PaymentService, d.CartService, logg))
	})

	r.Post("/api/v1/orders/{orderNumber}/pay", controllers.BeginPayment(d.PaymentService, logg))
	r.Get("/api/v1/orders/{orderNumber}", controllers.GetOrder(d.OrderService, logg))

	r.With(middleware.Auth(cfg.JWT, logg)).Get("/api/v1/orders", controllers.ListMyOrders(d.OrderService, logg))

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg), middleware.RequireAdmin(logg))
		r.Post("/orders/{orderId}/status", controllers.AdminUpdateOrderStatus(d.OrderService, logg))
	})

	return r
}
