package routes

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/artcart-backend/api/controllers"
	authcontrollers "github.com/angelmondragon/artcart-backend/api/controllers/auth"
	cartcontrollers "github.com/angelmondragon/artcart-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/artcart-backend/api/controllers/orders"
	"github.com/angelmondragon/artcart-backend/api/middleware"
	authsvc "github.com/angelmondragon/artcart-backend/internal/auth"
	"github.com/angelmondragon/artcart-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/artcart-backend/internal/checkout"
	"github.com/angelmondragon/artcart-backend/internal/orders"
	product "github.com/angelmondragon/artcart-backend/internal/products"
	"github.com/angelmondragon/artcart-backend/pkg/config"
	"github.com/angelmondragon/artcart-backend/pkg/enums"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
)

// KeyValueStore backs idempotency and rate limiting. Leave it nil to run
// without either.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	IdempotencyKey(scope, id string) string
	RateLimitKey(scope string) string
	Ping(ctx context.Context) error
}

type proofOpener interface {
	Open(path string) (io.ReadCloser, error)
}

// Dependencies are the services mounted by the router.
type Dependencies struct {
	DB       controllers.Pinger
	Store    KeyValueStore
	Gatherer prometheus.Gatherer

	Auth     authsvc.Service
	Products product.Service
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Orders   orders.Service
	Proofs   proofOpener
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{"database": deps.DB}
	if deps.Store != nil {
		readiness["redis"] = deps.Store
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	otpPolicy := middleware.NewRateLimitPolicy("otp", cfg.RateLimit.OTPWindow, cfg.RateLimit.OTPIPLimit, cfg.RateLimit.OTPEmailLimit)
	loginPolicy := middleware.NewRateLimitPolicy("login", cfg.RateLimit.LoginWindow, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginLimit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Get("/{sku}", controllers.ProductDetail(deps.Products, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.RateLimit(otpPolicy, deps.Store, logg)).Post("/register", authcontrollers.Register(deps.Auth, logg))
			r.With(middleware.RateLimit(otpPolicy, deps.Store, logg)).Post("/resend", authcontrollers.Resend(deps.Auth, logg))
			r.With(middleware.RateLimit(loginPolicy, deps.Store, logg)).Post("/verify", authcontrollers.Verify(deps.Auth, logg))
			r.With(middleware.RateLimit(loginPolicy, deps.Store, logg)).Post("/login", authcontrollers.Login(deps.Auth, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.CartSession(cfg.Cart.SessionTTL, cfg.App.IsProd(), logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{lineId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{lineId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			})

			r.Get("/checkout/payment-details", controllers.CheckoutPaymentDetails(deps.Checkout, logg))
			r.With(middleware.Idempotency(deps.Store, logg)).
				Post("/checkout", controllers.Checkout(deps.Checkout, cfg.Payment.MaxUploadBytes(), logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Get("/{orderId}/invoice", ordercontrollers.Invoice(deps.Orders, ordercontrollers.InvoiceSettings{
				Merchant: cfg.Merchant,
				Currency: cfg.Pricing.Currency,
			}, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(deps.Products, logg))
			r.Put("/{sku}", controllers.AdminProductSave(deps.Products, logg))
			r.Put("/{sku}/stock", controllers.AdminProductStock(deps.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
			r.Get("/{orderId}/payment-proof", ordercontrollers.AdminPaymentProof(deps.Orders, deps.Proofs, logg))
			r.With(middleware.Idempotency(deps.Store, logg)).
				Post("/{orderId}/payment-review", ordercontrollers.AdminPaymentReview(deps.Orders, logg))
			r.With(middleware.Idempotency(deps.Store, logg)).
				Post("/{orderId}/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
		})
	})

	return r
}
