package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/vps-storefront/api/controllers"
	admincontrollers "github.com/angelmondragon/vps-storefront/api/controllers/admin"
	affiliatecontrollers "github.com/angelmondragon/vps-storefront/api/controllers/affiliates"
	cartcontrollers "github.com/angelmondragon/vps-storefront/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/vps-storefront/api/controllers/orders"
	paymentcontrollers "github.com/angelmondragon/vps-storefront/api/controllers/payments"
	productcontrollers "github.com/angelmondragon/vps-storefront/api/controllers/products"
	"github.com/angelmondragon/vps-storefront/api/middleware"
	"github.com/angelmondragon/vps-storefront/internal/dashboard"
	"github.com/angelmondragon/vps-storefront/pkg/clientstate"
	"github.com/angelmondragon/vps-storefront/pkg/config"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
	pkgredis "github.com/angelmondragon/vps-storefront/pkg/redis"
)

// OrderService places and lists billing orders.
type OrderService interface {
	ordercontrollers.Placer
	ordercontrollers.Lister
}

// AffiliateService validates, lists, and previews affiliates.
type AffiliateService interface {
	affiliatecontrollers.Validator
	affiliatecontrollers.Lister
	affiliatecontrollers.CommissionPreviewer
	ordercontrollers.AffiliateChecker
}

// Catalog serves cart lookups and admin refreshes.
type Catalog interface {
	cartcontrollers.Catalog
	admincontrollers.CatalogRefresher
}

// Params are the router dependencies. Optional collaborators are nil when
// their backing service is not configured.
type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	Orders     OrderService
	Products   productcontrollers.Service
	Payments   paymentcontrollers.Service
	Affiliates AffiliateService
	Catalog    Catalog
	Journal    admincontrollers.PlacementJournal
	Readiness  controllers.ReadinessChecks
	Observer   middleware.RequestObserver
	Metrics    http.Handler
	Dashboard  dashboard.Sources
	Renderer   dashboard.Renderer
	Limiter    pkgredis.RateLimiter
	Idempotent pkgredis.IdempotencyStore
}

func NewRouter(p Params) http.Handler {
	cfg, logg := p.Config, p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, p.Observer),
		middleware.CORS(cfg.HTTP.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Readiness))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics)
	}

	apiPolicy := middleware.NewRateLimitPolicy("api", cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitMax)
	cookieOpts := clientstate.CookieOptions{
		Domain: cfg.Storefront.CookieDomain,
		Secure: cfg.Storefront.SecureCookies(cfg.App),
	}

	cart := cartcontrollers.Handlers{
		Catalog:  p.Catalog,
		Placer:   p.Orders,
		Checker:  p.Affiliates,
		Currency: cfg.Storefront.DefaultCurrency,
		Logger:   logg,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(apiPolicy, p.Limiter, logg))
		r.Use(middleware.ClientState(cookieOpts))
		r.Use(middleware.AffiliateCapture(nil, logg))
		r.Use(middleware.Idempotency(p.Idempotent, cfg.HTTP.IdempotencyTTL, logg))

		r.Route("/hostbill", func(r chi.Router) {
			r.Post("/create-order", ordercontrollers.CreateOrder(p.Orders, p.Affiliates, logg))
			r.Post("/create-advanced-order", ordercontrollers.CreateAdvancedOrder(p.Orders, p.Affiliates, logg))
			r.Get("/orders", ordercontrollers.List(p.Orders, logg))
			r.Get("/get-products", productcontrollers.List(p.Products, logg))
			r.Get("/order-pages", productcontrollers.OrderPages(p.Products, logg))
			r.Get("/payment-modules", paymentcontrollers.Modules(p.Payments, logg))
		})

		r.Get("/validate-affiliate", affiliatecontrollers.Validate(p.Affiliates, logg))
		r.Get("/affiliates/{id}/commissions", affiliatecontrollers.Commissions(p.Affiliates, logg))

		r.Route("/payments", func(r chi.Router) {
			r.Get("/methods", paymentcontrollers.Methods(p.Payments, logg))
			r.Post("/initialize", paymentcontrollers.Initialize(p.Payments, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cart.Get())
			r.Delete("/", cart.Clear())
			r.Post("/items", cart.AddItem())
			r.Patch("/items/{id}", cart.UpdateQuantity())
			r.Delete("/items/{id}", cart.RemoveItem())
			r.Post("/affiliate", cart.SetAffiliate())
			r.Post("/checkout", cart.Checkout())
		})
	})

	if cfg.Admin.Enabled() {
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.Admin, logg))
			r.Use(middleware.Idempotency(p.Idempotent, cfg.HTTP.IdempotencyTTL, logg))

			r.Get("/affiliates", affiliatecontrollers.List(p.Affiliates, logg))
			r.Post("/payments/confirm", paymentcontrollers.Confirm(p.Payments, logg))
			r.Get("/placements", admincontrollers.Placements(p.Journal, logg))
			r.Get("/placements/{id}", admincontrollers.Placement(p.Journal, logg))
			r.Post("/catalog/refresh", admincontrollers.RefreshCatalog(p.Catalog, logg))
			r.Get("/dashboard", admincontrollers.Dashboard(p.Dashboard, p.Renderer, logg))
		})
	}

	return r
}
