package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/restaurant-storefront/api/controllers"
	"github.com/angelmondragon/restaurant-storefront/api/middleware"
	"github.com/angelmondragon/restaurant-storefront/internal/address"
	"github.com/angelmondragon/restaurant-storefront/internal/auth"
	"github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/internal/catalog"
	checkoutsvc "github.com/angelmondragon/restaurant-storefront/internal/checkout"
	"github.com/angelmondragon/restaurant-storefront/internal/contact"
	"github.com/angelmondragon/restaurant-storefront/internal/delivery"
	"github.com/angelmondragon/restaurant-storefront/internal/payments"
	"github.com/angelmondragon/restaurant-storefront/pkg/auth/session"
	"github.com/angelmondragon/restaurant-storefront/pkg/config"
	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	pkgredis "github.com/angelmondragon/restaurant-storefront/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	checks map[string]controllers.Pinger,
	gatherer prometheus.Gatherer,
	redisClient *pkgredis.Client,
	sessions session.AccessSessionChecker,
	authService auth.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	addressService address.Service,
	deliveryService delivery.Service,
	checkoutService checkoutsvc.Service,
	tracker *payments.Tracker,
	whatsapp *contact.WhatsApp,
) http.Handler {
	var (
		idempotencyStore pkgredis.IdempotencyStore
		rateStore        pkgredis.RateLimitStore
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		rateStore = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	limits := cfg.RateLimit
	loginPolicy := middleware.NewRateLimitPolicy("login", limits.LoginWindow, limits.LoginIPLimit, middleware.EmailSubject, limits.LoginEmailLimit)
	registerPolicy := middleware.NewRateLimitPolicy("register", limits.RegisterWindow, limits.RegisterIPLimit, middleware.EmailSubject, limits.RegisterEmailLimit)
	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", limits.CheckoutWindow, limits.CheckoutIPLimit, middleware.SessionSubject, limits.CheckoutLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(
			middleware.Language(logg, i18n.Lang(cfg.App.DefaultLang)),
			middleware.Session(logg),
		)

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.Idempotency(idempotencyStore, logg))
				r.With(middleware.RateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AuthLogin(authService, logg))
				r.With(middleware.RateLimit(registerPolicy, rateStore, logg)).Post("/register", controllers.AuthRegister(authService, logg))
				r.With(middleware.RateLimit(loginPolicy, rateStore, logg)).Post("/oauth/{provider}", controllers.AuthOAuth(authService, logg))
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.Auth(cfg.JWT, sessions, logg))
				r.Post("/logout", controllers.AuthLogout(authService, logg))
				r.Get("/me", controllers.AuthMe(authService, logg))
				r.Put("/me/phone", controllers.AuthUpdatePhone(authService, logg))
			})
		})

		// Guests browse and fill a cart with only a storefront session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, sessions, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Route("/catalog", func(r chi.Router) {
				r.Get("/branches", controllers.CatalogBranches(catalogService, logg))
				r.Get("/branches/{branchId}", controllers.CatalogBranch(catalogService, logg))
				r.Get("/categories", controllers.CatalogCategories(catalogService, logg))
				r.Get("/products", controllers.CatalogProducts(catalogService, logg))
				r.Get("/products/{productId}", controllers.CatalogProduct(catalogService, logg))
				r.Get("/offers", controllers.CatalogOffers(catalogService, logg))
				r.Get("/offers/{offerId}", controllers.CatalogOffer(catalogService, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Put("/branch", controllers.CartSelectBranch(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
			})

			r.Get("/contact/whatsapp", controllers.ContactWhatsApp(whatsapp, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", controllers.AddressList(addressService, logg))
				r.Post("/", controllers.AddressCreate(addressService, logg))
				r.Get("/selected", controllers.AddressSelected(addressService, logg))
				r.Put("/selected", controllers.AddressSelect(addressService, deliveryService, logg))
				r.Put("/{addressId}", controllers.AddressUpdate(addressService, logg))
				r.Delete("/{addressId}", controllers.AddressDelete(addressService, logg))
				r.Put("/{addressId}/default", controllers.AddressSetDefault(addressService, logg))
			})

			r.Route("/delivery", func(r chi.Router) {
				r.Get("/fee", controllers.DeliveryFee(deliveryService, logg))
				r.Post("/resolve", controllers.DeliveryResolve(deliveryService, logg))
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/summary", controllers.CheckoutSummary(checkoutService, authService, logg))
				r.With(middleware.RateLimit(checkoutPolicy, rateStore, logg)).Post("/submit", controllers.CheckoutSubmit(checkoutService, authService, logg))
			})

			r.Route("/payments", func(r chi.Router) {
				r.Post("/track", controllers.PaymentTrack(tracker, logg))
				r.Get("/status", controllers.PaymentStatus(tracker, logg))
				r.Post("/cancel", controllers.PaymentCancel(tracker, logg))
			})
		})
	})

	return r
}
