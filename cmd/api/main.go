package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/restaurant-storefront/api/controllers"
	"github.com/angelmondragon/restaurant-storefront/api/routes"
	"github.com/angelmondragon/restaurant-storefront/internal/address"
	"github.com/angelmondragon/restaurant-storefront/internal/auth"
	"github.com/angelmondragon/restaurant-storefront/internal/cart"
	"github.com/angelmondragon/restaurant-storefront/internal/catalog"
	"github.com/angelmondragon/restaurant-storefront/internal/checkout"
	"github.com/angelmondragon/restaurant-storefront/internal/contact"
	"github.com/angelmondragon/restaurant-storefront/internal/delivery"
	"github.com/angelmondragon/restaurant-storefront/internal/events"
	"github.com/angelmondragon/restaurant-storefront/internal/orders"
	"github.com/angelmondragon/restaurant-storefront/internal/payments"
	"github.com/angelmondragon/restaurant-storefront/internal/reconcile"
	"github.com/angelmondragon/restaurant-storefront/pkg/auth/session"
	"github.com/angelmondragon/restaurant-storefront/pkg/backend"
	"github.com/angelmondragon/restaurant-storefront/pkg/bigquery"
	"github.com/angelmondragon/restaurant-storefront/pkg/config"
	"github.com/angelmondragon/restaurant-storefront/pkg/db"
	"github.com/angelmondragon/restaurant-storefront/pkg/logger"
	"github.com/angelmondragon/restaurant-storefront/pkg/maps"
	"github.com/angelmondragon/restaurant-storefront/pkg/metrics"
	"github.com/angelmondragon/restaurant-storefront/pkg/migrate"
	"github.com/angelmondragon/restaurant-storefront/pkg/pubsub"
	"github.com/angelmondragon/restaurant-storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	checks := map[string]controllers.Pinger{
		"db":    dbClient,
		"redis": redisClient,
	}

	emitter := events.Emitter(events.Nop{})
	if cfg.GCP.Enabled() {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer pubsubClient.Close()

		bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap bigquery", err)
			os.Exit(1)
		}
		defer bqClient.Close()

		gcpEmitter, err := events.NewGCPEmitter(pubsubClient, bqClient, events.Config{
			Topic: pubsubClient.CheckoutTopic(),
			Table: bqClient.CheckoutEventsTable(),
		}, logg)
		if err != nil {
			logg.Error(ctx, "failed to create event emitter", err)
			os.Exit(1)
		}
		emitter = gcpEmitter
		checks["pubsub"] = pubsubClient
		checks["bigquery"] = bqClient
	} else {
		logg.Warn(ctx, "gcp project not configured, checkout events disabled")
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	backendClient, err := backend.NewClient(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithLogger(logg),
	)
	if err != nil {
		logg.Error(ctx, "failed to create backend client", err)
		os.Exit(1)
	}

	var geocoder address.Geocoder
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey, maps.WithRegion(cfg.GoogleMaps.Region))
		if err != nil {
			logg.Error(ctx, "failed to create geocoding client", err)
			os.Exit(1)
		}
		geocoder = mapsClient
	} else {
		logg.Warn(ctx, "google maps key not configured, addresses need a map pin")
	}

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	var providers []auth.Provider
	if cfg.OAuth.GoogleClientID != "" {
		google, err := auth.NewGoogleProvider(cfg.OAuth.GoogleClientID)
		if err != nil {
			logg.Error(ctx, "failed to create google provider", err)
			os.Exit(1)
		}
		providers = append(providers, google)
	}
	if cfg.OAuth.FacebookAppID != "" {
		facebook, err := auth.NewFacebookProvider(cfg.OAuth.FacebookAppID, cfg.OAuth.FacebookAppSecret, &http.Client{Timeout: 10 * time.Second})
		if err != nil {
			logg.Error(ctx, "failed to create facebook provider", err)
			os.Exit(1)
		}
		providers = append(providers, facebook)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		Backend:   backendClient,
		Profiles:  auth.NewRepository(dbClient.DB()),
		Sessions:  sessionManager,
		Providers: providers,
		JWTConfig: cfg.JWT,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	selection, err := address.NewSelectionStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		logg.Error(ctx, "failed to create address selection store", err)
		os.Exit(1)
	}
	addressService, err := address.NewService(backendClient, geocoder, selection, logg)
	if err != nil {
		logg.Error(ctx, "failed to create address service", err)
		os.Exit(1)
	}

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.TTL, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cart store", err)
		os.Exit(1)
	}
	feeStore, err := delivery.NewRedisStateStore(redisClient, cfg.Cart.TTL)
	if err != nil {
		logg.Error(ctx, "failed to create delivery state store", err)
		os.Exit(1)
	}
	deliveryService, err := delivery.NewService(feeStore, addressService, cartStore, backendClient, checkoutMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create delivery service", err)
		os.Exit(1)
	}
	cartService, err := cart.NewService(cartStore, catalogService, deliveryService, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}

	ordersClient, err := orders.NewClient(backendClient)
	if err != nil {
		logg.Error(ctx, "failed to create orders client", err)
		os.Exit(1)
	}
	gateway, err := payments.NewGateway(backendClient)
	if err != nil {
		logg.Error(ctx, "failed to create payment gateway", err)
		os.Exit(1)
	}
	pending, err := payments.NewPendingStore(redisClient, cfg.Payments.PendingTTL)
	if err != nil {
		logg.Error(ctx, "failed to create pending payment store", err)
		os.Exit(1)
	}
	reconcileQueue, err := reconcile.NewQueue(redisClient)
	if err != nil {
		logg.Error(ctx, "failed to create reconcile queue", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Delivery:      deliveryService,
		Orders:        ordersClient,
		Payments:      gateway,
		Pending:       pending,
		Reconcile:     reconcileQueue,
		Events:        emitter,
		Metrics:       checkoutMetrics,
		Logger:        logg,
		ReturnBaseURL: cfg.Payments.ReturnBaseURL,
	})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	effects, err := checkout.NewTerminalEffects(cartService, ordersClient, reconcileQueue, emitter, checkoutMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payment terminal effects", err)
		os.Exit(1)
	}
	terminalLedger, err := payments.NewTerminalLedger(redisClient, cfg.Payments.TerminalTTL)
	if err != nil {
		logg.Error(ctx, "failed to create payment terminal ledger", err)
		os.Exit(1)
	}
	tracker, err := payments.NewTracker(gateway, payments.OnceTerminal(effects, terminalLedger, logg), pending, payments.TrackerConfig{
		PollInterval: cfg.Payments.PollInterval,
		CancelGrace:  cfg.Payments.CancelGrace,
		IdleTimeout:  cfg.Payments.IdleTimeout,
	}, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payment tracker", err)
		os.Exit(1)
	}
	go tracker.Run(ctx)

	var whatsapp *contact.WhatsApp
	if cfg.Contact.WhatsAppNumber != "" {
		whatsapp, err = contact.NewWhatsApp(cfg.Contact.WhatsAppNumber)
		if err != nil {
			logg.Error(ctx, "invalid whatsapp number", err)
			os.Exit(1)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			checks,
			prometheus.DefaultGatherer,
			redisClient,
			sessionManager,
			authService,
			catalogService,
			cartService,
			addressService,
			deliveryService,
			checkoutService,
			tracker,
			whatsapp,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "api server shutdown failed", err)
		}
		tracker.Stop()
	}
}
