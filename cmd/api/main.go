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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/vps-storefront/api/controllers"
	"github.com/angelmondragon/vps-storefront/api/routes"
	"github.com/angelmondragon/vps-storefront/internal/affiliates"
	"github.com/angelmondragon/vps-storefront/internal/catalog"
	"github.com/angelmondragon/vps-storefront/internal/dashboard"
	"github.com/angelmondragon/vps-storefront/internal/orders"
	"github.com/angelmondragon/vps-storefront/internal/payments"
	"github.com/angelmondragon/vps-storefront/internal/products"
	"github.com/angelmondragon/vps-storefront/pkg/config"
	"github.com/angelmondragon/vps-storefront/pkg/db"
	"github.com/angelmondragon/vps-storefront/pkg/env"
	"github.com/angelmondragon/vps-storefront/pkg/hostbill"
	"github.com/angelmondragon/vps-storefront/pkg/instance"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
	"github.com/angelmondragon/vps-storefront/pkg/metrics"
	"github.com/angelmondragon/vps-storefront/pkg/migrate"
	"github.com/angelmondragon/vps-storefront/pkg/redis"
)

const (
	serviceName     = "vps-storefront"
	shutdownTimeout = 15 * time.Second
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), cfg.Describe())
	ctx = logg.WithField(ctx, "instance", instance.GetID())
	logg.Info(ctx, "config loaded")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	billing, err := hostbill.NewClientFromConfig(ctx, cfg.HostBill, cfg.App, logg, recorder)
	if err != nil {
		logg.Error(ctx, "failed to create hostbill client", err)
		os.Exit(1)
	}

	cat, err := catalog.Open(cfg.Storefront.CatalogPath)
	if err != nil {
		logg.Error(ctx, "failed to load catalog", err)
		os.Exit(1)
	}
	logg.Info(logg.WithField(ctx, "catalog_size", cat.Size()), "catalog loaded")

	readiness := controllers.ReadinessChecks{
		Billing: controllers.PingFunc(func(ctx context.Context) error {
			_, err := billing.GetPaymentModules(ctx)
			return err
		}),
	}
	params := routes.Params{
		Config:   cfg,
		Logger:   logg,
		Catalog:  cat,
		Observer: recorder,
		Metrics:  recorder.Handler(),
		Dashboard: dashboard.Sources{
			Service: serviceName,
			Env:     cfg.App.Env,
			Metrics: recorder,
			Breaker: billing,
			Catalog: cat,
		},
	}

	if cfg.Redis.Enabled() {
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
		readiness.Redis = redisClient
		params.Limiter = redisClient
		params.Idempotent = redisClient
	} else {
		logg.Warn(ctx, "redis not configured, rate limiting and idempotency disabled")
	}

	var journal orders.Repository
	if cfg.DB.Enabled() {
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
		if err := migrate.MaybeAutoRun(ctx, cfg.DB, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run migrations", err)
			os.Exit(1)
		}
		readiness.DB = dbClient
		journal = orders.NewRepository(dbClient.DB())
		params.Journal = journal
	} else {
		logg.Warn(ctx, "database not configured, placement journal disabled")
	}
	params.Readiness = readiness

	orderService, err := orders.NewService(orders.ServiceParams{
		Gateway:         billing,
		Catalog:         cat,
		Journal:         journal,
		Observer:        recorder,
		Logger:          logg,
		DefaultCurrency: cfg.Storefront.DefaultCurrency,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}
	productService, err := products.NewService(billing, cat)
	if err != nil {
		logg.Error(ctx, "failed to create product service", err)
		os.Exit(1)
	}
	paymentService, err := payments.NewService(payments.ServiceParams{
		Gateway:       billing,
		Logger:        logg,
		ClientAreaURL: cfg.HostBill.ClientArea(),
	})
	if err != nil {
		logg.Error(ctx, "failed to create payment service", err)
		os.Exit(1)
	}
	affiliateService, err := affiliates.NewService(billing, cat, logg)
	if err != nil {
		logg.Error(ctx, "failed to create affiliate service", err)
		os.Exit(1)
	}
	params.Orders = orderService
	params.Products = productService
	params.Payments = paymentService
	params.Affiliates = affiliateService

	if cfg.Admin.Enabled() {
		renderer, err := dashboard.NewHTMLRenderer()
		if err != nil {
			logg.Error(ctx, "failed to parse dashboard templates", err)
			os.Exit(1)
		}
		params.Renderer = renderer
	}

	addr := ":" + env.First(cfg.App.Port, "PORT")
	ctx = logg.WithFields(ctx, map[string]any{"addr": addr})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(params),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}
