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

	"github.com/angelmondragon/artcart-backend/api/routes"
	"github.com/angelmondragon/artcart-backend/internal/auth"
	"github.com/angelmondragon/artcart-backend/internal/cart"
	"github.com/angelmondragon/artcart-backend/internal/checkout"
	"github.com/angelmondragon/artcart-backend/internal/notifications"
	"github.com/angelmondragon/artcart-backend/internal/orders"
	"github.com/angelmondragon/artcart-backend/internal/otp"
	"github.com/angelmondragon/artcart-backend/internal/pricing"
	product "github.com/angelmondragon/artcart-backend/internal/products"
	"github.com/angelmondragon/artcart-backend/internal/uploads"
	"github.com/angelmondragon/artcart-backend/internal/users"
	"github.com/angelmondragon/artcart-backend/pkg/config"
	"github.com/angelmondragon/artcart-backend/pkg/db"
	"github.com/angelmondragon/artcart-backend/pkg/instance"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/angelmondragon/artcart-backend/pkg/metrics"
	"github.com/angelmondragon/artcart-backend/pkg/migrate"
	"github.com/angelmondragon/artcart-backend/pkg/redis"
)

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
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	shopMetrics := metrics.NewShopMetrics(registry)

	var (
		cartStore cart.Store = cart.NewMemoryStore()
		otpStore  otp.Store  = otp.NewMemoryStore(nil)
		kvStore   routes.KeyValueStore
	)
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cartStore, err = cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
		requireResource(ctx, logg, "redis cart store", err)
		otpStore, err = otp.NewRedisStore(redisClient, cfg.OTP.TTL)
		requireResource(ctx, logg, "redis otp store", err)
		kvStore = redisClient
	} else {
		logg.Warn(ctx, "redis not configured; carts and otp codes are kept in memory")
	}

	proofs, err := uploads.NewLocalStore(cfg.Payment.UploadDir, cfg.Payment.MaxUploadBytes())
	requireResource(ctx, logg, "upload store", err)

	mailer := notifications.NewMailer(cfg.Mail, logg)
	engine := pricing.NewEngine(pricing.ShippingPolicy{
		Charge:        cfg.Pricing.ShippingChargeAmount(),
		FreeThreshold: cfg.Pricing.FreeShippingThresholdAmount(),
	}, logg)

	productRepo := product.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())

	productService, err := product.NewService(productRepo, logg)
	requireResource(ctx, logg, "product service", err)

	cartService, err := cart.NewService(cartStore, productService, engine, shopMetrics, logg, cart.Options{MaxLines: cfg.Cart.MaxLines})
	requireResource(ctx, logg, "cart service", err)

	otpService, err := otp.NewService(otpStore, mailer, cfg.OTP, shopMetrics, logg)
	requireResource(ctx, logg, "otp service", err)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(dbClient.DB()),
		OTP:            otpService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		OTPConfig:      cfg.OTP,
		Logger:         logg,
	})
	requireResource(ctx, logg, "auth service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:       dbClient,
		Cart:     cartService,
		Products: productRepo,
		Orders:   ordersRepo,
		Proofs:   proofs,
		Mailer:   mailer,
		Payment:  cfg.Payment,
		Currency: cfg.Pricing.Currency,
		Metrics:  shopMetrics,
		Logger:   logg,
	})
	requireResource(ctx, logg, "checkout service", err)

	ordersService, err := orders.NewService(orders.ServiceParams{
		Tx:       dbClient,
		Orders:   ordersRepo,
		Products: productRepo,
		Mailer:   mailer,
		Metrics:  shopMetrics,
		Logger:   logg,
	})
	requireResource(ctx, logg, "orders service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:       dbClient,
			Store:    kvStore,
			Gatherer: registry,
			Auth:     authService,
			Products: productService,
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   ordersService,
			Proofs:   proofs,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}()

	logg.Info(ctx, "starting api server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
