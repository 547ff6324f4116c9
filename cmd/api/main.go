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

	"github.com/chocandle/cho-candle-backend/api/routes"
	"github.com/chocandle/cho-candle-backend/internal/cart"
	"github.com/chocandle/cho-candle-backend/internal/checkout"
	"github.com/chocandle/cho-candle-backend/internal/notifications"
	"github.com/chocandle/cho-candle-backend/internal/orders"
	"github.com/chocandle/cho-candle-backend/internal/payments"
	product "github.com/chocandle/cho-candle-backend/internal/products"
	"github.com/chocandle/cho-candle-backend/internal/profiles"
	"github.com/chocandle/cho-candle-backend/pkg/config"
	"github.com/chocandle/cho-candle-backend/pkg/db"
	"github.com/chocandle/cho-candle-backend/pkg/instance"
	"github.com/chocandle/cho-candle-backend/pkg/logger"
	"github.com/chocandle/cho-candle-backend/pkg/migrate"
	"github.com/chocandle/cho-candle-backend/pkg/outbox"
	"github.com/chocandle/cho-candle-backend/pkg/redis"
	pkgstripe "github.com/chocandle/cho-candle-backend/pkg/stripe"
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

	stripeClient, err := pkgstripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	handler, err := buildHandler(cfg, logg, dbClient, redisClient, stripeClient)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(serverCtx, "api server shutdown failed", err)
	}
	logg.Info(serverCtx, "api server stopped")
}

func buildHandler(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, stripeClient *pkgstripe.Client) (http.Handler, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	productRepo := product.NewRepository(conn)
	productService, err := product.NewService(productRepo)
	if err != nil {
		return nil, err
	}

	cartStorage, err := cart.NewRedisStorage(redisClient, cfg.Checkout.CartTTL)
	if err != nil {
		return nil, err
	}
	cartStore, err := cart.NewStore(cartStorage)
	if err != nil {
		return nil, err
	}
	cartService, err := cart.NewService(cartStore, productService)
	if err != nil {
		return nil, err
	}

	orderRepo := orders.NewRepository(conn)
	orderService, err := orders.NewService(orderRepo, dbClient, productRepo, emitter, logg)
	if err != nil {
		return nil, err
	}

	pricer, err := checkout.NewPricer(productRepo)
	if err != nil {
		return nil, err
	}
	writer, err := checkout.NewWriter(pricer, orderRepo, productRepo, emitter)
	if err != nil {
		return nil, err
	}
	checkoutService, err := checkout.NewService(dbClient, writer, orderRepo, cartService, logg)
	if err != nil {
		return nil, err
	}

	gateway, err := payments.NewStripeGateway(stripeClient)
	if err != nil {
		return nil, err
	}
	paymentService, err := payments.NewService(dbClient, gateway, pricer, writer, orderRepo, payments.Config{
		FrontendURL: cfg.HTTP.FrontendURL,
		Currency:    stripeClient.Currency(),
	}, logg)
	if err != nil {
		return nil, err
	}

	profileService, err := profiles.NewService(profiles.NewRepository(conn), orderRepo)
	if err != nil {
		return nil, err
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(conn), dbClient, emitter)
	if err != nil {
		return nil, err
	}

	return routes.NewRouter(
		cfg,
		logg,
		dbClient,
		redisClient,
		productService,
		cartService,
		checkoutService,
		paymentService,
		orderService,
		profileService,
		notificationService,
	), nil
}
