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

	"github.com/angelmondragon/gasdrop-backend/api/routes"
	"github.com/angelmondragon/gasdrop-backend/internal/agents"
	"github.com/angelmondragon/gasdrop-backend/internal/auth"
	"github.com/angelmondragon/gasdrop-backend/internal/cart"
	"github.com/angelmondragon/gasdrop-backend/internal/checkout"
	"github.com/angelmondragon/gasdrop-backend/internal/orders"
	product "github.com/angelmondragon/gasdrop-backend/internal/products"
	"github.com/angelmondragon/gasdrop-backend/internal/sessions"
	"github.com/angelmondragon/gasdrop-backend/internal/users"
	"github.com/angelmondragon/gasdrop-backend/pkg/auth/session"
	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/db"
	"github.com/angelmondragon/gasdrop-backend/pkg/env"
	"github.com/angelmondragon/gasdrop-backend/pkg/identity"
	"github.com/angelmondragon/gasdrop-backend/pkg/logger"
	"github.com/angelmondragon/gasdrop-backend/pkg/metrics"
	"github.com/angelmondragon/gasdrop-backend/pkg/migrate"
	"github.com/angelmondragon/gasdrop-backend/pkg/outbox"
	"github.com/angelmondragon/gasdrop-backend/pkg/redis"
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
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) error {
	bootCtx := context.Background()

	dbClient, err := db.New(bootCtx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(bootCtx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(bootCtx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(bootCtx, "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	orderMetrics := metrics.NewOrderMetrics(registry)

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	agentRepo := agents.NewRepository(conn)
	productRepo := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)

	resolver, err := sessions.NewResolver(userRepo, agentRepo)
	if err != nil {
		return err
	}
	resolver = resolver.WithDeliveryTTL(cfg.Sessions.DeliveryTTL)

	var verifier identity.Verifier
	if cfg.FeatureFlags.FederatedLogin {
		firebaseVerifier, err := identity.NewFirebaseVerifier(bootCtx, cfg.Firebase)
		if err != nil {
			return err
		}
		verifier = firebaseVerifier
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Resolver:       resolver,
		SessionManager: sessionManager,
		Verifier:       verifier,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		FederatedLogin: cfg.FeatureFlags.FederatedLogin,
	})
	if err != nil {
		return err
	}
	productService, err := product.NewService(productRepo)
	if err != nil {
		return err
	}
	userService, err := users.NewService(userRepo, cfg.Password)
	if err != nil {
		return err
	}
	agentService, err := agents.NewService(agentRepo, userRepo, dbClient, emitter, cfg.Password)
	if err != nil {
		return err
	}
	pricer, err := cart.NewPricer(cfg.Pricing)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartRepo, dbClient, productRepo, pricer)
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(dbClient, cartRepo, orderRepo, productRepo, pricer, emitter, orderMetrics)
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orderRepo, agents.OrderCounters(agentRepo), dbClient, emitter, orderMetrics)
	if err != nil {
		return err
	}

	handler := routes.NewRouter(routes.Dependencies{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Redis:    redisClient,
		Sessions: sessionManager,
		Registry: registry,
		HTTP:     metrics.NewHTTPMetrics(registry),
		Auth:     authService,
		Products: productService,
		Users:    userService,
		Agents:   agentService,
		Cart:     cartService,
		Checkout: checkoutService,
		Orders:   orderService,
	})

	port := env.Get("PORT", cfg.App.Port)
	server := routes.NewServer(":"+port, handler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": server.Addr,
	})
	logg.Info(ctx, "starting api server")

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
