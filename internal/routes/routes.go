// Package routes wires repositories, services and handlers into the fiber app.
package routes

import (
	"context"
	"fmt"

	"bundlehub/internal/config"
	"bundlehub/internal/events"
	"bundlehub/internal/handlers"
	"bundlehub/internal/metrics"
	"bundlehub/internal/middleware"
	"bundlehub/internal/repositories"
	"bundlehub/internal/repositories/cache"
	"bundlehub/internal/services/analytics"
	"bundlehub/internal/services/auth"
	"bundlehub/internal/services/delivery"
	"bundlehub/internal/services/notification"
	"bundlehub/internal/services/order"
	"bundlehub/internal/services/payment"
	"bundlehub/internal/services/wallet"
	"bundlehub/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the process level resources the routes are built on.
// Cache and Publisher are optional.
type Dependencies struct {
	Config    *config.Config
	DB        *gorm.DB
	Cache     *cache.CacheService
	Publisher events.Publisher
	Metrics   *metrics.Collector
	Logger    *zap.Logger
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, deps Dependencies) error {
	cfg, log := deps.Config, deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.NewCollector()
	}

	ledgerRepo := repositories.NewLedgerRepository(deps.DB)
	userRepo := repositories.NewUserRepository(deps.DB)
	bundleRepo := repositories.NewBundleRepository(deps.DB)
	apiLogRepo := repositories.NewAPILogRepository(deps.DB)

	var walletCache wallet.Cache
	if deps.Cache != nil {
		walletCache = deps.Cache
	}

	// Every service that moves money must share this locker.
	locker := wallet.NewUserLocker()

	walletService := wallet.NewService(ledgerRepo, walletCache, locker, deps.Publisher, deps.Metrics, log.Named("wallet"))

	var deliverer order.Deliverer
	if cfg.IShare.Enabled {
		client, err := delivery.NewClient(delivery.Config{
			URL:          cfg.IShare.URL,
			Username:     cfg.IShare.Username,
			Password:     cfg.IShare.Password,
			DealerMSISDN: cfg.IShare.DealerMSISDN,
			Timeout:      cfg.IShare.Timeout,
			MaxAttempts:  cfg.IShare.MaxAttempts,
			BaseDelay:    cfg.IShare.BaseDelay,
		}, deps.Metrics, log.Named("delivery"))
		if err != nil {
			return fmt.Errorf("failed to configure delivery: %w", err)
		}
		deliverer = client
	} else {
		log.Warn("iShare delivery disabled, AT-ishare orders will be rejected")
	}

	notifier := notification.NewService(notification.Config{
		Enabled:  cfg.SMS.Enabled,
		BaseURL:  cfg.SMS.BaseURL,
		APIKey:   cfg.SMS.APIKey,
		SenderID: cfg.SMS.SenderID,
	}, log.Named("sms"))

	orderService := order.NewService(order.Dependencies{
		Repo:      ledgerRepo,
		Bundles:   bundleRepo,
		Deliverer: deliverer,
		Notifier:  notifier,
		Locker:    locker,
		Cache:     walletCache,
		Publisher: deps.Publisher,
		Metrics:   deps.Metrics,
		Logger:    log.Named("order"),
	})

	verifiers := map[string]payment.Verifier{}
	var paystack handlers.PaymentInitializer
	if cfg.Paystack.SecretKey != "" {
		client := payment.NewPaystackClient(payment.PaystackConfig{
			SecretKey:   cfg.Paystack.SecretKey,
			BaseURL:     cfg.Paystack.BaseURL,
			CallbackURL: cfg.Paystack.CallbackURL,
			Currency:    cfg.Wallet.Currency,
		}, log.Named("paystack"))
		verifiers[payment.ProviderPaystack] = client
		paystack = client
	}
	if cfg.Stripe.SecretKey != "" {
		verifiers[payment.ProviderStripe] = payment.NewStripeVerifier(cfg.Stripe.SecretKey)
	}
	paymentService := payment.NewService(walletService, userRepo, verifiers, payment.Config{
		Currency: cfg.Wallet.Currency,
	}, log.Named("payment"))

	authService := auth.NewService(userRepo, auth.Config{
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.AccessTTL,
		Currency:  cfg.Wallet.Currency,
	}, log.Named("auth"))

	validate := validation.New()

	authHandler := handlers.NewAuthHandler(authService, walletService, validate)
	walletHandler := handlers.NewWalletHandler(walletService, paymentService, paystack, validate)
	orderHandler := handlers.NewOrderHandler(orderService, validate)
	adminHandler := handlers.NewAdminHandler(orderService, walletService, bundleRepo, validate)
	bundleHandler := handlers.NewBundleHandler(bundleRepo)
	developerHandler := handlers.NewDeveloperHandler(authService, orderService, walletService, validate)
	analyticsHandler := handlers.NewAnalyticsHandler(analytics.NewService(deps.DB))
	healthHandler := handlers.NewHealthHandler(healthChecks(deps), log)

	authMiddleware := middleware.NewAuthMiddleware(cfg.Auth.JWTSecret, authService, log.Named("auth"))
	apiKeyMiddleware := middleware.NewAPIKeyMiddleware(authService, apiLogRepo, log.Named("developer"))

	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))

	api := app.Group("/api")

	// Public routes
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Get("/bundles", bundleHandler.ListBundles)

	// Developer API. Must be registered before the JWT group.
	v1 := app.Group("/api/v1", apiKeyMiddleware.Handler)
	v1.Post("/orders", developerHandler.PlaceOrder)
	v1.Get("/orders", developerHandler.ListOrders)
	v1.Get("/orders/:id", developerHandler.GetOrder)
	v1.Get("/balance", developerHandler.GetBalance)

	// Authenticated routes
	authenticated := api.Group("", authMiddleware.Handler)
	authenticated.Get("/auth/me", authHandler.Me)
	authenticated.Get("/dashboard", analyticsHandler.Dashboard)

	walletRoutes := authenticated.Group("/wallet")
	walletRoutes.Get("/balance", walletHandler.GetBalance)
	walletRoutes.Get("/transactions", walletHandler.GetTransactions)
	walletRoutes.Post("/paystack/initialize", walletHandler.InitializePaystack)
	walletRoutes.Post("/paystack/verify", walletHandler.VerifyPaystack)
	walletRoutes.Post("/stripe/confirm", walletHandler.ConfirmStripe)

	orderRoutes := authenticated.Group("/orders")
	orderRoutes.Post("/", orderHandler.PlaceOrder)
	orderRoutes.Get("/", orderHandler.MyOrders)
	orderRoutes.Get("/:id", orderHandler.GetOrder)

	afaRoutes := authenticated.Group("/afa")
	afaRoutes.Post("/", orderHandler.RegisterAfA)
	afaRoutes.Get("/", orderHandler.MyAfARegistrations)

	developerRoutes := authenticated.Group("/developer")
	developerRoutes.Post("/key", developerHandler.GenerateKey)
	developerRoutes.Get("/key", developerHandler.ShowKey)
	developerRoutes.Delete("/key", developerHandler.RevokeKey)

	// Admin routes
	admin := authenticated.Group("/admin", middleware.AdminOnly)
	admin.Get("/orders", adminHandler.ListOrders)
	admin.Put("/orders/:id/status", adminHandler.SetOrderStatus)
	admin.Post("/orders/:id/refund", adminHandler.RefundOrder)
	admin.Post("/users/:id/deposit", adminHandler.DepositToUser)
	admin.Get("/bundles", bundleHandler.ListBundles)
	admin.Post("/bundles", adminHandler.CreateBundle)
	admin.Put("/bundles/:id", adminHandler.UpdateBundle)
	admin.Delete("/bundles/:id", adminHandler.DeactivateBundle)
	admin.Get("/analytics/summary", analyticsHandler.Summary)
	admin.Get("/analytics/by-bundle-type", analyticsHandler.ByBundleType)
	admin.Get("/analytics/trends", analyticsHandler.Trends)

	return nil
}

func healthChecks(deps Dependencies) map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{
		"database": handlers.PingFunc(func(ctx context.Context) error {
			sqlDB, err := deps.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}),
	}
	if deps.Cache != nil {
		checks["redis"] = handlers.PingFunc(deps.Cache.HealthCheck)
	}
	return checks
}
