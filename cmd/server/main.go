package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/dropflow/backend/internal/application/catalog"
	checkoutapp "github.com/dropflow/backend/internal/application/checkout"
	reportapp "github.com/dropflow/backend/internal/application/report"
	"github.com/dropflow/backend/internal/domain/catalog"
	"github.com/dropflow/backend/internal/domain/fulfillment"
	"github.com/dropflow/backend/internal/domain/shared"
	"github.com/dropflow/backend/internal/infrastructure/cache"
	catalogsrc "github.com/dropflow/backend/internal/infrastructure/catalog"
	"github.com/dropflow/backend/internal/infrastructure/config"
	"github.com/dropflow/backend/internal/infrastructure/content"
	fulfillinfra "github.com/dropflow/backend/internal/infrastructure/fulfillment"
	"github.com/dropflow/backend/internal/infrastructure/logger"
	"github.com/dropflow/backend/internal/infrastructure/payment"
	"github.com/dropflow/backend/internal/infrastructure/persistence"
	"github.com/dropflow/backend/internal/interfaces/http/handler"
	"github.com/dropflow/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting dropflow backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection and run migrations
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected successfully")

	orderRepo := persistence.NewGormOrderRepository(db.DB)

	// Idempotency store: Redis when configured, in-memory otherwise.
	// In-memory is fine for a single instance; run Redis when scaling out.
	var idemStore shared.IdempotencyStore
	if cfg.Redis.Enabled() {
		redisStore, err := cache.NewRedisIdempotencyStore(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idemStore = redisStore
		log.Info("Using Redis idempotency store", zap.String("addr", cfg.Redis.Addr()))
	} else {
		idemStore = cache.NewInMemoryIdempotencyStore()
		log.Warn("Redis not configured, using in-memory idempotency store")
	}
	defer func() {
		if err := idemStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Payment gateway
	gateway, err := payment.NewStripeAdapter(&payment.Config{
		SecretKey: cfg.Stripe.SecretKey,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Evidence store for bot screenshots: S3-compatible bucket when
	// configured, local directory otherwise.
	var evidence fulfillinfra.EvidenceStore
	if cfg.Storage.Bucket != "" {
		evidence, err = fulfillinfra.NewS3EvidenceStore(&cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize S3 evidence store", zap.Error(err))
		}
		log.Info("Using S3 evidence store", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		evidence, err = fulfillinfra.NewLocalEvidenceStore(cfg.Storage.LocalDir)
		if err != nil {
			log.Fatal("Failed to initialize local evidence store", zap.Error(err))
		}
	}

	// Fulfillment executor selection. Manual is the default; the bot drives
	// a real browser against the supplier and spends real money.
	var executor fulfillment.Executor
	switch cfg.Fulfillment.Strategy {
	case "bot":
		bot, err := fulfillinfra.NewBotStrategy(&fulfillinfra.BotConfig{
			SupplierEmail:    cfg.Fulfillment.SupplierEmail,
			SupplierPassword: cfg.Fulfillment.SupplierPass,
			Headless:         cfg.Fulfillment.BotHeadless,
		}, evidence, log)
		if err != nil {
			log.Fatal("Failed to initialize fulfillment bot", zap.Error(err))
		}
		defer bot.Close()
		executor = bot
		log.Info("Automated fulfillment enabled",
			zap.String("supplier_email", cfg.Fulfillment.SupplierEmail))
	default:
		executor = fulfillinfra.NewManualStrategy(log)
	}

	dispatcher := fulfillinfra.NewDispatcher(executor, orderRepo, fulfillinfra.DispatcherOptions{
		Workers:        cfg.Fulfillment.Workers,
		QueueSize:      cfg.Fulfillment.QueueSize,
		AttemptTimeout: cfg.Fulfillment.AttemptTimeout,
	}, log)
	dispatcher.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := dispatcher.Stop(ctx); err != nil {
			log.Error("Error draining fulfillment dispatcher", zap.Error(err))
		}
	}()
	log.Info("Fulfillment dispatcher started",
		zap.String("strategy", cfg.Fulfillment.Strategy),
		zap.Int("workers", cfg.Fulfillment.Workers),
	)

	// Product source
	var source catalog.Source
	switch cfg.Catalog.Source {
	case "cj":
		cj, err := catalogsrc.NewCJAdapter(&catalogsrc.CJConfig{
			Email:   cfg.Catalog.CJEmail,
			APIKey:  cfg.Catalog.CJKey,
			BaseURL: cfg.Catalog.CJBase,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize CJ catalog source", zap.Error(err))
		}
		source = cj
	default:
		source = catalogsrc.NewStaticSource(log)
	}

	// Listing copy generator. Without an API key listings fall back to
	// deterministic template copy.
	var generator catalogapp.ContentGenerator
	if cfg.Content.APIKey != "" {
		openai, err := content.NewOpenAIGenerator(&content.Config{
			APIKey:  cfg.Content.APIKey,
			BaseURL: cfg.Content.BaseURL,
			Model:   cfg.Content.Model,
			Timeout: cfg.Content.Timeout,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize content generator", zap.Error(err))
		}
		generator = content.NewFallbackGenerator(openai, content.NewTemplateGenerator())
	} else {
		generator = content.NewTemplateGenerator()
	}

	// Application services
	checkoutService := checkoutapp.NewService(gateway, orderRepo, dispatcher, idemStore, cfg.Stripe.VerifyTimeout, log)
	checkoutService.SetRedirectDefaults(
		cfg.HTTP.BaseURL+cfg.Stripe.SuccessPath,
		cfg.HTTP.BaseURL+cfg.Stripe.CancelPath,
	)
	reportService := reportapp.NewService(orderRepo, log)
	catalogService := catalogapp.NewService(source, generator, log)

	if cfg.Admin.APIKey == "" {
		log.Warn("Admin API key not set, admin endpoints are disabled")
	}

	engine := router.New(router.Config{
		AdminAPIKey:  cfg.Admin.APIKey,
		AllowOrigins: cfg.HTTP.AllowOrigins,
		ReleaseMode:  cfg.App.IsProduction(),
	}, router.Handlers{
		Checkout: handler.NewCheckoutHandler(checkoutService),
		Orders:   handler.NewOrderHandler(reportService, checkoutService),
		Products: handler.NewProductHandler(catalogService),
		Health:   handler.NewHealthHandler(db),
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop accepting requests first, then the deferred
	// cleanup drains in-flight fulfillment attempts.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
