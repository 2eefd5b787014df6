package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/pazar_api/internal/cache"
	"github.com/GTDGit/pazar_api/internal/config"
	"github.com/GTDGit/pazar_api/internal/database"
	"github.com/GTDGit/pazar_api/internal/handler"
	"github.com/GTDGit/pazar_api/internal/metrics"
	"github.com/GTDGit/pazar_api/internal/middleware"
	"github.com/GTDGit/pazar_api/internal/repository"
	"github.com/GTDGit/pazar_api/internal/service"
	"github.com/GTDGit/pazar_api/internal/sse"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/internal/worker"
	"github.com/GTDGit/pazar_api/pkg/ikas"
	"github.com/GTDGit/pazar_api/pkg/instagram"
	"github.com/GTDGit/pazar_api/pkg/storefront"
	"github.com/GTDGit/pazar_api/pkg/telegram"
	"github.com/GTDGit/pazar_api/pkg/trendyol"
)

// main is the entrypoint of the pazar back office API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Str("version", cfg.Version).Msg("starting pazar api")

	utils.InitJWT(cfg.JWTSecret, cfg.JWTTTL)
	decimal.MarshalJSONWithoutQuotes = true

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")
	tokenCache := cache.NewTokenCache(redisClient)

	// 4. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg)
	cronMetrics := metrics.NewCronJobMetrics(reg)

	// 5. Provider clients
	scraper := trendyol.NewScraper(trendyol.Config{BaseURL: cfg.Provider.TrendyolBaseURL, PageDelay: time.Second})
	storefrontClient := storefront.NewClient()
	ikasClient := ikas.NewClient(ikas.Config{
		TokenURL:   cfg.Provider.IkasTokenURL,
		GraphQLURL: cfg.Provider.IkasGraphQLURL,
	})
	telegramClient := telegram.NewClient(cfg.Provider.TelegramAPIURL, cfg.Publish.TelegramRetryBase, cfg.Publish.TelegramDownloadTimeout)
	publisher := instagram.NewPublisher(
		instagram.NewClient(cfg.Provider.InstagramGraphURL, cfg.Publish.InstagramRetryBase),
		instagram.PublisherConfig{
			InterItemDelay: cfg.Publish.InstagramInterItem,
			PollInterval:   cfg.Publish.InstagramPollInterval,
			PollTimeout:    cfg.Publish.InstagramPollTimeout,
		},
	)

	// 6. Initialize repositories
	userRepo := repository.NewUserRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	trendyolRepo := repository.NewTrendyolRepository(db)
	siteRepo := repository.NewSiteRepository(db)
	ikasRepo := repository.NewIkasRepository(db)
	matchingRepo := repository.NewMatchingRepository(db)
	groupedRepo := repository.NewGroupedProductRepository(db)
	logRepo := repository.NewPublishLogRepository(db)

	// 7. Initialize services
	authSvc := service.NewAuthService(userRepo)
	settingsSvc := service.NewSettingsService(settingsRepo)
	productSvc := service.NewProductService(settingsRepo, trendyolRepo, siteRepo, scraper, storefrontClient,
		service.ProductEndpoints{
			SiteProductsURL:    cfg.Provider.SiteProductsURL,
			SiteUpdatePriceURL: cfg.Provider.SiteUpdatePriceURL,
		}, appMetrics)
	ikasSvc := service.NewIkasService(settingsRepo, ikasRepo, tokenCache, ikasClient, appMetrics)
	matchingSvc := service.NewMatchingService(matchingRepo, trendyolRepo, ikasRepo)
	matchSvc := service.NewMatchService(matchingRepo, trendyolRepo, siteRepo, ikasRepo, appMetrics)
	groupedSvc := service.NewGroupedService(groupedRepo)
	telegramSvc := service.NewTelegramService(settingsRepo, groupedRepo, logRepo, telegramClient, appMetrics,
		cfg.Publish.TelegramBatchLimit, cfg.Publish.TelegramProductDelay)
	historySvc := service.NewHistoryService(logRepo)
	refreshSvc := service.NewRefreshService(settingsRepo, productSvc, ikasSvc, tokenCache)

	// 7a. Publish queue, drained per user and broadcast over SSE
	hub := sse.NewHub()
	runner := service.NewInstagramRunner(settingsRepo, logRepo, publisher, appMetrics)
	queue := worker.NewPublishQueue(runner.Run, sse.NewHubNotifier(hub), appMetrics, cfg.Publish.QueueResultLimit)
	instagramSvc := service.NewInstagramService(settingsRepo, logRepo, queue)

	// 8. Initialize handlers
	handler.RegisterValidators()
	handlers := &Handlers{
		Health:    handler.NewHealthHandler(db, handler.PingFunc(redisClient.Ping), cfg.Version),
		Auth:      handler.NewAuthHandler(authSvc),
		Settings:  handler.NewSettingsHandler(settingsSvc),
		Product:   handler.NewProductHandler(productSvc, ikasSvc),
		Matching:  handler.NewMatchingHandler(matchingSvc),
		Match:     handler.NewMatchHandler(matchSvc),
		Grouped:   handler.NewGroupedHandler(groupedSvc, telegramSvc),
		Instagram: handler.NewInstagramHandler(instagramSvc),
		History:   handler.NewHistoryHandler(historySvc),
		Refresh:   handler.NewRefreshHandler(refreshSvc, settingsSvc),
		Events:    handler.NewSSEHandler(hub, instagramSvc),
	}

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Initialize middleware
	mw := &Middlewares{
		JWT:       middleware.NewJWTMiddleware(),
		StreamJWT: middleware.NewStreamJWTMiddleware(),
		AuthLimit: middleware.NewAuthRateLimiter(ctx.Done(), 5, time.Minute),
	}

	// 11. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = 32 << 20
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedHosts))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(appMetrics))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	setupRoutes(router, handlers, mw)

	// 12. Start workers
	var refreshWorker *worker.RefreshWorker
	if cfg.Worker.RefreshEnabled {
		refreshWorker, err = worker.NewRefreshWorker(refreshSvc, cfg.Worker.RefreshSchedule, cfg.Worker.RefreshTimeout, cronMetrics)
		if err == nil {
			err = refreshWorker.Start(ctx)
		}
		if err != nil {
			log.Error().Err(err).Msg("refresh worker not started")
			refreshWorker = nil
		}
	} else {
		log.Info().Msg("scheduled refresh disabled")
	}

	// 13. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 14. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 15. Stop the server, then the workers
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	cancel()
	if refreshWorker != nil {
		refreshWorker.Stop()
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Publish queue did not drain in time")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health    *handler.HealthHandler
	Auth      *handler.AuthHandler
	Settings  *handler.SettingsHandler
	Product   *handler.ProductHandler
	Matching  *handler.MatchingHandler
	Match     *handler.MatchHandler
	Grouped   *handler.GroupedHandler
	Instagram *handler.InstagramHandler
	History   *handler.HistoryHandler
	Refresh   *handler.RefreshHandler
	Events    *handler.SSEHandler
}

// Middlewares groups the route-level middleware.
type Middlewares struct {
	JWT       *middleware.JWTMiddleware
	StreamJWT *middleware.JWTMiddleware
	AuthLimit *middleware.AuthRateLimiter
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, mw *Middlewares) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	auth := router.Group("/v1/auth")
	auth.Use(mw.AuthLimit.Handle())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
	}

	// EventSource cannot send headers, so the stream takes ?token=.
	router.GET("/v1/events", mw.StreamJWT.Handle(), handlers.Events.Stream)

	api := router.Group("/v1")
	api.Use(mw.JWT.Handle())
	{
		api.GET("/settings", handlers.Settings.Get)
		api.PUT("/settings", handlers.Settings.Update)

		// Marketplace listings
		api.GET("/products/trendyol", handlers.Product.ListTrendyol)
		api.POST("/products/trendyol/scrape", handlers.Product.ScrapeTrendyol)
		api.POST("/products/trendyol/update-links", handlers.Product.UpdateTrendyolLinks)

		// Storefront
		api.GET("/products/site", handlers.Product.ListSite)
		api.POST("/products/site/refresh", handlers.Product.RefreshSite)
		api.POST("/products/site/price", handlers.Product.UpdateSitePrice)
		api.POST("/products/site/prices", handlers.Product.UpdateSitePrices)

		// Catalog
		api.GET("/products/ikas", handlers.Product.ListIkas)
		api.POST("/products/ikas/sync", handlers.Product.SyncIkas)
		api.POST("/products/ikas/push", handlers.Product.PushIkas)

		// Link mapping
		api.GET("/matching", handlers.Matching.List)
		api.DELETE("/matching", handlers.Matching.Clear)
		api.POST("/matching/upload", handlers.Matching.Upload)
		api.GET("/matching/suggestions", handlers.Matching.Suggestions)

		// Reconciliation
		api.GET("/match/compare", handlers.Match.Compare)
		api.GET("/match/compare.xlsx", handlers.Match.CompareXLSX)
		api.GET("/match/export", handlers.Match.Export)
		api.GET("/match/export.xlsx", handlers.Match.ExportXLSX)

		// Grouped products and Telegram delivery
		api.GET("/grouped-products", handlers.Grouped.List)
		api.POST("/grouped-products/preview", handlers.Grouped.Preview)
		api.POST("/grouped-products/upload", handlers.Grouped.Upload)
		api.POST("/grouped-products/send-telegram", handlers.Grouped.SendBatch)
		api.DELETE("/grouped-products/:id", handlers.Grouped.Delete)
		api.POST("/grouped-products/:id/send-telegram", handlers.Grouped.SendOne)

		// Instagram queue
		api.POST("/instagram/publish", handlers.Instagram.Publish)
		api.GET("/instagram/queue", handlers.Instagram.Queue)
		api.DELETE("/instagram/queue/results", handlers.Instagram.ClearResults)
		api.GET("/instagram/sent-items", handlers.Instagram.SentItems)

		api.GET("/history", handlers.History.List)

		api.GET("/refresh/summary", handlers.Refresh.Summary)
		api.POST("/refresh", handlers.Refresh.Run)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
