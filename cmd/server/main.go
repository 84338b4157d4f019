package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"ikshan/internal/catalog"
	"ikshan/internal/config"
	"ikshan/internal/database"
	"ikshan/internal/handlers"
	"ikshan/internal/jobs"
	"ikshan/internal/logging"
	"ikshan/internal/middleware"
	"ikshan/internal/services"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found, using environment variables")
	}

	logging.Init()
	cfg := config.Load()

	// Catalog subsystem
	catalogLogger := logging.NewCatalogLogger()
	fetcher := catalog.NewFetcher(catalogLogger)
	sources := catalog.Sources{
		Companies:  catalog.Source{Name: "companies", SheetID: cfg.CompaniesSheetID},
		Tools:      catalog.Source{Name: "tools", Path: cfg.ToolsPath},
		Assistants: catalog.Source{Name: "assistants", Path: cfg.AssistantsPath},
	}
	loader := catalog.NewLoader(fetcher, sources, cfg.CatalogTTL, catalogLogger)
	taskDocs := catalog.NewTaskDocStore(cfg.DataDir, catalogLogger)

	var watcher *catalog.Watcher
	if cfg.WatchDataDir {
		var err error
		watcher, err = catalog.NewWatcher(cfg.DataDir, catalogLogger, loader, taskDocs)
		if err != nil {
			log.Printf("⚠️ Data dir watcher disabled: %v", err)
		}
	}

	// Lead store
	var leadDB *database.DB
	if cfg.LeadDBPath != "" {
		var err error
		leadDB, err = database.New(cfg.LeadDBPath)
		if err != nil {
			log.Printf("⚠️ Lead database unavailable, leads will be logged only: %v", err)
		} else if err := leadDB.Initialize(); err != nil {
			log.Fatalf("❌ Failed to initialize lead database: %v", err)
		}
	}

	// Optional ranker result cache
	var redisService *services.RedisService
	if cfg.RedisURL != "" {
		var err error
		redisService, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️ Redis unavailable, ranking results will not be cached: %v", err)
			redisService = nil
		}
	}

	// Model clients: ranking pool and conversation endpoint
	rankerLLM := services.NewLLMClient(cfg.RankerURL, cfg.RankerModel, services.NewKeyPool(cfg.RankerKeys), cfg.LLMRateLimit)
	rankerLLM.SetAttribution("https://ikshan.ai", "Ikshan")
	chatLLM := services.NewLLMClient(cfg.ChatURL, cfg.ChatModel, services.NewKeyPool([]string{cfg.ChatKey}), cfg.LLMRateLimit)

	// Services
	sessions := services.NewSessionStore(cfg.SessionTTL)
	metrics := services.InitMetrics(sessions.Count)
	ranker := services.NewRanker(rankerLLM, redisService, metrics)
	search := services.NewSearchService(loader, taskDocs, ranker, metrics)
	responder := services.NewResponder(chatLLM)
	leads := services.NewLeadService(leadDB)

	script, err := services.LoadFunnelScript(cfg.FunnelScriptPath)
	if err != nil {
		log.Fatalf("❌ Failed to load funnel script: %v", err)
	}
	funnel := services.NewFunnel(script, responder, search, leads, metrics)

	// Background catalog refresh
	var refresher *jobs.CatalogRefresher
	if cfg.RefreshInterval > 0 {
		refresher, err = jobs.NewCatalogRefresher(loader, taskDocs, cfg.RefreshInterval)
		if err != nil {
			log.Printf("⚠️ Catalog refresher disabled: %v", err)
		} else if err := refresher.Start(); err != nil {
			log.Printf("⚠️ Catalog refresher failed to start: %v", err)
		}
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Ikshan v1.0",
		ReadTimeout:  120 * time.Second, // ranking calls can take a while on cold sheets
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("ikshan")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Load rate limiting configuration
	rateLimitConfig := middleware.LoadRateLimitConfig()
	log.Printf("🛡️  [RATE-LIMIT] Loaded config: Global=%d/min, Search=%d/min, Chat=%d/min, WS=%d/min",
		rateLimitConfig.GlobalAPIMax,
		rateLimitConfig.SearchMax,
		rateLimitConfig.ChatMax,
		rateLimitConfig.WebSocketMax,
	)

	// Fiber's CORS middleware does not allow AllowCredentials with wildcard
	// origins; the widget sends no credentials anyway.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: cfg.AllowedOrigins != "*",
	}))
	log.Printf("🔒 [SECURITY] CORS allowed origins: %s", cfg.AllowedOrigins)

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(sessions)
	chatHandler := handlers.NewChatHandler(responder)
	searchHandler := handlers.NewSearchHandler(search)
	rcaHandler := handlers.NewRCAHandler(search)
	funnelHandler := handlers.NewFunnelHandler(sessions, funnel)
	funnelWSHandler := handlers.NewFunnelWebSocketHandler(sessions, funnel)

	// Routes
	app.Get("/health", healthHandler.Handle)

	chatLimiter := middleware.ChatRateLimiter(rateLimitConfig)
	searchLimiter := middleware.SearchRateLimiter(rateLimitConfig)

	app.Post("/api/chat", chatLimiter, chatHandler.Handle)
	app.Post("/api/search-companies", searchLimiter, searchHandler.SearchCompanies)
	app.Post("/api/search-tools", searchLimiter, searchHandler.SearchTools)
	app.Post("/api/search-gpts", searchLimiter, searchHandler.SearchAssistants)
	app.Post("/api/rca-questions", rcaHandler.Handle)

	app.Post("/api/funnel", chatLimiter, funnelHandler.Create)
	app.Post("/api/funnel/:sessionID/dispatch", chatLimiter, funnelHandler.Dispatch)
	app.Get("/api/funnel/:sessionID/results", funnelHandler.Results)

	// WebSocket route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Use("/ws/funnel", middleware.WebSocketRateLimiter(rateLimitConfig))
	app.Get("/ws/funnel", websocket.New(funnelWSHandler.HandleConnection))

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if refresher != nil {
			refresher.Stop()
		}
		if watcher != nil {
			watcher.Close()
		}
		if redisService != nil {
			redisService.Close()
		}
		if leadDB != nil {
			leadDB.Close()
		}

		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	log.Printf("🚀 Ikshan backend listening on port %s (env: %s)", cfg.Port, cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
