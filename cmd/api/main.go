package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"halloween-rock-api/internal/cache"
	"halloween-rock-api/internal/catalog"
	"halloween-rock-api/internal/config"
	"halloween-rock-api/internal/handler"
	"halloween-rock-api/internal/middleware"
	"halloween-rock-api/internal/repository"
	"halloween-rock-api/internal/router"
	"halloween-rock-api/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Halloween Rock API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Catalog is fixed at startup; a bad item definition is a programming
	// error, so panic early.
	gameCatalog := catalog.Default()
	log.Printf("Catalog loaded: %d items", gameCatalog.Len())

	// Initialize state repository based on config. Every SQL backend also
	// carries the purchase ledger tables.
	var stateRepo repository.StateRepository
	var ledgerRepo repository.LedgerRepository
	switch cfg.StateDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresStateRepository(cfg.StateDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		stateRepo = pgRepo
		ledgerRepo = pgRepo
		log.Println("PostgreSQL state repository initialized")
	case "mysql":
		myRepo, err := repository.NewMySQLStateRepository(cfg.StateDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		defer myRepo.Close()
		stateRepo = myRepo
		ledgerRepo = myRepo
		log.Println("MySQL state repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteStateRepository(cfg.StateDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		stateRepo = sqliteRepo
		ledgerRepo = sqliteRepo
		log.Println("SQLite state repository initialized")
	}

	// Initialize Redis client (sessions)
	redisAddr := cfg.Cache.RedisAddress()
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis connection failed: %v", err)
		redisClient = nil
	} else {
		log.Println("Redis client initialized")
	}
	cancel()

	// Initialize Redis write-behind buffer for earn and passive-income writes
	var stateBuffer *cache.RedisStateBuffer
	if redisClient != nil {
		bufferCfg := cache.RedisBufferConfig{
			Addr:          redisAddr,
			Password:      cfg.Cache.RedisPassword,
			DB:            cfg.Cache.RedisDB,
			FlushInterval: cfg.Passive.BufferFlushInterval,
		}
		flushFunc := service.CreateFlushFunc(stateRepo)
		buffer, err := cache.NewRedisStateBuffer(bufferCfg, flushFunc)
		if err != nil {
			log.Printf("Warning: Redis state buffer initialization failed: %v", err)
		} else {
			stateBuffer = buffer
			log.Println("Redis state buffer initialized")
		}
	}

	// Initialize services
	progressionService := service.NewProgressionService(gameCatalog, stateRepo, ledgerRepo)
	if stateBuffer != nil {
		progressionService.SetBuffer(stateBuffer)
	}

	scheduler := service.NewPassiveIncomeScheduler(progressionService, cfg.Passive.TickInterval)
	progressionService.SetRateObserver(scheduler)

	var sessionService *service.SessionService
	if redisClient != nil {
		sessionService = service.NewSessionService(redisClient)
	}

	// Catalog responses are cached in memory; the catalog never changes at
	// runtime so a short TTL is plenty.
	catalogCache := cache.NewMemoryCache()
	defer catalogCache.Close()

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version)
	catalogHandler := handler.NewCatalogHandler(gameCatalog, catalogCache, cfg.Cache.CatalogTTL)
	playerHandler := handler.NewPlayerHandler(progressionService)
	adminHandler := handler.NewAdminHandler(stateBuffer, stateRepo, scheduler, cfg.StateDB.Type)

	var sessionHandler *handler.SessionHandler
	if sessionService != nil {
		sessionHandler = handler.NewSessionHandler(sessionService, scheduler)
	}

	// Create auth middleware with injected dependencies
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		SessionService: sessionService,
	})

	// Create router
	r := router.New(router.Config{
		Handler:        healthHandler,
		CatalogHandler: catalogHandler,
		PlayerHandler:  playerHandler,
		SessionHandler: sessionHandler,
		AdminHandler:   adminHandler,
		AuthMiddleware: authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel = context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop awarding passive income before draining writes
	scheduler.Stop()

	// Close the state buffer first (flushes pending writes to the database)
	if stateBuffer != nil {
		log.Println("Closing Redis state buffer...")
		stateBuffer.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}
