package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skinchanger-api/internal/cache"
	"skinchanger-api/internal/config"
	"skinchanger-api/internal/handler"
	"skinchanger-api/internal/middleware"
	"skinchanger-api/internal/repository"
	"skinchanger-api/internal/router"
	"skinchanger-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Skinchanger API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Open the store (single process-wide handle, closed at shutdown)
	var store *repository.Store
	var err error
	switch cfg.Database.Type {
	case "mysql":
		store, err = repository.OpenMySQL(cfg.Database.MySQLDSN())
	default: // sqlite
		store, err = repository.OpenSQLite(cfg.Database.Path)
	}
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	// Repositories
	accountRepo := repository.NewSQLAccountRepository(store)
	licenseRepo := repository.NewSQLLicenseRepository(store)
	tokenRepo := repository.NewSQLTokenRepository(store)
	configRepo := repository.NewSQLSkinConfigRepository(store)
	statsRepo := repository.NewSQLStatsRepository(store)

	// Stats cache: Redis when configured, memory otherwise. A failed Redis
	// connection degrades to memory with a warning.
	var statsCache cache.Cache
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis connection failed, using memory cache: %v", err)
		} else {
			defer redisCache.Close()
			statsCache = redisCache
			log.Println("Redis cache initialized")
		}
	}
	if statsCache == nil {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		statsCache = memCache
	}

	// Services
	tokenService := service.NewTokenService(cfg.Auth.JWTSecret)
	authService := service.NewAuthService(accountRepo, licenseRepo, tokenRepo, tokenService)
	accountService := service.NewAccountService(accountRepo)
	licenseService := service.NewLicenseService(licenseRepo, accountRepo)
	configService := service.NewSkinConfigService(configRepo)
	statsService := service.NewStatsService(statsRepo, statsCache, cfg.Cache.TTL)

	// Seed the bootstrap admin if no administrator exists yet
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdmin(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to ensure admin account: %v", err)
	}
	cancel()

	// Expired API token pruning
	cleanup := service.NewCleanupScheduler(tokenRepo, service.DefaultCleanupConfig())
	cleanup.Start()
	defer cleanup.Stop()

	// Handlers
	healthHandler := handler.New(store, cfg.App.Version)
	authHandler := handler.NewAuthHandler(authService)
	configHandler := handler.NewSkinConfigHandler(configService)
	adminHandler := handler.NewAdminHandler(accountService, licenseService, statsService)

	// Auth middleware with injected dependencies
	authMiddlewareCfg := middleware.AuthConfig{
		AuthService: authService,
		Accounts:    accountRepo,
	}

	// Create router
	r := router.New(router.Config{
		Handler:           healthHandler,
		AuthHandler:       authHandler,
		SkinConfigHandler: configHandler,
		AdminHandler:      adminHandler,
		AuthMiddleware:    middleware.NewAuthMiddleware(authMiddlewareCfg),
		AdminMiddleware:   middleware.NewAdminMiddleware(authMiddlewareCfg),
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

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
