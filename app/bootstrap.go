package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"fleet-svc/app/clients"
	"fleet-svc/app/domains"
	"fleet-svc/app/handlers"
	"fleet-svc/app/services"
	"fleet-svc/storage/postgres"
)

// App wires configuration, storage, services and the HTTP router together.
type App struct {
	Config  *Config
	Router  *gin.Engine
	Storage clients.Store

	stopSweeper context.CancelFunc
}

// Bootstrap loads config, connects storage, runs migrations, seeds the
// initial admin user and builds the router.
func Bootstrap() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.StorageDriver == "postgres" {
		if err := postgres.RunMigrations(cfg.ConnString()); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	storage, err := services.NewStorageFactory().Create(cfg.StorageDriver, cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := seedAdminUser(storage, cfg); err != nil {
		storage.Close()
		return nil, err
	}

	registry := services.NewRegistryService(storage)
	commands := services.NewCommandService(storage)
	ingest := services.NewIngestService(storage, storage)
	assets := services.NewAssetService(storage)
	audit := services.NewAuditService(storage)
	liveness := services.NewLivenessService(storage, time.Duration(cfg.OfflineThresholdSec)*time.Second)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.AgentToken, cfg.TokenExpirationSec)

	agentHandler := handlers.NewAgentHandler(registry, commands, ingest, assets, liveness, tokens, storage)
	adminHandler := handlers.NewAdminHandler(registry, commands, assets, audit, liveness, storage, storage)
	authHandler := handlers.NewAuthHandler(tokens, storage)
	healthHandler := handlers.NewHealthHandler()
	auth := handlers.NewAuthMiddleware(tokens)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Agent-Token"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	setupRoutes(router, auth, agentHandler, adminHandler, authHandler, healthHandler)

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go liveness.Run(sweepCtx, time.Duration(cfg.SweepIntervalSec)*time.Second)

	return &App{
		Config:      cfg,
		Router:      router,
		Storage:     storage,
		stopSweeper: stopSweeper,
	}, nil
}

// Shutdown stops background work and releases storage.
func (a *App) Shutdown() {
	a.stopSweeper()
	a.Storage.Close()
}

func setupRoutes(
	router *gin.Engine,
	auth *handlers.AuthMiddleware,
	agent *handlers.AgentHandler,
	admin *handlers.AdminHandler,
	authH *handlers.AuthHandler,
	health *handlers.HealthHandler,
) {
	router.GET("/health", health.Health)
	router.GET("/ready", health.Ready)

	router.POST("/api/auth/login", authH.Login)

	agentAPI := router.Group("/api/agent", auth.AgentAuth())
	agentAPI.GET("", agent.Dispatch)
	agentAPI.POST("", agent.Dispatch)

	adminAPI := router.Group("/api/admin/agent", auth.AdminAuth(domains.RoleViewer))
	adminAPI.GET("", admin.Dispatch)
	adminAPI.POST("", admin.Dispatch)
}

// seedAdminUser creates the bootstrap admin account on first startup.
func seedAdminUser(storage clients.Store, cfg *Config) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := storage.CountAdminUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to check admin users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	if err := storage.CreateAdminUser(ctx, cfg.AdminUsername, string(hash), domains.RoleAdmin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	log.Printf("seeded bootstrap admin user %q", cfg.AdminUsername)
	return nil
}
