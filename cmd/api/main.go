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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/jwkyoung/safe-tx-gateway/docs"
	"github.com/jwkyoung/safe-tx-gateway/internal/auth"
	"github.com/jwkyoung/safe-tx-gateway/internal/common/handler"
	"github.com/jwkyoung/safe-tx-gateway/internal/common/middleware"
	"github.com/jwkyoung/safe-tx-gateway/internal/config"
	"github.com/jwkyoung/safe-tx-gateway/internal/transaction"
	"github.com/jwkyoung/safe-tx-gateway/pkg/db"
	"github.com/jwkyoung/safe-tx-gateway/pkg/delegates"
	"github.com/jwkyoung/safe-tx-gateway/pkg/nonce"
	pkgredis "github.com/jwkyoung/safe-tx-gateway/pkg/redis"
	"github.com/jwkyoung/safe-tx-gateway/pkg/txservice"
	"github.com/jwkyoung/safe-tx-gateway/pkg/verifier"
)

// @title Safe Transaction Gateway API
// @version 1.0
// @description SIWE authentication and Safe transaction verification gateway

// @contact.name API Support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func main() {
	// 1) Logger
	logger, err := initLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 2) Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if cfg.Auth.TokenSecret == "" {
		logger.Fatal("AUTH_TOKEN_SECRET must be set")
	}

	logger.Info("starting server",
		zap.String("environment", cfg.Server.Environment),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("delegate_source", cfg.TxService.DelegateSource),
	)

	// 3) Redis (nonces, delegate cache)
	rdb := pkgredis.New(pkgredis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	// 4) MySQL only when delegates come from the local table
	var database *sql.DB
	if cfg.TxService.DelegateSource == "database" {
		database, err = db.New(db.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Name:            cfg.Database.Name,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer database.Close()
	}

	// 5) Connection test (fail-fast)
	if err := testConnections(rdb, database); err != nil {
		logger.Fatal("failed to test connections", zap.Error(err))
	}

	// 6) Router
	router := setupRouter(cfg, logger, rdb, database)

	// 7) HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	logger.Info("server started",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("swagger", fmt.Sprintf("http://localhost:%d/swagger/index.html", cfg.Server.Port)),
	)

	// 8) Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func initLogger() (*zap.Logger, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func testConnections(rdb *redis.Client, database *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := pkgredis.Ping(ctx, rdb); err != nil {
		return err
	}
	if database != nil {
		if err := db.Ping(ctx, database); err != nil {
			return err
		}
	}
	return nil
}

func newDelegateRegistry(cfg *config.Config, logger *zap.Logger, rdb *redis.Client, database *sql.DB) delegates.Registry {
	var inner delegates.Registry
	if cfg.TxService.DelegateSource == "database" {
		inner = delegates.NewMySQLRegistry(database, logger)
	} else {
		inner = delegates.NewHTTPRegistry(cfg.TxService.BaseURL, cfg.TxService.Timeout, logger)
	}
	return delegates.NewCachedRegistryWithTTL(inner, rdb, cfg.TxService.DelegateCacheTTL, logger)
}

func setupRouter(cfg *config.Config, logger *zap.Logger, rdb *redis.Client, database *sql.DB) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))

	// Swagger
	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.Server.Port)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoints
	healthHandler := handler.NewHealthHandler(database, rdb)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// ============================================================================
	// Dependencies Setup
	// ============================================================================

	nonceStore := nonce.NewRedisStoreWithTTL(rdb, cfg.Auth.NonceTTL, logger)
	tokenIssuer := auth.NewTokenIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)

	txClient := txservice.NewClient(cfg.TxService.BaseURL, cfg.TxService.Timeout, logger)
	registry := newDelegateRegistry(cfg, logger, rdb, database)

	txVerifier := verifier.New(verifier.Config{
		API: verifier.RuleSet{
			Hash:      cfg.Verification.APIHash,
			Signature: cfg.Verification.APISignature,
		},
		Proposal: verifier.RuleSet{
			Hash:      cfg.Verification.ProposalHash,
			Signature: cfg.Verification.ProposalSignature,
		},
	}, registry, logger)

	// ============================================================================
	// Service & Handler Setup
	// ============================================================================

	authService := auth.NewService(nonceStore, tokenIssuer, logger)
	authHandler := auth.NewHandler(authService)

	txService := transaction.NewService(txClient, txVerifier, logger)
	txHandler := transaction.NewHandler(txService)

	// ============================================================================
	// Route Registration
	// ============================================================================

	v1 := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1)
		txHandler.RegisterRoutes(v1)
	}

	return router
}
