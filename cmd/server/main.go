package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "sellit/docs" // swagger docs

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"sellit/internal/auth"
	"sellit/internal/cache"
	"sellit/internal/config"
	"sellit/internal/db"
	"sellit/internal/handler"
	"sellit/internal/logger"
	"sellit/internal/mailer"
	"sellit/internal/repository"
	"sellit/internal/router"
	"sellit/internal/service"
	"sellit/internal/testutils"
)

const shutdownTimeout = 5 * time.Second

// @title SellIt API
// @version 1.0
// @description Classifieds marketplace API: accounts with email verification, listings, categories and favorites.
// @host localhost:5050
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	_ = godotenv.Load()

	zlog, err := logger.Init(logger.ConfigFromEnv())
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("config", zap.Error(err))
	}

	gormDB, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("database init", zap.Error(err))
	}
	defer func() { _ = db.Close(gormDB) }()

	if err := db.Migrate(gormDB); err != nil {
		zlog.Fatal("auto-migrate", zap.Error(err))
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTP, cfg.FrontendOrigin)
	if cfg.SMTP.Username == "" || cfg.SMTP.Password == "" {
		zlog.Warn("SMTP credentials missing, verification emails will not be delivered")
	}

	// Initialize services
	verificationService := service.NewVerificationService(userRepo, cfg.VerificationTTL)
	authService := service.NewAuthService(userRepo, jwtService, verificationService, smtpMailer, zlog)
	categoryService := service.NewCategoryService(categoryRepo, cacheClient, zlog)
	productService := service.NewProductService(productRepo, categoryService)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := categoryService.SeedDefaults(seedCtx); err != nil {
		zlog.Fatal("seed categories", zap.Error(err))
	}
	cancelSeed()

	handlers := router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Category: handler.NewCategoryHandler(categoryService),
		Product:  handler.NewProductHandler(productService),
	}
	if cfg.EnableTestUtils {
		handlers.TestUtils = testutils.NewHandler(userRepo, authService, productService, categoryService, zlog)
	}

	e := echo.New()
	e.HidePort = true
	router.Register(e, cfg, zlog, jwtService, authService, handlers)

	zlog.Info("swagger documentation available", zap.String("url", swaggerURL(cfg)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		addr := ":" + cfg.ServerPort
		zlog.Info("server listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown", zap.Error(err))
	}
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/") + "/swagger/index.html"
}
