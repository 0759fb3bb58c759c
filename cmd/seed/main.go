package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sellit/internal/cache"
	"sellit/internal/config"
	"sellit/internal/db"
	"sellit/internal/logger"
	"sellit/internal/repository"
	"sellit/internal/service"
)

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
	zlog.Info("connected to database", zap.String("driver", cfg.DatabaseDriver))

	if err := db.Migrate(gormDB); err != nil {
		zlog.Fatal("auto-migrate", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer func() { _ = cacheClient.Close() }()

	count, err := seedCategories(ctx, gormDB, cacheClient, zlog)
	if err != nil {
		zlog.Fatal("seed categories", zap.Error(err))
	}
	zlog.Info("seed completed", zap.Int("categories", count))
}

// seedCategories upserts the defaults through the category service so a shared
// cached category list is dropped along with the write.
func seedCategories(ctx context.Context, gormDB *gorm.DB, cacheClient *cache.Client, zlog *zap.Logger) (int, error) {
	categoryService := service.NewCategoryService(repository.NewCategoryRepository(gormDB), cacheClient, zlog)
	if err := categoryService.SeedDefaults(ctx); err != nil {
		return 0, err
	}
	categories, err := categoryService.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	return len(categories), nil
}
