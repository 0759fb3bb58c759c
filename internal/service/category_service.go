package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"sellit/internal/cache"
	apperrors "sellit/internal/errors"
	"sellit/internal/model"
	"sellit/internal/repository"
)

const (
	categoryListCacheKey = "sellit:categories:all"
	categoryListCacheTTL = 10 * time.Minute
)

// CategoryService resolves, lists and seeds categories.
type CategoryService interface {
	List(ctx context.Context) ([]model.Category, error)
	Resolve(ctx context.Context, sel CategorySelector) (*model.Category, error)
	Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Category, error)
	SeedDefaults(ctx context.Context) error
	ResetToDefaults(ctx context.Context) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	cache        *cache.Client
	logger       *zap.Logger
}

// NewCategoryService creates a category service. A nil cache disables caching.
func NewCategoryService(categoryRepo repository.CategoryRepository, cache *cache.Client, logger *zap.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		cache:        cache,
		logger:       logger,
	}
}

// List returns all categories sorted by name.
func (s *categoryService) List(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if s.cache.GetJSON(ctx, categoryListCacheKey, &cached) {
		return cached, nil
	}

	categories, err := s.categoryRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	s.cache.SetJSON(ctx, categoryListCacheKey, categories, categoryListCacheTTL)
	return categories, nil
}

// Resolve finds the category by id, or creates-or-reuses it by normalized name.
func (s *categoryService) Resolve(ctx context.Context, sel CategorySelector) (*model.Category, error) {
	name := model.NormalizeCategoryName(sel.Name)
	if (sel.ID != "") == (name != "") {
		return nil, apperrors.NewValidationError("category", "Provide exactly one of categoryId or categoryName")
	}

	if sel.ID != "" {
		id, err := uuid.Parse(sel.ID)
		if err != nil {
			return nil, apperrors.NewValidationError("categoryId", "categoryId must be a valid id")
		}
		category, err := s.categoryRepo.FindByID(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("find category: %w", err)
		}
		return category, nil
	}

	category, created, err := s.categoryRepo.UpsertByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("upsert category %q: %w", name, err)
	}
	if created {
		s.invalidate(ctx)
		s.logger.Info("category created", zap.String("name", category.Name))
	}
	return category, nil
}

// Lookup loads categories by id for read-time denormalization.
func (s *categoryService) Lookup(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Category, error) {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	categories, err := s.categoryRepo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	byID := make(map[uuid.UUID]model.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}
	return byID, nil
}

// SeedDefaults upserts the default category set. Safe to run repeatedly.
func (s *categoryService) SeedDefaults(ctx context.Context) error {
	createdAny := false
	for _, name := range model.DefaultCategoryNames {
		_, created, err := s.categoryRepo.UpsertByName(ctx, name)
		if err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		createdAny = createdAny || created
	}
	if createdAny {
		s.invalidate(ctx)
	}
	return nil
}

// ResetToDefaults drops every non-default category and re-seeds the defaults.
func (s *categoryService) ResetToDefaults(ctx context.Context) error {
	removed, err := s.categoryRepo.DeleteExcept(ctx, model.DefaultCategoryNames)
	if err != nil {
		return fmt.Errorf("delete categories: %w", err)
	}
	s.logger.Info("categories reset", zap.Int64("removed", removed))
	s.invalidate(ctx)
	return s.SeedDefaults(ctx)
}

func (s *categoryService) invalidate(ctx context.Context) {
	_ = s.cache.Delete(ctx, categoryListCacheKey)
}
