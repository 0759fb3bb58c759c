package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sellit/internal/model"
)

// CategoryRepository defines category persistence operations.
type CategoryRepository interface {
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Category, error)
	UpsertByName(ctx context.Context, name string) (category *model.Category, created bool, err error)
	DeleteExcept(ctx context.Context, names []string) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// List returns every category ordered by name.
func (r *categoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindByID finds a category by ID.
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// FindByIDs loads a batch of categories. Missing ids are skipped.
func (r *categoryRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []model.Category
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// UpsertByName inserts the category unless one with the same name exists, then reads it back.
// name must already be normalized.
func (r *categoryRepository) UpsertByName(ctx context.Context, name string) (*model.Category, bool, error) {
	candidate := model.Category{Name: name}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&candidate)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var category model.Category
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&category).Error; err != nil {
		return nil, false, err
	}
	return &category, res.RowsAffected > 0, nil
}

// DeleteExcept removes every category whose name is not in names.
func (r *categoryRepository) DeleteExcept(ctx context.Context, names []string) (int64, error) {
	query := r.db.WithContext(ctx)
	if len(names) > 0 {
		query = query.Where("name NOT IN ?", names)
	} else {
		query = query.Where("1 = 1")
	}
	res := query.Delete(&model.Category{})
	return res.RowsAffected, res.Error
}
