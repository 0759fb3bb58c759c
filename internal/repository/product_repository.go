package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"sellit/internal/model"
)

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	SellerID uuid.UUID
	LikedBy  uuid.UUID
}

// ProductRepository defines listing and favorite persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ProductFilter, offset, limit int) ([]model.Product, int64, error)
	AddLike(ctx context.Context, productID, userID uuid.UUID) error
	RemoveLike(ctx context.Context, productID, userID uuid.UUID) error
	LikedUserIDs(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error)
	DeleteAll(ctx context.Context) error
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID finds a product by ID.
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Update replaces the owner-editable fields. SellerID and PublishedAt are never written.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Model(product).
		Select("Title", "Description", "Price", "CategoryID", "Images").
		Updates(product).Error
}

// Delete removes a product together with its favorites.
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&model.ProductLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// List returns one page of products, newest first, and the total matching count.
func (r *productRepository) List(ctx context.Context, filter ProductFilter, offset, limit int) ([]model.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Scopes(r.matching(filter)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var products []model.Product
	if err := r.db.WithContext(ctx).
		Scopes(r.matching(filter)).
		Order("published_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) matching(filter ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.SellerID != uuid.Nil {
			db = db.Where("seller_id = ?", filter.SellerID)
		}
		if filter.LikedBy != uuid.Nil {
			liked := r.db.Model(&model.ProductLike{}).Select("product_id").Where("user_id = ?", filter.LikedBy)
			db = db.Where("id IN (?)", liked)
		}
		return db
	}
}

// AddLike inserts the favorite unless it already exists.
func (r *productRepository) AddLike(ctx context.Context, productID, userID uuid.UUID) error {
	like := model.ProductLike{ProductID: productID, UserID: userID}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&like).Error
}

// RemoveLike deletes the favorite. Removing a non-member is a no-op.
func (r *productRepository) RemoveLike(ctx context.Context, productID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Delete(&model.ProductLike{}).Error
}

// LikedUserIDs returns the users who favorited a product, oldest favorite first.
func (r *productRepository) LikedUserIDs(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	var likes []model.ProductLike
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&likes).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(likes))
	for _, l := range likes {
		ids = append(ids, l.UserID)
	}
	return ids, nil
}

// DeleteAll removes every product and favorite.
func (r *productRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.ProductLike{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Product{}).Error
	})
}
