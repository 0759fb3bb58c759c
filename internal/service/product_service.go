package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "sellit/internal/errors"
	"sellit/internal/model"
	"sellit/internal/repository"
)

const unknownCategoryName = "unknown"

// CategoryRef is the denormalized category attached to a listing on read.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ProductView is the public shape of a listing.
type ProductView struct {
	ID          string               `json:"id"`
	SellerID    string               `json:"sellerId"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Price       float64              `json:"price"`
	Category    CategoryRef          `json:"category"`
	Images      []model.ProductImage `json:"images"`
	PublishedAt string               `json:"publishedAt"`
}

// ProductDetail adds favorite membership to a listing.
type ProductDetail struct {
	ProductView
	LikedUsers     []string `json:"likedUsers"`
	FavoritesCount int      `json:"favoritesCount"`
}

// FavoriteState is the favorite set of a listing as seen by one user.
type FavoriteState struct {
	IsFavorited    bool     `json:"isFavorited"`
	FavoritesCount int      `json:"favoritesCount"`
	LikedUsers     []string `json:"likedUsers"`
}

// ProductPage is one page of listings.
type ProductPage struct {
	Products   []ProductView `json:"products"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int64         `json:"total"`
	TotalPages int           `json:"totalPages"`
}

// ProductService handles listing operations.
type ProductService interface {
	Create(ctx context.Context, sellerID uuid.UUID, in ProductInput) (*ProductView, error)
	List(ctx context.Context, q PageQuery) (*ProductPage, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, q PageQuery) (*ProductPage, error)
	ListFavorites(ctx context.Context, userID uuid.UUID, q PageQuery) (*ProductPage, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error)
	Favorite(ctx context.Context, id, userID uuid.UUID) (*FavoriteState, error)
	Unfavorite(ctx context.Context, id, userID uuid.UUID) (*FavoriteState, error)
	Update(ctx context.Context, id, requesterID uuid.UUID, in ProductInput) (*ProductView, error)
	Delete(ctx context.Context, id, requesterID uuid.UUID) error
	DeleteAll(ctx context.Context) error
}

type productService struct {
	productRepo repository.ProductRepository
	categories  CategoryService
	validator   *ListingValidator
	now         func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, categories CategoryService) ProductService {
	return &productService{
		productRepo: productRepo,
		categories:  categories,
		validator:   NewListingValidator(),
		now:         time.Now,
	}
}

// Create validates the input, resolves the category and publishes the listing.
func (s *productService) Create(ctx context.Context, sellerID uuid.UUID, in ProductInput) (*ProductView, error) {
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}
	category, err := s.categories.Resolve(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	product := &model.Product{
		SellerID:    sellerID,
		Title:       in.Title,
		Description: in.Description,
		Price:       *in.Price,
		CategoryID:  category.ID,
		Images:      in.Images,
		PublishedAt: s.now().UTC(),
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	view := toProductView(product, category)
	return &view, nil
}

// List returns all listings, newest first.
func (s *productService) List(ctx context.Context, q PageQuery) (*ProductPage, error) {
	return s.page(ctx, repository.ProductFilter{}, q)
}

// ListBySeller returns the listings a seller published.
func (s *productService) ListBySeller(ctx context.Context, sellerID uuid.UUID, q PageQuery) (*ProductPage, error) {
	return s.page(ctx, repository.ProductFilter{SellerID: sellerID}, q)
}

// ListFavorites returns the listings a user favorited.
func (s *productService) ListFavorites(ctx context.Context, userID uuid.UUID, q PageQuery) (*ProductPage, error) {
	return s.page(ctx, repository.ProductFilter{LikedBy: userID}, q)
}

func (s *productService) page(ctx context.Context, filter repository.ProductFilter, q PageQuery) (*ProductPage, error) {
	products, total, err := s.productRepo.List(ctx, filter, q.Offset(), q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	categoryIDs := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		categoryIDs = append(categoryIDs, p.CategoryID)
	}
	categories, err := s.categories.Lookup(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		var category *model.Category
		if c, ok := categories[products[i].CategoryID]; ok {
			category = &c
		}
		views = append(views, toProductView(&products[i], category))
	}

	return &ProductPage{
		Products:   views,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: TotalPages(total, q.Limit),
	}, nil
}

// Get returns a listing with its favorite set.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*ProductDetail, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	liked, err := s.productRepo.LikedUserIDs(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	categories, err := s.categories.Lookup(ctx, []uuid.UUID{product.CategoryID})
	if err != nil {
		return nil, err
	}

	var category *model.Category
	if c, ok := categories[product.CategoryID]; ok {
		category = &c
	}
	likedUsers := idStrings(liked)
	return &ProductDetail{
		ProductView:    toProductView(product, category),
		LikedUsers:     likedUsers,
		FavoritesCount: len(likedUsers),
	}, nil
}

// Favorite adds userID to the listing's favorite set. Repeating it has no further effect.
func (s *productService) Favorite(ctx context.Context, id, userID uuid.UUID) (*FavoriteState, error) {
	product, err := s.favoritable(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.AddLike(ctx, product.ID, userID); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return s.favoriteState(ctx, product.ID, userID)
}

// Unfavorite removes userID from the listing's favorite set.
func (s *productService) Unfavorite(ctx context.Context, id, userID uuid.UUID) (*FavoriteState, error) {
	product, err := s.favoritable(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.RemoveLike(ctx, product.ID, userID); err != nil {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}
	return s.favoriteState(ctx, product.ID, userID)
}

func (s *productService) favoritable(ctx context.Context, id, userID uuid.UUID) (*model.Product, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID == userID {
		return nil, apperrors.ErrCannotFavoriteOwn
	}
	return product, nil
}

func (s *productService) favoriteState(ctx context.Context, productID, userID uuid.UUID) (*FavoriteState, error) {
	liked, err := s.productRepo.LikedUserIDs(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	state := &FavoriteState{
		FavoritesCount: len(liked),
		LikedUsers:     idStrings(liked),
	}
	for _, id := range liked {
		if id == userID {
			state.IsFavorited = true
			break
		}
	}
	return state, nil
}

// Update replaces the owner-editable fields of a listing.
func (s *productService) Update(ctx context.Context, id, requesterID uuid.UUID, in ProductInput) (*ProductView, error) {
	product, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Validate(&in); err != nil {
		return nil, err
	}
	category, err := s.categories.Resolve(ctx, in.Category)
	if err != nil {
		return nil, err
	}

	product.Title = in.Title
	product.Description = in.Description
	product.Price = *in.Price
	product.CategoryID = category.ID
	product.Images = in.Images
	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	view := toProductView(product, category)
	return &view, nil
}

// Delete removes a listing owned by requesterID.
func (s *productService) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	if _, err := s.owned(ctx, id, requesterID); err != nil {
		return err
	}
	err := s.productRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// DeleteAll removes every listing and favorite.
func (s *productService) DeleteAll(ctx context.Context) error {
	if err := s.productRepo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete products: %w", err)
	}
	return nil
}

func (s *productService) owned(ctx context.Context, id, requesterID uuid.UUID) (*model.Product, error) {
	product, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.SellerID != requesterID {
		return nil, apperrors.ErrNotOwner
	}
	return product, nil
}

func (s *productService) find(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return product, nil
}

func toProductView(p *model.Product, category *model.Category) ProductView {
	ref := CategoryRef{ID: p.CategoryID.String(), Name: unknownCategoryName}
	if category != nil {
		ref.Name = category.Name
	}
	images := p.Images
	if images == nil {
		images = []model.ProductImage{}
	}
	return ProductView{
		ID:          p.ID.String(),
		SellerID:    p.SellerID.String(),
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Category:    ref,
		Images:      images,
		PublishedAt: p.PublishedAt.UTC().Format(time.RFC3339Nano),
	}
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
