package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "sellit/internal/errors"
	"sellit/internal/service"
)

// ProductHandler handles listing endpoints.
type ProductHandler struct {
	productService service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// ProductRequest is the body of create and update. Exactly one of categoryId or categoryName is required.
// Fields are decoded one by one so a value of the wrong type becomes a field error, not a rejected body.
type ProductRequest struct {
	Title        json.RawMessage `json:"title" swaggertype:"string"`
	Description  json.RawMessage `json:"description" swaggertype:"string"`
	Price        json.RawMessage `json:"price" swaggertype:"number"`
	CategoryID   json.RawMessage `json:"categoryId" swaggertype:"string"`
	CategoryName json.RawMessage `json:"categoryName" swaggertype:"string"`
	Images       json.RawMessage `json:"images" swaggertype:"array,object"`
}

func (r *ProductRequest) input() service.ProductInput {
	var in service.ProductInput
	decodeField(&in, "title", r.Title, &in.Title)
	decodeField(&in, "description", r.Description, &in.Description)
	decodeField(&in, "price", r.Price, &in.Price)
	decodeField(&in, "categoryId", r.CategoryID, &in.Category.ID)
	decodeField(&in, "categoryName", r.CategoryName, &in.Category.Name)
	decodeField(&in, "images", r.Images, &in.Images)
	return in
}

func decodeField(in *service.ProductInput, path string, raw json.RawMessage, dst interface{}) {
	if len(raw) == 0 {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		in.MarkMalformed(path)
	}
}

// ProductResponse wraps a single listing.
type ProductResponse struct {
	Product service.ProductView `json:"product"`
}

// ProductDetailResponse wraps a listing with its favorites.
type ProductDetailResponse struct {
	Product service.ProductDetail `json:"product"`
}

// FavoriteResponse wraps the favorite state after a toggle.
type FavoriteResponse struct {
	Favorite service.FavoriteState `json:"favorite"`
}

// Create godoc
// @Summary Publish a listing
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Listing data"
// @Success 201 {object} ProductResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	sellerID, err := CurrentUserID(c)
	if err != nil {
		return respondError(err)
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}

	product, err := h.productService.Create(c.Request().Context(), sellerID, req.input())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, ProductResponse{Product: *product})
}

// List godoc
// @Summary List listings, newest first
// @Tags products
// @Produce json
// @Param page query int false "Page, default 1"
// @Param limit query int false "Page size, default 9, max 50"
// @Success 200 {object} service.ProductPage
// @Failure 500 {object} errors.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	page, err := h.productService.List(c.Request().Context(), pageQuery(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// Mine godoc
// @Summary List the caller's own listings
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page, default 1"
// @Param limit query int false "Page size, default 9, max 50"
// @Success 200 {object} service.ProductPage
// @Failure 401 {object} errors.ErrorResponse
// @Router /products/mine [get]
func (h *ProductHandler) Mine(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return respondError(err)
	}
	page, err := h.productService.ListBySeller(c.Request().Context(), userID, pageQuery(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// Favorites godoc
// @Summary List listings the caller favorited
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page, default 1"
// @Param limit query int false "Page size, default 9, max 50"
// @Success 200 {object} service.ProductPage
// @Failure 401 {object} errors.ErrorResponse
// @Router /products/favorites [get]
func (h *ProductHandler) Favorites(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return respondError(err)
	}
	page, err := h.productService.ListFavorites(c.Request().Context(), userID, pageQuery(c))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get godoc
// @Summary Listing detail with favorites
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} ProductDetailResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := productID(c)
	if err != nil {
		return respondError(err)
	}
	detail, err := h.productService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, ProductDetailResponse{Product: *detail})
}

// Favorite godoc
// @Summary Favorite a listing
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} FavoriteResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/favorite [post]
func (h *ProductHandler) Favorite(c echo.Context) error {
	return h.toggleFavorite(c, h.productService.Favorite)
}

// Unfavorite godoc
// @Summary Remove a listing from favorites
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} FavoriteResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id}/favorite [delete]
func (h *ProductHandler) Unfavorite(c echo.Context) error {
	return h.toggleFavorite(c, h.productService.Unfavorite)
}

type favoriteFunc func(ctx context.Context, id, userID uuid.UUID) (*service.FavoriteState, error)

func (h *ProductHandler) toggleFavorite(c echo.Context, fn favoriteFunc) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return respondError(err)
	}
	id, err := productID(c)
	if err != nil {
		return respondError(err)
	}
	state, err := fn(c.Request().Context(), id, userID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, FavoriteResponse{Favorite: *state})
}

// Update godoc
// @Summary Replace a listing's editable fields
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param request body ProductRequest true "Listing data"
// @Success 200 {object} ProductResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return respondError(err)
	}
	id, err := productID(c)
	if err != nil {
		return respondError(err)
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}

	product, err := h.productService.Update(c.Request().Context(), id, userID, req.input())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, ProductResponse{Product: *product})
}

// Delete godoc
// @Summary Delete a listing
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} OKResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return respondError(err)
	}
	id, err := productID(c)
	if err != nil {
		return respondError(err)
	}
	if err := h.productService.Delete(c.Request().Context(), id, userID); err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

// productID parses the :id path param. A malformed id cannot name a product.
func productID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ErrProductNotFound
	}
	return id, nil
}

func pageQuery(c echo.Context) service.PageQuery {
	return service.ParsePageQuery(c.QueryParam("page"), c.QueryParam("limit"))
}
