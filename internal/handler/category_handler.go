package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sellit/internal/model"
	"sellit/internal/service"
)

// CategoryHandler handles category endpoints.
type CategoryHandler struct {
	categoryService service.CategoryService
}

// NewCategoryHandler creates a new category handler.
func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoriesResponse lists every category.
type CategoriesResponse struct {
	Categories []model.Category `json:"categories"`
}

// List godoc
// @Summary List categories sorted by name
// @Tags categories
// @Produce json
// @Success 200 {object} CategoriesResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.categoryService.List(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, CategoriesResponse{Categories: categories})
}
