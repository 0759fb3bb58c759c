// Package testutils exposes fixture endpoints for end-to-end test runs.
// The router composes it only when ENABLE_TEST_UTILS=true.
package testutils

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperrors "sellit/internal/errors"
	"sellit/internal/model"
	"sellit/internal/repository"
	"sellit/internal/service"
)

// FixturePassword is the password of every user created by CreateVerifiedUser.
const FixturePassword = "password123"

// Handler serves the test fixture endpoints.
type Handler struct {
	userRepo        repository.UserRepository
	authService     service.AuthService
	productService  service.ProductService
	categoryService service.CategoryService
	logger          *zap.Logger
}

// NewHandler creates a new test-utils handler.
func NewHandler(
	userRepo repository.UserRepository,
	authService service.AuthService,
	productService service.ProductService,
	categoryService service.CategoryService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userRepo:        userRepo,
		authService:     authService,
		productService:  productService,
		categoryService: categoryService,
		logger:          logger,
	}
}

// Register mounts the fixture routes on g.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/create-verified-user", h.CreateVerifiedUser)
	g.POST("/reset", h.Reset)
}

type authResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// CreateVerifiedUser godoc
// @Summary Create a verified user fixture
// @Tags test-utils
// @Produce json
// @Success 201 {object} handler.AuthResponse
// @Router /test-utils/create-verified-user [post]
func (h *Handler) CreateVerifiedUser(c echo.Context) error {
	ctx := c.Request().Context()
	uniq := strings.ToLower(ksuid.New().String())

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.DefaultCost)
	if err != nil {
		return h.fail(fmt.Errorf("hash password: %w", err))
	}

	user := &model.User{
		Email:           "e2e_" + uniq + "@sellit.local",
		Username:        "e2e_" + uniq,
		PasswordHash:    string(hashedPassword),
		IsEmailVerified: true,
	}
	if err := h.userRepo.Create(ctx, user); err != nil {
		return h.fail(fmt.Errorf("create fixture user: %w", err))
	}

	session, err := h.authService.IssueSession(ctx, user)
	if err != nil {
		return h.fail(err)
	}
	return c.JSON(http.StatusCreated, authResponse{Token: session.Token, User: model.ToPublicUser(user)})
}

// Reset godoc
// @Summary Remove all listings and restore the default categories
// @Tags test-utils
// @Produce json
// @Success 200 {object} handler.OKResponse
// @Router /test-utils/reset [post]
func (h *Handler) Reset(c echo.Context) error {
	ctx := c.Request().Context()
	if err := h.productService.DeleteAll(ctx); err != nil {
		return h.fail(err)
	}
	if err := h.categoryService.ResetToDefaults(ctx); err != nil {
		return h.fail(err)
	}
	h.logger.Info("test data reset")
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) fail(err error) *echo.HTTPError {
	mapped := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse()).SetInternal(err)
}
