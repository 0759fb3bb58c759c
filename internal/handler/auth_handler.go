package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"sellit/internal/model"
	"sellit/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	Username        string `json:"username" validate:"omitempty,min=3,max=32"`
	ProfileImageURL string `json:"profileImageUrl" validate:"omitempty,max=2048"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// VerifyEmailRequest carries the token from the verification link.
type VerifyEmailRequest struct {
	Token string `query:"token" validate:"required,min=10"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// UserResponse wraps the current user.
type UserResponse struct {
	User model.PublicUser `json:"user"`
}

// VerifyEmailResponse reports the verification outcome.
type VerifyEmailResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	req.ProfileImageURL = strings.TrimSpace(req.ProfileImageURL)

	if err := c.Validate(&req); err != nil {
		return respondError(err)
	}

	result, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		Username:        req.Username,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		return respondError(err)
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		Token: result.Token,
		User:  model.ToPublicUser(result.User),
	})
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}
	req.Email = strings.TrimSpace(req.Email)

	if err := c.Validate(&req); err != nil {
		return respondError(err)
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Token: result.Token,
		User:  model.ToPublicUser(result.User),
	})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return respondError(err)
	}

	user, err := h.authService.Me(c.Request().Context(), userID)
	if err != nil {
		return respondError(err)
	}

	return c.JSON(http.StatusOK, UserResponse{User: model.ToPublicUser(user)})
}

// VerifyEmail godoc
// @Summary Redeem an email verification token
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} VerifyEmailResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/verify-email [get]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req VerifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(err)
	}
	if err := c.Validate(&req); err != nil {
		return respondError(err)
	}

	user, alreadyVerified, err := h.authService.VerifyEmail(c.Request().Context(), req.Token)
	if err != nil {
		return respondError(err)
	}

	message := "Email verified"
	if alreadyVerified {
		message = "Email already verified"
	}
	return c.JSON(http.StatusOK, VerifyEmailResponse{
		Message: message,
		User:    model.ToPublicUser(user),
	})
}

// ResendVerification godoc
// @Summary Send a new verification email
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/resend-verification [post]
func (h *AuthHandler) ResendVerification(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return respondError(err)
	}

	alreadyVerified, err := h.authService.ResendVerification(c.Request().Context(), userID)
	if err != nil {
		return respondError(err)
	}

	if alreadyVerified {
		return c.JSON(http.StatusOK, MessageResponse{Message: "Email already verified"})
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Verification email sent"})
}
