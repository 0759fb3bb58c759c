package handler

import (
	"github.com/labstack/echo/v4"

	apperrors "sellit/internal/errors"
	"sellit/internal/service"
)

// RequireVerified rejects callers whose account is missing or whose email is unverified.
// It must run after the bearer gate.
func RequireVerified(authService service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, err := CurrentUserID(c)
			if err != nil {
				return respondError(err)
			}
			user, err := authService.Me(c.Request().Context(), userID)
			if err != nil {
				return respondError(err)
			}
			if !user.IsEmailVerified {
				return respondError(apperrors.ErrEmailNotVerified)
			}
			return next(c)
		}
	}
}
