package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"sellit/internal/auth"
	apperrors "sellit/internal/errors"
)

// ContextKeyClaims holds the *auth.Claims stored by the bearer gate.
const ContextKeyClaims = "user"

// MessageResponse is a plain informational reply.
type MessageResponse struct {
	Message string `json:"message"`
}

// OKResponse acknowledges an operation with no payload.
type OKResponse struct {
	OK bool `json:"ok"`
}

// respondError converts a service error into an HTTP error carrying the standard body.
func respondError(err error) *echo.HTTPError {
	mapped := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(mapped.StatusCode, mapped.ToErrorResponse()).SetInternal(err)
}

func invalidBody(err error) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Message: "Invalid request body",
		Code:    "INVALID_REQUEST",
	}).SetInternal(err)
}

// CurrentUserID returns the user id from a validated bearer token.
func CurrentUserID(c echo.Context) (uuid.UUID, error) {
	claims, ok := c.Get(ContextKeyClaims).(*auth.Claims)
	if !ok || claims == nil {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	id, err := claims.UserID()
	if err != nil {
		return uuid.Nil, apperrors.ErrUnauthorized
	}
	return id, nil
}
