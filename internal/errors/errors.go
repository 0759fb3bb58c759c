package errors

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrEmailAlreadyRegistered is returned when the normalized email is taken.
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthorized is returned when the caller identity cannot be resolved.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailNotVerified is returned when a verified identity is required.
	ErrEmailNotVerified = errors.New("email verification required")
	// ErrInvalidToken is returned when no user holds the verification token.
	ErrInvalidToken = errors.New("invalid verification token")
	// ErrExpiredToken is returned when the verification token is past its expiry.
	ErrExpiredToken = errors.New("expired verification token")
	// ErrAlreadyVerified is returned when reissuing a token for a verified user.
	ErrAlreadyVerified = errors.New("email already verified")
	// ErrCategoryNotFound is returned when a category id does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrProductNotFound is returned when a product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrNotOwner is returned when a non-owner modifies a product.
	ErrNotOwner = errors.New("not the product owner")
	// ErrCannotFavoriteOwn is returned when a seller favorites their own product.
	ErrCannotFavoriteOwn = errors.New("cannot favorite own product")
	// ErrEmailDelivery is returned when the verification email could not be sent.
	ErrEmailDelivery = errors.New("email delivery failed")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Path string `json:"path"`
	Msg  string `json:"msg"`
}

// ValidationError carries every field problem found in a request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Path+": "+f.Msg)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Add appends a field problem.
func (e *ValidationError) Add(path, msg string) {
	e.Fields = append(e.Fields, FieldError{Path: path, Msg: msg})
}

// OrNil returns e when it holds at least one problem.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(path, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Path: path, Msg: msg}}}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Message string       `json:"message"`
	Code    string       `json:"code,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     []FieldError
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Message: e.Message,
		Code:    e.Code,
		Errors:  e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpErr := NewHTTPError(http.StatusBadRequest, "Validation failed", "VALIDATION_ERROR")
		httpErr.Fields = verr.Fields
		return httpErr
	}

	switch {
	case errors.Is(err, ErrEmailAlreadyRegistered):
		return NewHTTPError(http.StatusConflict, "Email is already registered", "EMAIL_TAKEN")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, "Unauthorized", "UNAUTHORIZED")
	case errors.Is(err, ErrEmailNotVerified):
		return NewHTTPError(http.StatusForbidden, "Email verification required", "EMAIL_NOT_VERIFIED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusBadRequest, "Invalid or expired verification token", "INVALID_TOKEN")
	case errors.Is(err, ErrExpiredToken):
		return NewHTTPError(http.StatusBadRequest, "Invalid or expired verification token", "EXPIRED_TOKEN")
	case errors.Is(err, ErrCategoryNotFound):
		return NewHTTPError(http.StatusBadRequest, "Category not found", "CATEGORY_NOT_FOUND")
	case errors.Is(err, ErrProductNotFound):
		return NewHTTPError(http.StatusNotFound, "Product not found", "NOT_FOUND")
	case errors.Is(err, ErrNotOwner):
		return NewHTTPError(http.StatusForbidden, "Forbidden", "NOT_OWNER")
	case errors.Is(err, ErrCannotFavoriteOwn):
		return NewHTTPError(http.StatusForbidden, "You cannot favorite your own product", "OWN_PRODUCT")
	case errors.Is(err, ErrEmailDelivery):
		return NewHTTPError(http.StatusInternalServerError, "Failed to send verification email", "EMAIL_DELIVERY_FAILED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}
