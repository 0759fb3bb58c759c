package router

import (
	"errors"
	"net/http"
	"strings"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"sellit/internal/auth"
	"sellit/internal/config"
	apperrors "sellit/internal/errors"
	"sellit/internal/handler"
	"sellit/internal/service"
	"sellit/internal/testutils"
)

const bodyLimit = "1M"

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Auth     *handler.AuthHandler
	Category *handler.CategoryHandler
	Product  *handler.ProductHandler
	// TestUtils is mounted under /api/test-utils when non-nil.
	TestUtils *testutils.Handler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *zap.Logger,
	jwtService *auth.JWTService,
	authService service.AuthService,
	h Handlers,
) {
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(requestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
	}))
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(bodyLimit))

	e.GET("/health", handler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.GET("/health", handler.Health)

	bearer := bearerAuth(jwtService)
	verified := handler.RequireVerified(authService)

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", h.Auth.Register)
	authRoutes.POST("/login", h.Auth.Login)
	authRoutes.GET("/me", h.Auth.Me, bearer)
	authRoutes.GET("/verify-email", h.Auth.VerifyEmail)
	authRoutes.POST("/resend-verification", h.Auth.ResendVerification, bearer)

	api.GET("/categories", h.Category.List)

	products := api.Group("/products")
	products.GET("", h.Product.List)
	products.POST("", h.Product.Create, bearer, verified)
	products.GET("/mine", h.Product.Mine, bearer)
	products.GET("/favorites", h.Product.Favorites, bearer)
	products.GET("/:id", h.Product.Get)
	products.PUT("/:id", h.Product.Update, bearer, verified)
	products.DELETE("/:id", h.Product.Delete, bearer, verified)
	products.POST("/:id/favorite", h.Product.Favorite, bearer, verified)
	products.DELETE("/:id/favorite", h.Product.Unfavorite, bearer, verified)

	if h.TestUtils != nil {
		h.TestUtils.Register(api.Group("/test-utils"))
		logger.Warn("test utilities enabled", zap.String("prefix", "/api/test-utils"))
	}
}

// bearerAuth validates "Authorization: Bearer <token>" and stores *auth.Claims in the context.
func bearerAuth(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ContextKeyClaims,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.ValidateToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			message := "Invalid or expired token"
			var extractErr *echojwt.TokenExtractionError
			switch {
			case strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization)) == "":
				message = "Missing Authorization header"
			case errors.As(err, &extractErr):
				message = "Invalid Authorization header"
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Message: message,
				Code:    "UNAUTHORIZED",
			}).SetInternal(err)
		},
	})
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

// errorHandler writes every error as {message, code, errors}. Internal detail only reaches the log.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status int
			body   apperrors.ErrorResponse
		)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch msg := he.Message.(type) {
			case apperrors.ErrorResponse:
				body = msg
			case string:
				body = apperrors.ErrorResponse{Message: msg}
			default:
				body = apperrors.ErrorResponse{Message: http.StatusText(he.Code)}
			}
		} else {
			mapped := apperrors.MapErrorToHTTP(err)
			status = mapped.StatusCode
			body = mapped.ToErrorResponse()
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.Int("status", status),
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			logger.Error("write error response", zap.Error(err))
		}
	}
}
