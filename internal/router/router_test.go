package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"sellit/docs"
	"sellit/internal/auth"
	"sellit/internal/config"
	"sellit/internal/db"
	"sellit/internal/handler"
	"sellit/internal/repository"
	"sellit/internal/service"
	"sellit/internal/testutils"
)

// fakeMailer records the last token sent to each address.
type fakeMailer struct {
	mu     sync.Mutex
	tokens map[string]string
	fail   bool
}

func (m *fakeMailer) SendVerification(_ context.Context, to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("smtp unavailable")
	}
	m.tokens[to] = token
	return nil
}

func (m *fakeMailer) tokenFor(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type testServer struct {
	e      *echo.Echo
	mailer *fakeMailer
}

func newTestServer(t *testing.T, enableTestUtils bool) *testServer {
	t.Helper()
	gormDB, err := db.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() { _ = db.Close(gormDB) })

	cfg := &config.Config{CORSOrigin: "*", JWTSecret: "test-secret", JWTExpiry: time.Hour, VerificationTTL: time.Hour}
	logger := zap.NewNop()
	mailer := &fakeMailer{tokens: map[string]string{}}

	userRepo := repository.NewUserRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	productRepo := repository.NewProductRepository(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpiry)
	verificationService := service.NewVerificationService(userRepo, cfg.VerificationTTL)
	authService := service.NewAuthService(userRepo, jwtService, verificationService, mailer, logger)
	categoryService := service.NewCategoryService(categoryRepo, nil, logger)
	productService := service.NewProductService(productRepo, categoryService)
	require.NoError(t, categoryService.SeedDefaults(context.Background()))

	handlers := Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Category: handler.NewCategoryHandler(categoryService),
		Product:  handler.NewProductHandler(productService),
	}
	if enableTestUtils {
		handlers.TestUtils = testutils.NewHandler(userRepo, authService, productService, categoryService, logger)
	}

	e := echo.New()
	Register(e, cfg, logger, jwtService, authService, handlers)
	return &testServer{e: e, mailer: mailer}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type session struct {
	Token string
	ID    string
}

func (s *testServer) verifiedUser(t *testing.T) session {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/test-utils/create-verified-user", nil, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, true, user["isEmailVerified"])
	return session{Token: body["token"].(string), ID: user["id"].(string)}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false)

	for _, path := range []string{"/health", "/api/health"} {
		rec := s.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]interface{}{"status": "ok", "name": "SellIt API"}, decode(t, rec))
	}
}

func TestTestUtilsNotMountedByDefault(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/test-utils/create-verified-user", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegisterLoginMe(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "Alice@Example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "emailVerificationToken")

	body := decode(t, rec)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, false, user["isEmailVerified"])
	assert.NotEmpty(t, body["token"])

	rec = s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "ALICE@example.com",
		"password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email is already registered", decode(t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password", decode(t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    "ALICE@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode(t, rec)["token"].(string)

	rec = s.do(t, http.MethodGet, "/api/auth/me", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)["user"].(map[string]interface{})
	assert.Equal(t, user["id"], me["id"])
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "not-an-email",
		"password": "short",
		"username": "ab",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Validation failed", body["message"])
	paths := []string{}
	for _, e := range body["errors"].([]interface{}) {
		paths = append(paths, e.(map[string]interface{})["path"].(string))
	}
	assert.ElementsMatch(t, []string{"email", "password", "username"}, paths)
}

func TestBearerGate(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing Authorization header", decode(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/auth/me", nil, "garbage.token.value")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, rec)["message"])

	ghost, err := auth.NewJWTService("test-secret", time.Hour).GenerateAccessToken(uuid.New())
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/auth/me", nil, ghost)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", decode(t, rec)["message"])
}

func TestEmailVerificationFlow(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "bob@example.com",
		"password": "password123",
		"username": "bobby",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	token := decode(t, rec)["token"].(string)
	first := s.mailer.tokenFor("bob@example.com")
	require.NotEmpty(t, first)

	rec = s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"title": "Bike", "description": "Fast", "price": 10, "categoryName": "bikes",
	}, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Email verification required", decode(t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/api/auth/resend-verification", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Verification email sent", decode(t, rec)["message"])
	second := s.mailer.tokenFor("bob@example.com")
	require.NotEqual(t, first, second)

	rec = s.do(t, http.MethodGet, "/api/auth/verify-email?token="+first, nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired verification token", decode(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/auth/verify-email?token="+second, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Email verified", body["message"])
	assert.Equal(t, true, body["user"].(map[string]interface{})["isEmailVerified"])

	rec = s.do(t, http.MethodGet, "/api/auth/verify-email?token="+second, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email already verified", decode(t, rec)["message"])

	rec = s.do(t, http.MethodPost, "/api/auth/resend-verification", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email already verified", decode(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/auth/verify-email?token=short", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", decode(t, rec)["message"])
}

func TestResendVerification_DeliveryFailure(t *testing.T) {
	s := newTestServer(t, false)
	s.mailer.fail = true

	rec := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"email":    "carol@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, "registration must not fail on mail errors")
	token := decode(t, rec)["token"].(string)

	rec = s.do(t, http.MethodPost, "/api/auth/resend-verification", nil, token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to send verification email", decode(t, rec)["message"])
}

func TestCategories(t *testing.T) {
	s := newTestServer(t, true)
	seller := s.verifiedUser(t)

	var ids []string
	for _, name := range []string{"Shoes", "shoes"} {
		rec := s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
			"title": "Sneaker", "description": "Red", "price": 50, "categoryName": name,
		}, seller.Token)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		product := decode(t, rec)["product"].(map[string]interface{})
		ids = append(ids, product["category"].(map[string]interface{})["id"].(string))
	}
	assert.Equal(t, ids[0], ids[1])

	rec := s.do(t, http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	names := []string{}
	for _, c := range decode(t, rec)["categories"].([]interface{}) {
		names = append(names, c.(map[string]interface{})["name"].(string))
	}
	assert.Equal(t, []string{"clothes", "laptops", "phones", "shoes", "tablets"}, names)
}

func TestCreateProduct_Validation(t *testing.T) {
	s := newTestServer(t, true)
	seller := s.verifiedUser(t)

	rec := s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"title": "", "price": -5, "categoryId": uuid.NewString(), "categoryName": "phones",
	}, seller.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, decode(t, rec)["errors"], 4)

	rec = s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"title": "Phone", "description": "d", "price": 5, "categoryId": uuid.NewString(),
	}, seller.Token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Category not found", decode(t, rec)["message"])
}

func TestCreateProduct_WrongTypedFieldsAreFieldErrors(t *testing.T) {
	s := newTestServer(t, true)
	seller := s.verifiedUser(t)

	fieldErrors := func(rec *httptest.ResponseRecorder) map[string]string {
		body := decode(t, rec)
		assert.Equal(t, "Validation failed", body["message"])
		out := map[string]string{}
		for _, e := range body["errors"].([]interface{}) {
			fe := e.(map[string]interface{})
			out[fe["path"].(string)] = fe["msg"].(string)
		}
		return out
	}

	rec := s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"title": "", "description": "d", "price": "abc", "categoryName": "x",
	}, seller.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]string{
		"title": "Title is required",
		"price": "Price must be a positive number",
	}, fieldErrors(rec))

	rec = s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"title": 5, "description": "d", "price": true, "categoryName": "x", "images": "nope",
	}, seller.Token)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	errs := fieldErrors(rec)
	assert.Len(t, errs, 3)
	assert.Contains(t, errs, "title")
	assert.Contains(t, errs, "price")
	assert.Contains(t, errs, "images")

	rec = s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"title": "Desk", "description": "Oak", "price": "12.50", "categoryName": "furniture",
	}, seller.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 12.5, decode(t, rec)["product"].(map[string]interface{})["price"])
}

func TestListingFavoriteScenario(t *testing.T) {
	s := newTestServer(t, true)
	a := s.verifiedUser(t)
	b := s.verifiedUser(t)

	rec := s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"title": "Older", "description": "first", "price": 5, "categoryName": "phones",
	}, a.Token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"title": "Phone X", "description": "Mint", "price": 199.99, "categoryName": "phones",
		"images": []map[string]string{{"url": "https://img.example/x.jpg", "publicId": "x"}},
	}, a.Token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	product := decode(t, rec)["product"].(map[string]interface{})
	productID := product["id"].(string)
	assert.Equal(t, 199.99, product["price"])
	assert.Equal(t, a.ID, product["sellerId"])

	rec = s.do(t, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.EqualValues(t, 2, page["total"])
	first := page["products"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, productID, first["id"])
	assert.Equal(t, "phones", first["category"].(map[string]interface{})["name"])

	favPath := "/api/products/" + productID + "/favorite"
	for i := 0; i < 2; i++ {
		rec = s.do(t, http.MethodPost, favPath, nil, b.Token)
		require.Equal(t, http.StatusOK, rec.Code)
		fav := decode(t, rec)["favorite"].(map[string]interface{})
		assert.Equal(t, true, fav["isFavorited"])
		assert.EqualValues(t, 1, fav["favoritesCount"])
		assert.Equal(t, []interface{}{b.ID}, fav["likedUsers"])
	}

	rec = s.do(t, http.MethodPost, favPath, nil, a.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/products/"+productID, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	detail := decode(t, rec)["product"].(map[string]interface{})
	assert.EqualValues(t, 1, detail["favoritesCount"])
	assert.Equal(t, []interface{}{b.ID}, detail["likedUsers"])

	rec = s.do(t, http.MethodGet, "/api/products/favorites", nil, b.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = s.do(t, http.MethodDelete, favPath, nil, b.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	fav := decode(t, rec)["favorite"].(map[string]interface{})
	assert.Equal(t, false, fav["isFavorited"])
	assert.EqualValues(t, 0, fav["favoritesCount"])

	rec = s.do(t, http.MethodGet, "/api/products/mine", nil, a.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["total"])
}

func TestOwnershipScenario(t *testing.T) {
	s := newTestServer(t, true)
	a := s.verifiedUser(t)
	b := s.verifiedUser(t)

	create := func(token, title string) string {
		rec := s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
			"title": title, "description": "d", "price": 20, "categoryName": "laptops",
		}, token)
		require.Equal(t, http.StatusCreated, rec.Code)
		return decode(t, rec)["product"].(map[string]interface{})["id"].(string)
	}
	ownedByA := create(a.Token, "A's laptop")
	ownedByB := create(b.Token, "B's laptop")

	rec := s.do(t, http.MethodDelete, "/api/products/"+ownedByB, nil, a.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/products/"+ownedByB, map[string]interface{}{
		"title": "Stolen", "description": "d", "price": 1, "categoryName": "laptops",
	}, a.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/products/"+ownedByA, map[string]interface{}{
		"title": "A's laptop v2", "description": "updated", "price": 25.5, "categoryName": "Tablets",
	}, a.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode(t, rec)["product"].(map[string]interface{})
	assert.Equal(t, "A's laptop v2", updated["title"])
	assert.Equal(t, "tablets", updated["category"].(map[string]interface{})["name"])

	rec = s.do(t, http.MethodDelete, "/api/products/"+ownedByA, nil, a.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"ok": true}, decode(t, rec))

	rec = s.do(t, http.MethodGet, "/api/products/"+ownedByA, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", decode(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/products/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListPaginationClamp(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/api/products?page=0&limit=1000", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	assert.EqualValues(t, 1, page["page"])
	assert.EqualValues(t, 50, page["limit"])
	assert.EqualValues(t, 0, page["total"])
	assert.EqualValues(t, 1, page["totalPages"])
	assert.Empty(t, page["products"])
}

func TestReset(t *testing.T) {
	s := newTestServer(t, true)
	seller := s.verifiedUser(t)

	rec := s.do(t, http.MethodPost, "/api/products", map[string]interface{}{
		"title": "Lamp", "description": "d", "price": 3, "categoryName": "lighting",
	}, seller.Token)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/test-utils/reset", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"ok": true}, decode(t, rec))

	rec = s.do(t, http.MethodGet, "/api/products", nil, "")
	assert.EqualValues(t, 0, decode(t, rec)["total"])

	rec = s.do(t, http.MethodGet, "/api/categories", nil, "")
	assert.Len(t, decode(t, rec)["categories"], 5)
}

func TestSwaggerDocumentsEveryAPIRoute(t *testing.T) {
	s := newTestServer(t, true)

	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	for _, r := range s.e.Routes() {
		path, ok := strings.CutPrefix(r.Path, "/api")
		if !ok {
			continue
		}
		path = strings.ReplaceAll(path, ":id", "{id}")
		if path == "" {
			path = "/"
		}
		ops, found := doc.Paths[path]
		if !assert.True(t, found, "undocumented path %s", r.Path) {
			continue
		}
		assert.Contains(t, ops, strings.ToLower(r.Method), "undocumented %s %s", r.Method, r.Path)
	}
}
