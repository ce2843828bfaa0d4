package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookbazar/internal/config"
	"bookbazar/internal/domain/model"
	"bookbazar/internal/handler"
	"bookbazar/internal/middleware"
	"bookbazar/internal/repository"
	auth "bookbazar/internal/usecase/auth_usecase"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// =====================
// レスポンス確認用
// =====================

type errorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type identityBody struct {
	UserID       int64      `json:"user_id"`
	Role         model.Role `json:"role"`
	TokenVersion int        `json:"token_version"`
}

// =====================
// UserRepository モック
// =====================

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByEmailVerificationTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	args := m.Called(ctx, tokenHash, now)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) FindByForgotPasswordTokenHash(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	args := m.Called(ctx, tokenHash, now)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepo) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return m.Called(ctx, userID, at).Error(0)
}

func (m *MockUserRepo) SetEmailVerificationToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, userID, tokenHash, expiresAt).Error(0)
}

func (m *MockUserRepo) SetForgotPasswordToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	return m.Called(ctx, userID, tokenHash, expiresAt).Error(0)
}

func (m *MockUserRepo) ConsumeEmailVerificationToken(ctx context.Context, userID int64, tokenHash string, now time.Time) (bool, error) {
	args := m.Called(ctx, userID, tokenHash, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) ConsumeForgotPasswordToken(ctx context.Context, userID int64, tokenHash string, newPasswordHash string, now time.Time) (bool, error) {
	args := m.Called(ctx, userID, tokenHash, newPasswordHash, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	return m.Called(ctx, userID, passwordHash).Error(0)
}

func (m *MockUserRepo) IncrementTokenVersion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

// =====================
// helper
// =====================

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	return e
}

func echoIdentity(c echo.Context) error {
	userID, _ := middleware.UserID(c)
	tv, _ := c.Get(middleware.CtxTokenVersionKey).(int)
	return c.JSON(http.StatusOK, identityBody{
		UserID:       userID,
		Role:         middleware.UserRole(c),
		TokenVersion: tv,
	})
}

func issue(t *testing.T, secret string, userID int64, role model.Role, tv int) string {
	t.Helper()
	raw, _, err := auth.NewJWTIssuer(secret, time.Hour).Issue(userID, role, tv, time.Now())
	require.NoError(t, err)
	return raw
}

func signRaw(t *testing.T, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func run(t *testing.T, e *echo.Echo, authHeader string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, status, body.StatusCode)
	assert.Equal(t, msg, body.Message)
	assert.False(t, body.Success)
}

// =====================
// AuthJWT
// =====================

func TestAuthJWT_Unauthorized(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "bad scheme", header: "Token abc.def.ghi"},
		{name: "garbage", header: "Bearer not-a-jwt"},
		{name: "wrong secret", header: "Bearer " + issue(t, "wrong-secret", 1, model.RoleUser, 0)},
		{name: "wrong alg", header: "Bearer " + signRaw(t, jwt.SigningMethodHS512, jwt.MapClaims{
			"sub": "1", "role": "user", "tv": 0, "exp": future,
		})},
		{name: "unknown role", header: "Bearer " + signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "1", "role": "superuser", "tv": 0, "exp": future,
		})},
		{name: "no exp", header: "Bearer " + signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "1", "role": "user", "tv": 0,
		})},
		{name: "expired", header: "Bearer " + signRaw(t, jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "1", "role": "user", "tv": 0, "exp": time.Now().Add(-time.Minute).Unix(),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			e.GET("/protected", echoIdentity, middleware.AuthJWT(config.Config{JWTSecret: testSecret}))

			assertError(t, run(t, e, tt.header), http.StatusUnauthorized, "unauthorized")
		})
	}
}

// 正常：ctxに値が入る
func TestAuthJWT_Success_SetsContext(t *testing.T) {
	e := newEcho()
	e.GET("/protected", echoIdentity, middleware.AuthJWT(config.Config{JWTSecret: testSecret}))

	rec := run(t, e, "Bearer "+issue(t, testSecret, 123, model.RoleAdmin, 7))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body identityBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(123), body.UserID)
	assert.Equal(t, model.RoleAdmin, body.Role)
	assert.Equal(t, 7, body.TokenVersion)
}

// ヘッダが無ければcookie
func TestAuthJWT_CookieFallback(t *testing.T) {
	e := newEcho()
	e.GET("/protected", echoIdentity, middleware.AuthJWT(config.Config{JWTSecret: testSecret}))

	rec := run(t, e, "", &http.Cookie{Name: middleware.AccessTokenCookie, Value: issue(t, testSecret, 9, model.RoleUser, 0)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body identityBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(9), body.UserID)
}

// =====================
// TokenVersionGuard
// =====================

// AuthJWT無しでGuardだけ => 401
func TestTokenVersionGuard_MissingContext(t *testing.T) {
	e := newEcho()
	userRepo := new(MockUserRepo)
	e.GET("/protected", echoIdentity, middleware.TokenVersionGuard(userRepo))

	assertError(t, run(t, e, ""), http.StatusUnauthorized, "unauthorized")
	userRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestTokenVersionGuard(t *testing.T) {
	tests := []struct {
		name     string
		tokenTV  int
		user     *model.User
		findErr  error
		wantCode int
	}{
		{name: "match", tokenTV: 5, user: &model.User{ID: 1, Role: model.RoleUser, TokenVersion: 5}, wantCode: http.StatusOK},
		{name: "mismatch", tokenTV: 0, user: &model.User{ID: 1, Role: model.RoleUser, TokenVersion: 1}, wantCode: http.StatusUnauthorized},
		{name: "user deleted", tokenTV: 0, findErr: repository.ErrUserNotFound, wantCode: http.StatusUnauthorized},
		{name: "db error", tokenTV: 0, findErr: assert.AnError, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			userRepo := new(MockUserRepo)
			userRepo.On("FindByID", mock.Anything, int64(1)).Return(tt.user, tt.findErr)

			e.GET("/protected", echoIdentity,
				middleware.AuthJWT(config.Config{JWTSecret: testSecret}),
				middleware.TokenVersionGuard(userRepo))

			rec := run(t, e, "Bearer "+issue(t, testSecret, 1, model.RoleUser, tt.tokenTV))
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			userRepo.AssertExpectations(t)
		})
	}
}

// =====================
// RequireRole
// =====================

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     model.Role
		wantCode int
	}{
		{name: "admin", role: model.RoleAdmin, wantCode: http.StatusOK},
		{name: "user", role: model.RoleUser, wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			e.GET("/protected", echoIdentity,
				middleware.AuthJWT(config.Config{JWTSecret: testSecret}),
				middleware.AdminOnly())

			rec := run(t, e, "Bearer "+issue(t, testSecret, 1, tt.role, 0))
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

// AuthJWTを通していなければロール不明で401
func TestRequireRole_NoIdentity(t *testing.T) {
	e := newEcho()
	e.GET("/protected", echoIdentity, middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	assertError(t, run(t, e, ""), http.StatusUnauthorized, "unauthorized")
}

func TestRequireRole_AnyOf(t *testing.T) {
	e := newEcho()
	e.GET("/protected", echoIdentity,
		middleware.AuthJWT(config.Config{JWTSecret: testSecret}),
		middleware.RequireRole(model.RoleUser, model.RoleAdmin))

	rec := run(t, e, "Bearer "+issue(t, testSecret, 3, model.RoleUser, 0))
	assert.Equal(t, http.StatusOK, rec.Code)
}
