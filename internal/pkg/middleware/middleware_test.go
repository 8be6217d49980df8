package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteadmin/internal/domain"
	"siteadmin/internal/pkg/cache/cachetest"
	"siteadmin/internal/pkg/logger"
	"siteadmin/internal/pkg/middleware"
	"siteadmin/internal/pkg/token"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	tokenSvc := token.NewService("segredo", time.Hour)
	revoked := token.NewRevocationList(cachetest.New())
	auth := middleware.NewAuthMiddleware(tokenSvc, revoked, logger.Nop())

	issued, err := tokenSvc.GenerateToken("user-1", string(domain.RoleAuthor))
	require.NoError(t, err)

	var seen domain.Caller
	handler := auth(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("sem header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/auth/profile", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Token no encontrado")
	})

	t.Run("token inválido", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "Token inválido")
	})

	t.Run("token válido", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer "+issued.Token)
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-1", seen.UserID)
		assert.Equal(t, domain.RoleAuthor, seen.Role)
		assert.Equal(t, issued.ID, seen.TokenID)
	})

	t.Run("token revogado", func(t *testing.T) {
		require.NoError(t, revoked.Revoke(context.Background(), issued.ID, issued.ExpiresAt))
		req := httptest.NewRequest(http.MethodGet, "/auth/profile", nil)
		req.Header.Set("Authorization", "Bearer "+issued.Token)
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthMiddleware_RevocationStoreDown(t *testing.T) {
	tokenSvc := token.NewService("segredo", time.Hour)
	mem := cachetest.New()
	mem.Err = errors.New("redis fora do ar")
	auth := middleware.NewAuthMiddleware(tokenSvc, token.NewRevocationList(mem), logger.Nop())

	issued, err := tokenSvc.GenerateToken("user-1", string(domain.RoleAdmin))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	rec := httptest.NewRecorder()
	auth(okHandler)(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPermissionMiddleware(t *testing.T) {
	onlyAdmin := middleware.PermissionMiddleware(domain.RoleAdmin)(okHandler)

	rec := httptest.NewRecorder()
	onlyAdmin(rec, httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(middleware.WithCaller(req.Context(), domain.Caller{UserID: "u", Role: domain.RoleAuthor}))
	rec = httptest.NewRecorder()
	onlyAdmin(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req = req.WithContext(middleware.WithCaller(req.Context(), domain.Caller{UserID: "u", Role: domain.RoleAdmin}))
	rec = httptest.NewRecorder()
	onlyAdmin(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	mem := cachetest.New()
	limited := middleware.RateLimiter(mem, 2, time.Minute, logger.Nop())(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/banners", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Outro IP tem o próprio contador.
	req := httptest.NewRequest(http.MethodGet, "/banners", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	limited.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiter_FailOpen(t *testing.T) {
	mem := cachetest.New()
	mem.Err = errors.New("redis fora do ar")
	limited := middleware.RateLimiter(mem, 1, time.Minute, logger.Nop())(http.HandlerFunc(okHandler))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := middleware.CORS([]string{"https://painel.exemplo.com"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/configuraciones", nil)
	req.Header.Set("Origin", "https://painel.exemplo.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://painel.exemplo.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)

	req = httptest.NewRequest(http.MethodGet, "/configuraciones", nil)
	req.Header.Set("Origin", "https://painel.exemplo.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://painel.exemplo.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Expose-Headers"))

	req = httptest.NewRequest(http.MethodGet, "/configuraciones", nil)
	req.Header.Set("Origin", "https://outro.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Wildcard(t *testing.T) {
	h := middleware.CORS([]string{"*"})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodGet, "/banners", nil)
	req.Header.Set("Origin", "https://qualquer.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	var seen string
	h := middleware.RequestLogger(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}
