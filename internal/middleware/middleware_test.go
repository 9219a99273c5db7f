package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joshua-takyi/staybook/internal/config"
	"github.com/joshua-takyi/staybook/internal/helpers"
	"github.com/joshua-takyi/staybook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/gotrue-go/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeVerifier map[string]string

func (f fakeVerifier) Validate(token string) (*helpers.CustomClaims, error) {
	sub, ok := f[token]
	if !ok {
		return nil, errors.New("token is expired")
	}
	claims := &helpers.CustomClaims{Email: "token@example.com"}
	claims.Subject = sub
	return claims, nil
}

type fakeProfiles struct {
	profile    *models.Profile
	refreshed  *types.TokenResponse
	refreshErr error
}

func (f *fakeProfiles) GetProfile(context.Context, uuid.UUID, string) (*models.Profile, error) {
	if f.profile == nil {
		return nil, models.ErrProfileNotFound
	}
	return f.profile, nil
}

func (f *fakeProfiles) RefreshToken(context.Context, string) (*types.TokenResponse, error) {
	return f.refreshed, f.refreshErr
}

// serve runs one request through mw and reports the claims the handler saw.
func serve(mw gin.HandlerFunc, req *http.Request) (*httptest.ResponseRecorder, *helpers.EnhancedClaims) {
	var seen *helpers.EnhancedClaims
	r := gin.New()
	r.Use(mw)
	r.GET("/me", func(c *gin.Context) {
		if v, ok := c.Get("user"); ok {
			seen = v.(*helpers.EnhancedClaims)
		}
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w, seen
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	mw := AuthMiddleware(fakeVerifier{}, &fakeProfiles{}, false, discardLogger())

	w, seen := serve(mw, httptest.NewRequest(http.MethodGet, "/me", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, seen)
}

func TestAuthMiddleware_BearerWithProfile(t *testing.T) {
	sub := uuid.NewString()
	profiles := &fakeProfiles{profile: &models.Profile{Role: "admin", Username: "ama", Email: "ama@example.com"}}
	mw := AuthMiddleware(fakeVerifier{"good": sub}, profiles, false, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w, seen := serve(mw, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, sub, seen.UserID)
	assert.True(t, seen.IsAdmin())
	assert.Equal(t, "ama", seen.Username)
	assert.Equal(t, "ama@example.com", seen.Email)
}

func TestAuthMiddleware_CookieWithoutProfile(t *testing.T) {
	sub := uuid.NewString()
	mw := AuthMiddleware(fakeVerifier{"good": sub}, &fakeProfiles{}, false, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "good"})
	w, seen := serve(mw, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "guest", seen.Role)
	assert.Equal(t, "token@example.com", seen.Email)
}

func TestAuthMiddleware_InvalidTokenWithoutRefresh(t *testing.T) {
	mw := AuthMiddleware(fakeVerifier{}, &fakeProfiles{}, false, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer stale")
	w, _ := serve(mw, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RefreshesExpiredToken(t *testing.T) {
	sub := uuid.NewString()
	refreshed := &types.TokenResponse{}
	refreshed.AccessToken = "fresh"
	refreshed.RefreshToken = "next-refresh"
	refreshed.ExpiresIn = 3600
	mw := AuthMiddleware(fakeVerifier{"fresh": sub}, &fakeProfiles{refreshed: refreshed}, false, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "stale"})
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "old-refresh"})
	w, seen := serve(mw, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, seen)
	assert.Equal(t, sub, seen.UserID)

	cookies := map[string]string{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	assert.Equal(t, "fresh", cookies["access_token"])
	assert.Equal(t, "next-refresh", cookies["refresh_token"])
}

func TestAuthMiddleware_RefreshFails(t *testing.T) {
	mw := AuthMiddleware(fakeVerifier{}, &fakeProfiles{refreshErr: errors.New("revoked")}, false, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "stale"})
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "old-refresh"})
	w, _ := serve(mw, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_SubjectMustBeUUID(t *testing.T) {
	mw := AuthMiddleware(fakeVerifier{"good": "service-account"}, &fakeProfiles{}, false, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w, _ := serve(mw, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID(t *testing.T) {
	w, _ := serve(RequestID(), httptest.NewRequest(http.MethodGet, "/me", nil))
	generated := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w, _ = serve(RequestID(), req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestErrorHandler_WritesMappedError(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(discardLogger()))
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(models.ErrForbidden)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body models.ApiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "forbidden", body.Kind)
}

func TestRateLimit_PassThroughWithoutRedis(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1}

	for i := 0; i < 3; i++ {
		w, _ := serve(RateLimit(cfg, nil, discardLogger()), httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestRateKey(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/me", nil)
	c.Request.RemoteAddr = "10.1.2.3:5555"
	c.Set("user", &helpers.EnhancedClaims{UserID: "u-1"})

	tests := []struct {
		strategy string
		want     string
	}{
		{"ip", "rl:ip:10.1.2.3"},
		{"user", "rl:user:u-1"},
		{"ip_user", "rl:ip:10.1.2.3:user:u-1"},
		{"route", "rl:route:GET "},
	}
	for _, tt := range tests {
		cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: tt.strategy}
		assert.Equal(t, tt.want, rateKey(cfg, c), tt.strategy)
	}

	anon, _ := gin.CreateTestContext(httptest.NewRecorder())
	anon.Request = httptest.NewRequest(http.MethodGet, "/me", nil)
	assert.Contains(t, rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, anon), "anon")
}
