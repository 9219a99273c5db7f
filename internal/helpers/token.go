package helpers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
		Roles     []string `json:"roles,omitempty"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

var ErrNoSigningKey = errors.New("no key available to verify token")

// TokenValidator verifies Supabase access tokens. Asymmetric tokens are
// checked against the project's JWKS, HS256 tokens against the JWT secret.
type TokenValidator struct {
	jwksURL string
	secret  []byte
	logger  *slog.Logger

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

func NewTokenValidator(supabaseURL, jwtSecret string, logger *slog.Logger) *TokenValidator {
	v := &TokenValidator{
		secret: []byte(jwtSecret),
		logger: logger,
	}
	if supabaseURL != "" {
		v.jwksURL = strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
	}
	return v
}

func (v *TokenValidator) loadJWKS() (*keyfunc.JWKS, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.jwks != nil {
		return v.jwks, nil
	}
	if v.jwksURL == "" {
		return nil, ErrNoSigningKey
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	jwks, err := keyfunc.Get(v.jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			v.logger.Warn("jwks refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load jwks: %w", err)
	}
	v.jwks = jwks
	return jwks, nil
}

func (v *TokenValidator) keyFor(token *jwt.Token) (interface{}, error) {
	if token.Method.Alg() == jwt.SigningMethodHS256.Alg() {
		if len(v.secret) == 0 {
			return nil, ErrNoSigningKey
		}
		return v.secret, nil
	}
	jwks, err := v.loadJWKS()
	if err != nil {
		return nil, err
	}
	return jwks.Keyfunc(token)
}

func (v *TokenValidator) Validate(tokenStr string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, v.keyFor,
		jwt.WithValidMethods([]string{"RS256", "ES256", "HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		v.jwks.EndBackground()
		v.jwks = nil
	}
}
