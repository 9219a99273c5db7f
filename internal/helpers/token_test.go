package helpers

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func newTestValidator(secret string) *TokenValidator {
	return NewTokenValidator("", secret, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sign(t *testing.T, secret string, claims CustomClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func claimsFor(subject string, exp time.Time) CustomClaims {
	c := CustomClaims{Role: "authenticated", Email: "guest@example.com"}
	c.Subject = subject
	c.ExpiresAt = jwt.NewNumericDate(exp)
	return c
}

func TestTokenValidator_HS256(t *testing.T) {
	v := newTestValidator(testSecret)
	sub := uuid.NewString()

	claims, err := v.Validate(sign(t, testSecret, claimsFor(sub, time.Now().Add(time.Hour))))

	require.NoError(t, err)
	assert.Equal(t, sub, claims.Subject)
	assert.Equal(t, "guest@example.com", claims.Email)
}

func TestTokenValidator_Rejects(t *testing.T) {
	v := newTestValidator(testSecret)
	sub := uuid.NewString()
	noExp := CustomClaims{}
	noExp.Subject = sub

	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(t, testSecret, claimsFor(sub, time.Now().Add(-time.Minute)))},
		{"wrong secret", sign(t, "another-secret-that-is-also-long-enough", claimsFor(sub, time.Now().Add(time.Hour)))},
		{"no expiry", sign(t, testSecret, noExp)},
		{"no subject", sign(t, testSecret, claimsFor("", time.Now().Add(time.Hour)))},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenValidator_NoSecretConfigured(t *testing.T) {
	v := newTestValidator("")

	_, err := v.Validate(sign(t, testSecret, claimsFor(uuid.NewString(), time.Now().Add(time.Hour))))

	assert.ErrorIs(t, err, ErrNoSigningKey)
}

func TestEnhancedClaims_Actor(t *testing.T) {
	id := uuid.New()
	ec := &EnhancedClaims{CustomClaims: &CustomClaims{}, Role: "admin", UserID: id.String()}

	actor, err := ec.Actor()
	require.NoError(t, err)
	assert.Equal(t, id, actor.UserID)
	assert.True(t, actor.IsAdmin)

	ec.Role = ""
	assert.Equal(t, "guest", ec.GetSafeRole())

	ec.UserID = "not-a-uuid"
	_, err = ec.Actor()
	assert.Error(t, err)
}

func TestStringTrim(t *testing.T) {
	assert.Equal(t, "abc", StringTrim(`  "abc" `))
	assert.Equal(t, "abc", StringTrim("'abc'"))
	assert.Equal(t, "", StringTrim("   "))
}
