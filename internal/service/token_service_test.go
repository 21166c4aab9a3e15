package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func signToken(t *testing.T, secret string, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims(issuer string) models.JWTClaims {
	now := time.Now()
	return models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		Email:  "admin@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "identity"})

	claims, err := svc.ValidateToken(signToken(t, "secret", validClaims("identity")))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestTokenServiceRejectsBadTokens(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "identity"})

	expired := validClaims("identity")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noRole := validClaims("identity")
	noRole.Role = ""

	cases := map[string]string{
		"wrong secret": signToken(t, "other", validClaims("identity")),
		"wrong issuer": signToken(t, "secret", validClaims("someone-else")),
		"expired":      signToken(t, "secret", expired),
		"missing role": signToken(t, "secret", noRole),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrUnauthorized))
		})
	}
}

func TestTokenServiceWithoutIssuerAcceptsAnyIssuer(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret"})
	_, err := svc.ValidateToken(signToken(t, "secret", validClaims("anyone")))
	assert.NoError(t, err)
}
