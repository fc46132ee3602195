// Package authtest signs bearer tokens for tests that drive the JWT
// middleware end to end.
package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/virtualclinic/api/internal/platform/auth"
)

// Token returns an HS256 token for subject with role in app_metadata, valid
// for one hour.
func Token(t testing.TB, key []byte, subject string, role auth.Role) string {
	t.Helper()
	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role:        "authenticated",
		AppMetadata: auth.AppMetadata{Role: string(role)},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
