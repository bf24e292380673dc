package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	token, err := GenerateToken(7)

	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)

	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 7 {
		t.Errorf("expected user id 7, got %d", claims.UserID)
	}

	if claims.ExpiresAt == nil || time.Until(claims.ExpiresAt.Time) > TokenTTL {
		t.Errorf("unexpected expiry: %v", claims.ExpiresAt)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	SetSecret("first-secret")

	token, err := GenerateToken(7)

	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	SetSecret("second-secret")

	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with a different secret must not validate")
	}
}

func TestTokenGarbage(t *testing.T) {
	SetSecret("test-secret")

	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Error("garbage input must not validate")
	}
}

func TestTokenExpired(t *testing.T) {
	SetSecret("test-secret")

	claims := &Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))

	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Error("expired token must not validate")
	}
}
