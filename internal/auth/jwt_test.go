package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func TestGenerateAndParseJWT(t *testing.T) {
	addr := "EQBvW8Z5huBkMJYdnfAEM5JqTNkuWX3diqYENkWsIL0XggGG"

	token, err := GenerateJWT(testSecret, addr, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}

	claims, err := ParseJWT(testSecret, token)
	if err != nil {
		t.Fatalf("ParseJWT failed: %v", err)
	}
	if claims.Address != addr {
		t.Errorf("address = %q, want %q", claims.Address, addr)
	}
	if claims.Issuer != "heaven-sessions" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(testSecret, "EQAaddr", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	if _, err := ParseJWT("other-secret", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestParseJWTRejectsExpired(t *testing.T) {
	claims := Claims{
		Address: "EQAaddr",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := ParseJWT(testSecret, token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	if _, err := ParseJWT(testSecret, "not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}
