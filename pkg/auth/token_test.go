package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ruizcommerce/storefront-backend/pkg/config"
	"github.com/ruizcommerce/storefront-backend/pkg/enums"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "ruiz-test",
	ExpirationMinutes: 30,
}

func TestMintAndParseRoundTrip(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	signed, err := MintToken(testJWTConfig, time.Now(), TokenPayload{UserID: userID, Role: enums.RoleSuperAdmin})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	claims, err := ParseToken(testJWTConfig, signed)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("unexpected user id: %s", claims.UserID)
	}
	if !claims.IsAdmin() {
		t.Fatal("super_admin should be admin")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	signed, err := MintToken(testJWTConfig, time.Now(), TokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	other := testJWTConfig
	other.Issuer = "someone-else"
	if _, err := ParseToken(other, signed); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	t.Parallel()

	signed, err := MintToken(testJWTConfig, time.Now().Add(-2*time.Hour), TokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseToken(testJWTConfig, signed); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestMintValidatesInputs(t *testing.T) {
	t.Parallel()

	if _, err := MintToken(config.JWTConfig{Issuer: "x"}, time.Now(), TokenPayload{UserID: uuid.New(), Role: enums.RoleCustomer}); err == nil {
		t.Fatal("expected missing secret to fail")
	}
	if _, err := MintToken(testJWTConfig, time.Now(), TokenPayload{Role: enums.RoleCustomer}); err == nil {
		t.Fatal("expected missing user id to fail")
	}
}
