package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/gasdrop-backend/pkg/config"
	"github.com/angelmondragon/gasdrop-backend/pkg/enums"
)

func testJWTConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "gasdrop",
		ExpirationMinutes: minutes,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()

	payload := AccessTokenPayload{
		UserID:      "firebase-uid-42",
		Role:        enums.RoleSubAdmin,
		Permissions: []enums.Permission{enums.PermissionOrders, enums.PermissionDelivery},
		JTI:         "access-1",
	}

	token, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if claims.UserID != payload.UserID {
		t.Fatalf("expected user_id %s, got %s", payload.UserID, claims.UserID)
	}
	if claims.Role != enums.RoleSubAdmin {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if len(claims.Permissions) != 2 || claims.Permissions[1] != enums.PermissionDelivery {
		t.Fatalf("permissions not preserved: %v", claims.Permissions)
	}
	if claims.ID != "access-1" {
		t.Fatalf("expected jti access-1, got %s", claims.ID)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	exp := now.Add(time.Duration(cfg.ExpirationMinutes) * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v (diff %v)", exp.UTC(), claims.ExpiresAt.UTC(), diff)
	}
}

func TestMintAccessTokenCapsExpiry(t *testing.T) {
	cfg := testJWTConfig(60)
	now := time.Now().UTC()
	limit := now.Add(10 * time.Minute)

	token, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: "agent-1", Role: enums.RoleDelivery}, limit)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	claims, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.ExpiresAt.After(limit.Add(time.Second)) {
		t.Fatalf("expiry %v should not pass cap %v", claims.ExpiresAt.UTC(), limit)
	}
	if claims.ID == "" {
		t.Fatal("expected generated jti")
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	cfg := testJWTConfig(10)
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: "u1", Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err = ParseAccessToken(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: "u1", Role: enums.RoleCustomer})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	if err != nil {
		t.Fatalf("expired token should still parse for refresh: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("unexpected user %s", claims.UserID)
	}
}

func TestMintAccessTokenRejectsBadPayload(t *testing.T) {
	cfg := testJWTConfig(5)
	now := time.Now()

	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{UserID: "u1", Role: ""}); err == nil {
		t.Fatal("expected invalid role error")
	}
	if _, err := MintAccessToken(cfg, now, AccessTokenPayload{Role: enums.RoleAdmin}); err == nil {
		t.Fatal("expected missing user error")
	}
	bad := AccessTokenPayload{UserID: "u1", Role: enums.RoleSubAdmin, Permissions: []enums.Permission{"billing"}}
	if _, err := MintAccessToken(cfg, now, bad); err == nil {
		t.Fatal("expected invalid permission error")
	}
}
