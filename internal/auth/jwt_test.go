package auth

import (
	"testing"
	"time"
)

func TestSignAndVerifyAccessToken(t *testing.T) {
	token, err := SignAccessToken(7, RoleServer, "Giulia", "test-secret", time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}

	claims, err := VerifyAccessToken(token, "test-secret")
	if err != nil {
		t.Fatalf("VerifyAccessToken returned error: %v", err)
	}
	if claims.StaffID != 7 || claims.Role != RoleServer || claims.Name != "Giulia" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, err := SignAccessToken(1, RoleManager, "Marco", "secret-a", time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}
	if _, err := VerifyAccessToken(token, "secret-b"); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, err := SignAccessToken(1, RoleBar, "Sara", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("SignAccessToken returned error: %v", err)
	}
	if _, err := VerifyAccessToken(token, "secret"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseBearerToken(t *testing.T) {
	cases := []struct {
		header   string
		expected string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"abc", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ParseBearerToken(tc.header); got != tc.expected {
			t.Fatalf("ParseBearerToken(%q) = %q, expected %q", tc.header, got, tc.expected)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []StaffRole{RoleManager, RoleServer, RoleKitchen, RoleBar} {
		if !ValidRole(role) {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if ValidRole("DISHWASHER") {
		t.Fatal("expected unknown role to be invalid")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("caponata")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !CheckPassword(hash, "caponata") {
		t.Fatal("expected password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("expected wrong password to fail")
	}
}
