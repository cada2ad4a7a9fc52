package security

import (
	"errors"
	"testing"
	"time"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("abc")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "abc" {
		t.Fatalf("expected hash to differ from password")
	}
	if !CheckPassword(hash, "abc") {
		t.Fatalf("expected password to match")
	}
	if CheckPassword(hash, "abd") {
		t.Fatalf("expected wrong password to fail")
	}
	if CheckPassword("", "abc") {
		t.Fatalf("expected empty hash to fail")
	}
}

func TestParseToken_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := IssueToken("secret", Claims{UserID: 7, Email: "a@x.mz", ProfileName: "Administrator", SessionID: "sid-1"}, now, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, errParse := ParseToken("secret", token, now.Add(30*time.Minute))
	if errParse != nil {
		t.Fatalf("ParseToken: %v", errParse)
	}
	if claims.UserID != 7 || claims.Email != "a@x.mz" || claims.ProfileName != "Administrator" || claims.SessionID != "sid-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.ExpiresAt.Time.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %s", claims.ExpiresAt.Time)
	}
}

func TestParseToken_RejectsWrongKeyAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := IssueToken("secret", Claims{UserID: 7, SessionID: "sid-1"}, now, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	if _, errParse := ParseToken("other-secret", token, now); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong key, got %v", errParse)
	}
	if _, errParse := ParseToken("secret", token, now.Add(2*time.Hour)); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", errParse)
	}
	if _, errParse := ParseToken("secret", "not-a-token", now); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", errParse)
	}
}

func TestHashToken_Stable(t *testing.T) {
	a := HashToken("token")
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a != HashToken("token") || a == HashToken("other") {
		t.Fatalf("expected stable distinct digests")
	}
}
