package auth_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jobhubhq/jobhub/internal/auth"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	raw, expiresAt, err := m.GenerateSessionToken("user-1", "alice@x.com", "student")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if time.Until(expiresAt) <= 0 {
		t.Fatalf("token already expired at issue time")
	}

	claims, err := m.VerifySessionToken(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != "user-1" || claims.Email != "alice@x.com" || claims.Role != "student" {
		t.Fatalf("claims mismatch: %+v", claims)
	}

	if claims.JTI == "" {
		t.Fatalf("expected a jti")
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := auth.NewManager("secret-a", time.Hour)
	verifier := auth.NewManager("secret-b", time.Hour)

	raw, _, err := issuer.GenerateSessionToken("user-1", "alice@x.com", "student")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.VerifySessionToken(raw); err == nil {
		t.Fatalf("token signed with another secret must not verify")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := auth.NewManager("test-secret", -time.Minute)

	raw, _, err := m.GenerateSessionToken("user-1", "alice@x.com", "student")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := m.VerifySessionToken(raw); err == nil {
		t.Fatalf("expired token must not verify")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.VerifySessionToken(raw); err == nil {
			t.Fatalf("garbage token %q must not verify", raw)
		}
	}
}

func TestHashTokenIsDeterministicAndOpaque(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)

	raw, _, err := m.GenerateSessionToken("user-1", "alice@x.com", "student")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	h1 := m.HashToken(raw)
	h2 := m.HashToken(raw)

	if h1 != h2 {
		t.Fatalf("hash must be deterministic")
	}

	if strings.Contains(h1, raw) {
		t.Fatalf("hash must not embed the raw token")
	}
}
