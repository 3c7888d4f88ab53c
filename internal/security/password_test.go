package security_test

import (
	"testing"

	"github.com/jobhubhq/jobhub/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("pw123456")

	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if hash == "pw123456" {
		t.Fatalf("hash must not equal the plaintext")
	}

	if err := security.CheckPassword(hash, "pw123456"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}

	if err := security.CheckPassword(hash, "wrong-password"); err == nil {
		t.Fatalf("wrong password accepted")
	}
}

func TestHashIsSalted(t *testing.T) {
	h1, err := security.HashPassword("pw123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	h2, err := security.HashPassword("pw123456")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("two hashes of the same password must differ (per-record salt)")
	}
}
