package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/angelmondragon/artcart-backend/pkg/config"
	"github.com/angelmondragon/artcart-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestGenerateNumericCode(t *testing.T) {
	code, err := security.GenerateNumericCode(6)
	if err != nil {
		t.Fatalf("GenerateNumericCode returned error: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("unexpected character %q in %q", r, code)
		}
	}

	if _, err := security.GenerateNumericCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestEqualCodes(t *testing.T) {
	if !security.EqualCodes("123456", "123456") {
		t.Fatal("expected identical codes to match")
	}
	if security.EqualCodes("123456", "123457") || security.EqualCodes("123456", "12345") {
		t.Fatal("expected differing codes to mismatch")
	}
}

func TestVerifyPasswordRejectsForeignHashes(t *testing.T) {
	cfg := config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
	hash, err := security.HashPassword("secret-pass", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	cases := map[string]string{
		"old version":    strings.Replace(hash, "$v=19$", "$v=16$", 1),
		"bcrypt":         "$2a$10$abcdefghijklmnopqrstuuvwxyz",
		"missing params": strings.Replace(hash, "t=1,", "", 1),
	}
	for name, encoded := range cases {
		if _, err := security.VerifyPassword("secret-pass", encoded); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("%s: expected ErrInvalidHash, got %v", name, err)
		}
	}
}
