package password

import (
	"encoding/hex"
	"testing"
)

func TestGenerators(t *testing.T) {
	tok, err := GenerateToken(32)
	if err != nil || len(tok) != 43 {
		t.Fatalf("GenerateToken: %q, %v", tok, err)
	}

	h, err := GenerateHexToken(16)
	if err != nil {
		t.Fatalf("GenerateHexToken: %v", err)
	}
	if _, err := hex.DecodeString(h); err != nil || len(h) != 32 {
		t.Fatalf("hex token %q invalid", h)
	}

	code, err := GenerateNumericCode(6)
	if err != nil || len(code) != 6 {
		t.Fatalf("GenerateNumericCode: %q, %v", code, err)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit in %q", code)
		}
	}

	alnum, err := GenerateAlphanumericCode(12)
	if err != nil || len(alnum) != 12 {
		t.Fatalf("GenerateAlphanumericCode: %q, %v", alnum, err)
	}

	if _, err := GenerateNumericCode(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}

func TestGenerateTokenIsUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := GenerateToken(16)
		if err != nil {
			t.Fatal(err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}
