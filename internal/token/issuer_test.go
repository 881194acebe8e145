package token

import (
	"strings"
	"testing"
	"time"
)

func TestMintAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret-0123456789abcdef", 30*time.Minute)

	signed, err := issuer.Mint("user-42")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if strings.Count(signed, ".") != 2 {
		t.Fatalf("expected compact JWT, got %q", signed)
	}

	subject, ok := issuer.Verify(signed)
	if !ok {
		t.Fatal("valid token rejected")
	}
	if subject != "user-42" {
		t.Fatalf("expected subject user-42, got %q", subject)
	}
}

func TestVerifyFailsClosed(t *testing.T) {
	issuer := NewIssuer("test-secret-0123456789abcdef", 30*time.Minute)
	signed, err := issuer.Mint("user-42")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"truncated": signed[:len(signed)-10],
		"tampered":  signed[:len(signed)-4] + "AAAA",
	}
	for name, raw := range cases {
		if _, ok := issuer.Verify(raw); ok {
			t.Fatalf("%s token accepted", name)
		}
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	minted, err := NewIssuer("secret-one-0123456789abcdef", 30*time.Minute).Mint("user-42")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, ok := NewIssuer("secret-two-0123456789abcdef", 30*time.Minute).Verify(minted); ok {
		t.Fatal("token signed with a different secret accepted")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer("test-secret-0123456789abcdef", -time.Minute)
	signed, err := issuer.Mint("user-42")
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, ok := issuer.Verify(signed); ok {
		t.Fatal("expired token accepted")
	}
}
