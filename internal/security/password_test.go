package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCheck(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	hash, err := h.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := h.CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}

	if err := h.CheckPassword(hash, "wrong-pass"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestNewHasher_ClampsCost(t *testing.T) {
	if got := NewHasher(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("expected default cost, got %d", got)
	}
	if got := NewHasher(1).cost; got != bcrypt.MinCost {
		t.Fatalf("expected min cost, got %d", got)
	}
}
