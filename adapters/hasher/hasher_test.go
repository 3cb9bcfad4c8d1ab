package hasher_test

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/artpar/formgate/adapters/hasher"
)

func TestBcrypt(t *testing.T) {
	h := hasher.NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("admin-key")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if string(hash) == "admin-key" {
		t.Error("hash should not equal plaintext")
	}
	if !h.Compare(hash, "admin-key") {
		t.Error("Compare() should accept the original key")
	}
	if h.Compare(hash, "other") {
		t.Error("Compare() should reject a different key")
	}
	if h.Compare(nil, "admin-key") {
		t.Error("Compare() should reject an empty hash")
	}
}

func TestBcrypt_InvalidCostFallsBack(t *testing.T) {
	h := hasher.NewBcrypt(100)

	hash, err := h.Hash("k")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	cost, err := bcrypt.Cost(hash)
	if err != nil {
		t.Fatal(err)
	}
	if cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestFake(t *testing.T) {
	h := hasher.Fake{}
	hash, _ := h.Hash("k")
	if !h.Compare(hash, "k") || h.Compare(hash, "x") || h.Compare(nil, "") {
		t.Error("Fake should compare by equality and reject empty hashes")
	}
}
