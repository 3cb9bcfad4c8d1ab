// Package random generates admin API keys.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
)

// KeyPrefix marks formgate admin keys.
const KeyPrefix = "fg_"

// keyBytes is the entropy of a generated key.
const keyBytes = 32

// Source produces random bytes.
type Source interface {
	Bytes(n int) ([]byte, error)
}

// Real uses crypto/rand.
type Real struct{}

// Bytes returns n cryptographically secure random bytes.
func (Real) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Fake returns a repeating counter sequence for tests.
type Fake struct {
	mu   sync.Mutex
	next byte
}

// Bytes returns the next n bytes of the sequence.
func (f *Fake) Bytes(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = f.next
		f.next++
	}
	return b, nil
}

// NewKey returns a fresh admin key: KeyPrefix followed by 64 hex digits.
func NewKey(src Source) (string, error) {
	b, err := src.Bytes(keyBytes)
	if err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return KeyPrefix + hex.EncodeToString(b), nil
}
