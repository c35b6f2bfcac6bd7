// Package testutils holds shared helpers for package tests.
package testutils

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"testing"
)

// TestKeystore keeps ed25519 keys indexed by hex public key for signing
// fixtures in tests.
type TestKeystore struct {
	t    *testing.T
	Keys map[string]ed25519.PrivateKey
}

func NewTestKeystore(t *testing.T) *TestKeystore {
	return &TestKeystore{t: t, Keys: map[string]ed25519.PrivateKey{}}
}

// Generate creates a fresh key pair and returns the hex public key id.
func (tk *TestKeystore) Generate() string {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		tk.t.Fatalf("failed to generate key: %v", err)
	}
	tk.AddKey(privateKey)
	return fmt.Sprintf("%064x", privateKey.Public())
}

func (tk *TestKeystore) AddKey(privateKey ed25519.PrivateKey) {
	publicKey := fmt.Sprintf("%064x", privateKey.Public())
	if _, ok := tk.Keys[publicKey]; ok {
		tk.t.Fatalf("Key already exists: %s", publicKey)
	}
	tk.Keys[publicKey] = privateKey
}

func (tk *TestKeystore) Sign(id string, hash []byte) ([]byte, error) {
	privateKey, ok := tk.Keys[id]
	if !ok {
		tk.t.Fatalf("No such key: %s", id)
	}
	if hash == nil {
		return nil, nil
	}
	return ed25519.Sign(privateKey, hash), nil
}

func (tk *TestKeystore) Accounts() []string {
	accounts := make([]string, 0, len(tk.Keys))
	for id := range tk.Keys {
		accounts = append(accounts, id)
	}
	return accounts
}
