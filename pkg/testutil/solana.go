// Package testutil holds helpers shared by package tests.
package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"
)

// GenerateSolanaKey returns a random account address.
func GenerateSolanaKey(t *testing.T) ed25519.PublicKey {
	return GenerateSolanaKeys(t, 1)[0]
}

// GenerateSolanaKeys returns n random, distinct account addresses.
func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, 0, n)
	for len(keys) < n {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys = append(keys, pub)
	}
	return keys
}
