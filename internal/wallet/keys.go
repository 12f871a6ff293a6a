// Package wallet implements MultiversX key material: mnemonics, ed25519
// keypairs, bech32 addresses, shard assignment, and the chain's standard
// PEM and keystore file formats.
package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

const (
	// SecretKeyLen is the byte length of an ed25519 seed.
	SecretKeyLen = 32
	// PublicKeyLen is the byte length of an ed25519 public key.
	PublicKeyLen = 32
)

// SecretKey is a 32-byte ed25519 seed.
type SecretKey []byte

// PublicKey is a 32-byte ed25519 public key.
type PublicKey []byte

// GenerateSecretKey returns a fresh random secret key.
func GenerateSecretKey() (SecretKey, error) {
	buf := make([]byte, SecretKeyLen)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("read randomness: %w", err)
	}
	return SecretKey(buf), nil
}

// PublicKey derives the matching ed25519 public key.
func (sk SecretKey) PublicKey() (PublicKey, error) {
	if len(sk) != SecretKeyLen {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", SecretKeyLen, len(sk))
	}
	priv := ed25519.NewKeyFromSeed(sk)
	return PublicKey(priv.Public().(ed25519.PublicKey)), nil
}

// Address derives the account address for this secret key.
func (sk SecretKey) Address() (Address, error) {
	pub, err := sk.PublicKey()
	if err != nil {
		return Address{}, err
	}
	return NewAddress(pub)
}

// Sign signs data with the secret key.
func (sk SecretKey) Sign(data []byte) ([]byte, error) {
	if len(sk) != SecretKeyLen {
		return nil, fmt.Errorf("secret key must be %d bytes, got %d", SecretKeyLen, len(sk))
	}
	priv := ed25519.NewKeyFromSeed(sk)
	return ed25519.Sign(priv, data), nil
}

// Verify reports whether signature is a valid signature of data by this key.
func (pk PublicKey) Verify(data, signature []byte) bool {
	if len(pk) != PublicKeyLen {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pk), data, signature)
}
