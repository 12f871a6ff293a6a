package wallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

const (
	mnemonicEntropyBits = 256
	coinType            = 508
	hardenedOffset      = 0x80000000
)

// slip10Curve keys the HMAC chain for ed25519 derivation per SLIP-0010.
var slip10Curve = []byte("ed25519 seed")

// Mnemonic is a 24-word BIP-39 phrase.
type Mnemonic string

// NewMnemonic generates a fresh 24-word mnemonic from 256 bits of entropy.
func NewMnemonic() (Mnemonic, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("generate entropy: %w", err)
	}
	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("build mnemonic: %w", err)
	}
	return Mnemonic(phrase), nil
}

// MnemonicFromString validates and wraps an existing phrase.
func MnemonicFromString(s string) (Mnemonic, error) {
	s = strings.Join(strings.Fields(s), " ")
	if !bip39.IsMnemonicValid(s) {
		return "", fmt.Errorf("invalid mnemonic phrase")
	}
	return Mnemonic(s), nil
}

// DeriveKey derives the secret key at the given account index following the
// chain's SLIP-0010 ed25519 path m/44'/508'/0'/0'/index'.
func (m Mnemonic) DeriveKey(index uint32) (SecretKey, error) {
	seed, err := bip39.NewSeedWithErrorChecking(string(m), "")
	if err != nil {
		return nil, fmt.Errorf("mnemonic to seed: %w", err)
	}

	key, chainCode := slip10Master(seed)
	for _, segment := range []uint32{44, coinType, 0, 0, index} {
		key, chainCode = slip10Child(key, chainCode, segment|hardenedOffset)
	}
	return SecretKey(key), nil
}

func slip10Master(seed []byte) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, slip10Curve)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

func slip10Child(key, chainCode []byte, index uint32) (childKey, childChain []byte) {
	data := make([]byte, 0, 1+len(key)+4)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}
