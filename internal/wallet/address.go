package wallet

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AddressHRP is the bech32 human-readable prefix for MultiversX addresses.
const AddressHRP = "erd"

// Address is a MultiversX account address, a 32-byte ed25519 public key
// rendered as bech32 with the erd prefix.
type Address struct {
	pubkey [PublicKeyLen]byte
}

// NewAddress builds an address from a raw 32-byte public key.
func NewAddress(pubkey []byte) (Address, error) {
	if len(pubkey) != PublicKeyLen {
		return Address{}, fmt.Errorf("public key must be %d bytes, got %d", PublicKeyLen, len(pubkey))
	}
	var a Address
	copy(a.pubkey[:], pubkey)
	return a, nil
}

// AddressFromBech32 parses a bech32 erd address.
func AddressFromBech32(s string) (Address, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return Address{}, fmt.Errorf("decode address %q: %w", s, err)
	}
	if hrp != AddressHRP {
		return Address{}, fmt.Errorf("address %q: expected prefix %q, got %q", s, AddressHRP, hrp)
	}
	pubkey, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("decode address %q: %w", s, err)
	}
	return NewAddress(pubkey)
}

// Bech32 returns the bech32 string form of the address.
func (a Address) Bech32() string {
	conv, err := bech32.ConvertBits(a.pubkey[:], 8, 5, true)
	if err != nil {
		return ""
	}
	encoded, err := bech32.Encode(AddressHRP, conv)
	if err != nil {
		return ""
	}
	return encoded
}

// Pubkey returns a copy of the raw public key bytes.
func (a Address) Pubkey() []byte {
	out := make([]byte, PublicKeyLen)
	copy(out, a.pubkey[:])
	return out
}

// Hex returns the public key as lowercase hex, the form keystore files use.
func (a Address) Hex() string {
	return hex.EncodeToString(a.pubkey[:])
}

func (a Address) String() string {
	return a.Bech32()
}
