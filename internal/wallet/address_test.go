package wallet

import (
	"encoding/hex"
	"testing"
)

const alicePubkeyHex = "0139472eff6886771a982f3083da5d421f24c29181e63888228dc81ca60d69e1"

func TestAddressEncodesBech32(t *testing.T) {
	pubkey, err := hex.DecodeString(alicePubkeyHex)
	if err != nil {
		t.Fatalf("decode pubkey: %v", err)
	}

	addr, err := NewAddress(pubkey)
	if err != nil {
		t.Fatalf("new address: %v", err)
	}

	want := "erd1qyu5wthldzr8wx5c9ucg8kjagg0jfs53s8nr3zpz3hypefsdd8ssycr6th"
	if addr.Bech32() != want {
		t.Fatalf("bech32 = %s, want %s", addr.Bech32(), want)
	}
	if addr.Hex() != alicePubkeyHex {
		t.Fatalf("hex = %s, want %s", addr.Hex(), alicePubkeyHex)
	}
}

func TestAddressFromBech32RoundTrip(t *testing.T) {
	original := "erd1spyavw0956vq68xj8y4tenjpq2wd5a9p2c6j8gsz7ztyrnpxrruqzu66jx"

	addr, err := AddressFromBech32(original)
	if err != nil {
		t.Fatalf("parse address: %v", err)
	}
	if addr.Bech32() != original {
		t.Fatalf("round trip = %s, want %s", addr.Bech32(), original)
	}
	if len(addr.Pubkey()) != PublicKeyLen {
		t.Fatalf("pubkey length = %d", len(addr.Pubkey()))
	}
}

func TestAddressFromBech32Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"wrong prefix", "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"},
		{"bad checksum", "erd1qyu5wthldzr8wx5c9ucg8kjagg0jfs53s8nr3zpz3hypefsdd8ssycr6tq"},
		{"not bech32", "hello world"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := AddressFromBech32(tc.in); err == nil {
				t.Fatalf("expected error for %q", tc.in)
			}
		})
	}
}

func TestNewAddressRejectsBadLength(t *testing.T) {
	for _, n := range []int{0, 31, 33} {
		if _, err := NewAddress(make([]byte, n)); err == nil {
			t.Errorf("expected error for %d-byte pubkey", n)
		}
	}
}

func TestGeneratedKeyAddresses(t *testing.T) {
	sk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	addr, err := sk.Address()
	if err != nil {
		t.Fatalf("address: %v", err)
	}

	parsed, err := AddressFromBech32(addr.Bech32())
	if err != nil {
		t.Fatalf("parse generated address: %v", err)
	}
	if parsed != addr {
		t.Fatal("parsed address differs from derived address")
	}
}

func TestSignVerify(t *testing.T) {
	sk, err := GenerateSecretKey()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	pub, err := sk.PublicKey()
	if err != nil {
		t.Fatalf("public key: %v", err)
	}

	msg := []byte(`{"nonce":1,"value":"0"}`)
	sig, err := sk.Sign(msg)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !pub.Verify(msg, sig) {
		t.Fatal("signature should verify")
	}
	if pub.Verify([]byte("tampered"), sig) {
		t.Fatal("signature should not verify tampered data")
	}
}
