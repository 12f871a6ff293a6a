package wallet

import (
	"encoding/hex"
	"strings"
	"testing"
)

// Reference wallets published with the chain's SDKs: the first three accounts
// derived from a fixed 24-word phrase.
const testPhrase = "moral volcano peasant pass circle pen over picture flat shop clap goat never lyrics gather prepare woman film husband gravity behind test tiger improve"

var testAccounts = []struct {
	name      string
	index     uint32
	secretHex string
	bech32    string
}{
	{
		name:      "alice",
		index:     0,
		secretHex: "413f42575f7f26fad3317a778771212fdb80245850981e48b58a4f25e344e8f9",
		bech32:    "erd1qyu5wthldzr8wx5c9ucg8kjagg0jfs53s8nr3zpz3hypefsdd8ssycr6th",
	},
	{
		name:      "bob",
		index:     1,
		secretHex: "b8ca6f8203fb4b545a8e83c5384da033c415db155b53fb5b8eba7ff5a039d639",
		bech32:    "erd1spyavw0956vq68xj8y4tenjpq2wd5a9p2c6j8gsz7ztyrnpxrruqzu66jx",
	},
	{
		name:      "carol",
		index:     2,
		secretHex: "e253a571ca153dc2aee845819f74bcc9773b0586edead15a94cb7235a5027436",
		bech32:    "erd1k2s324ww2g0yj38qn2ch2jwctdy8mnfxep94q9arncc6xecg3xaq6mjse8",
	},
}

func TestDeriveKeyReferenceVectors(t *testing.T) {
	mnemonic, err := MnemonicFromString(testPhrase)
	if err != nil {
		t.Fatalf("parse mnemonic: %v", err)
	}

	for _, tc := range testAccounts {
		sk, err := mnemonic.DeriveKey(tc.index)
		if err != nil {
			t.Fatalf("%s: derive: %v", tc.name, err)
		}
		if got := hex.EncodeToString(sk); got != tc.secretHex {
			t.Errorf("%s: secret key = %s, want %s", tc.name, got, tc.secretHex)
		}
		addr, err := sk.Address()
		if err != nil {
			t.Fatalf("%s: address: %v", tc.name, err)
		}
		if addr.Bech32() != tc.bech32 {
			t.Errorf("%s: address = %s, want %s", tc.name, addr.Bech32(), tc.bech32)
		}
	}
}

func TestNewMnemonic(t *testing.T) {
	m, err := NewMnemonic()
	if err != nil {
		t.Fatalf("new mnemonic: %v", err)
	}
	if words := strings.Fields(string(m)); len(words) != 24 {
		t.Fatalf("expected 24 words, got %d", len(words))
	}
	if _, err := MnemonicFromString(string(m)); err != nil {
		t.Fatalf("generated mnemonic should validate: %v", err)
	}

	// Distinct indices yield distinct keys.
	k0, err := m.DeriveKey(0)
	if err != nil {
		t.Fatalf("derive 0: %v", err)
	}
	k1, err := m.DeriveKey(1)
	if err != nil {
		t.Fatalf("derive 1: %v", err)
	}
	if hex.EncodeToString(k0) == hex.EncodeToString(k1) {
		t.Fatal("indices 0 and 1 derived the same key")
	}
}

func TestMnemonicFromStringRejectsGarbage(t *testing.T) {
	invalid := []string{
		"",
		"not a mnemonic",
		"moral volcano peasant pass circle pen over picture flat shop clap goat never lyrics gather prepare woman film husband gravity behind test tiger volcano",
	}
	for _, phrase := range invalid {
		if _, err := MnemonicFromString(phrase); err == nil {
			t.Errorf("expected error for %q", phrase)
		}
	}
}

func TestMnemonicFromStringNormalizesWhitespace(t *testing.T) {
	spaced := "  " + strings.ReplaceAll(testPhrase, " ", "   ") + " "
	m, err := MnemonicFromString(spaced)
	if err != nil {
		t.Fatalf("parse spaced mnemonic: %v", err)
	}
	if string(m) != testPhrase {
		t.Fatalf("whitespace not normalized: %q", m)
	}
}
