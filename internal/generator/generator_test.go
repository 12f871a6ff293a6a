package generator

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
)

// fastSource skips mnemonic derivation, drawing raw random keys.
func fastSource() KeySource {
	return func() (wallet.Mnemonic, wallet.SecretKey, error) {
		sk, err := wallet.GenerateSecretKey()
		return "", sk, err
	}
}

// shardBoundSource draws keys until one lands in the wanted shard, so the
// generator only ever sees addresses from that shard.
func shardBoundSource(t *testing.T, numShards, want uint32) KeySource {
	t.Helper()
	computer, err := wallet.NewAddressComputer(numShards)
	if err != nil {
		t.Fatalf("address computer: %v", err)
	}
	return func() (wallet.Mnemonic, wallet.SecretKey, error) {
		for {
			sk, err := wallet.GenerateSecretKey()
			if err != nil {
				return "", nil, err
			}
			addr, err := sk.Address()
			if err != nil {
				return "", nil, err
			}
			if computer.Shard(addr) == want {
				return "", sk, nil
			}
		}
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Config{NumShards: 0, PerShard: 3}); err == nil {
		t.Fatal("expected error for zero shards")
	}
	if _, err := New(Config{NumShards: 3, PerShard: 0}); err == nil {
		t.Fatal("expected error for zero quota")
	}
}

func TestGenerateFillsQuotas(t *testing.T) {
	g, err := New(Config{NumShards: 3, PerShard: 3, Source: fastSource()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	set, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if set.Len() != 9 {
		t.Fatalf("set holds %d accounts, want 9", set.Len())
	}
	for id := uint32(0); id < 3; id++ {
		if n := len(set.Shard(id)); n != 3 {
			t.Errorf("shard %d holds %d accounts, want 3", id, n)
		}
	}

	computer, err := wallet.NewAddressComputer(3)
	if err != nil {
		t.Fatalf("address computer: %v", err)
	}
	seen := make(map[wallet.Address]bool)
	for _, acct := range set.All() {
		if seen[acct.Address] {
			t.Errorf("address %s appears twice", acct.Address.Bech32())
		}
		seen[acct.Address] = true
		if got := computer.Shard(acct.Address); got != acct.Shard {
			t.Errorf("account %s recorded in shard %d, computed %d",
				acct.Address.Bech32(), acct.Shard, got)
		}
	}
}

func TestGenerateWithMnemonicSource(t *testing.T) {
	if testing.Short() {
		t.Skip("mnemonic derivation is slow")
	}

	g, err := New(Config{NumShards: 3, PerShard: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	set, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, acct := range set.All() {
		if acct.Mnemonic == "" {
			t.Fatalf("account %s has no mnemonic", acct.Address.Bech32())
		}
		sk, err := acct.Mnemonic.DeriveKey(0)
		if err != nil {
			t.Fatalf("re-derive: %v", err)
		}
		addr, err := sk.Address()
		if err != nil {
			t.Fatalf("re-derive address: %v", err)
		}
		if addr != acct.Address {
			t.Fatalf("mnemonic does not re-derive %s", acct.Address.Bech32())
		}
	}
}

func TestGenerateQuotaUnreachable(t *testing.T) {
	g, err := New(Config{
		NumShards: 3,
		PerShard:  3,
		MaxDraws:  40,
		Source:    shardBoundSource(t, 3, 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = g.Generate()
	if !errors.Is(err, ErrShardQuotaUnreachable) {
		t.Fatalf("error = %v, want ErrShardQuotaUnreachable", err)
	}
}

func TestGenerateDiscardsDuplicates(t *testing.T) {
	a, err := wallet.GenerateSecretKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	b, err := wallet.GenerateSecretKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	draws := []wallet.SecretKey{a, a, a, b}
	var i int
	source := func() (wallet.Mnemonic, wallet.SecretKey, error) {
		sk := draws[i%len(draws)]
		i++
		return "", sk, nil
	}

	g, err := New(Config{NumShards: 1, PerShard: 2, MaxDraws: 10, Source: source})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	set, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	accounts := set.Shard(0)
	if len(accounts) != 2 {
		t.Fatalf("shard 0 holds %d accounts, want 2", len(accounts))
	}
	if accounts[0].Address == accounts[1].Address {
		t.Fatal("duplicate address accepted")
	}
}

func TestPersistWritesWalletFiles(t *testing.T) {
	g, err := New(Config{NumShards: 3, PerShard: 1, Source: fastSource()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	set, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	dir := t.TempDir()
	const password = "winter-pass"
	if err := g.Persist(set, dir, password); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	for _, acct := range set.All() {
		if acct.WalletFile == "" || acct.PEMFile == "" {
			t.Fatalf("account %s has unset file paths", acct.Address.Bech32())
		}

		wantDir := filepath.Join(dir, fmt.Sprintf("shard_%d", acct.Shard))
		if filepath.Dir(acct.WalletFile) != wantDir {
			t.Errorf("keystore %s outside %s", acct.WalletFile, wantDir)
		}
		if !strings.HasPrefix(filepath.Base(acct.WalletFile), "wallet_") {
			t.Errorf("keystore name %s lacks wallet_ prefix", filepath.Base(acct.WalletFile))
		}

		sk, err := wallet.LoadKeystore(acct.WalletFile, password)
		if err != nil {
			t.Fatalf("reload keystore: %v", err)
		}
		addr, err := sk.Address()
		if err != nil {
			t.Fatalf("reload address: %v", err)
		}
		if addr != acct.Address {
			t.Fatalf("keystore for %s decrypts to %s", acct.Address.Bech32(), addr.Bech32())
		}

		pemSK, pemAddr, err := wallet.LoadPEM(acct.PEMFile)
		if err != nil {
			t.Fatalf("reload pem: %v", err)
		}
		if pemAddr != acct.Address {
			t.Fatalf("pem for %s decodes to %s", acct.Address.Bech32(), pemAddr.Bech32())
		}
		if string(pemSK) != string(acct.SecretKey) {
			t.Fatal("pem secret key mismatch")
		}
	}
}

func TestPersistFailsWhenDirIsFile(t *testing.T) {
	g, err := New(Config{NumShards: 1, PerShard: 1, Source: fastSource()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	set, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("seed blocker: %v", err)
	}
	if err := g.Persist(set, blocker, "pass"); err == nil {
		t.Fatal("expected error when output dir is a file")
	}
}
