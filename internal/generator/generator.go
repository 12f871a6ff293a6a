// Package generator produces devnet accounts by rejection sampling fresh
// keypairs until every shard holds its quota.
package generator

import (
	"errors"
	"fmt"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/pkg/logger"
)

// DefaultMaxDraws bounds rejection sampling before the run gives up.
const DefaultMaxDraws = 10000

// ErrShardQuotaUnreachable means the draw cap was hit with at least one
// shard still below its quota.
var ErrShardQuotaUnreachable = errors.New("shard quota unreachable")

// Account is one generated devnet account. WalletFile and PEMFile are set
// once the account's credentials have been written to disk.
type Account struct {
	Mnemonic   wallet.Mnemonic
	SecretKey  wallet.SecretKey
	Address    wallet.Address
	Shard      uint32
	WalletFile string
	PEMFile    string
}

// Set holds the generated accounts grouped by shard.
type Set struct {
	perShard int
	shards   [][]*Account
}

// NumShards returns the number of shard buckets in the set.
func (s *Set) NumShards() int { return len(s.shards) }

// PerShard returns the quota each shard was filled to.
func (s *Set) PerShard() int { return s.perShard }

// Shard returns the accounts landed in the given shard, in generation order.
func (s *Set) Shard(id uint32) []*Account {
	if int(id) >= len(s.shards) {
		return nil
	}
	return s.shards[id]
}

// All returns every account, shard 0 first.
func (s *Set) All() []*Account {
	all := make([]*Account, 0, s.Len())
	for _, shard := range s.shards {
		all = append(all, shard...)
	}
	return all
}

// Addresses returns the addresses of every account, in All order.
func (s *Set) Addresses() []wallet.Address {
	addrs := make([]wallet.Address, 0, s.Len())
	for _, acct := range s.All() {
		addrs = append(addrs, acct.Address)
	}
	return addrs
}

// Len returns the total number of accounts in the set.
func (s *Set) Len() int {
	n := 0
	for _, shard := range s.shards {
		n += len(shard)
	}
	return n
}

// KeySource mints a fresh mnemonic and its derived secret key.
type KeySource func() (wallet.Mnemonic, wallet.SecretKey, error)

func defaultKeySource() (wallet.Mnemonic, wallet.SecretKey, error) {
	mnemonic, err := wallet.NewMnemonic()
	if err != nil {
		return "", nil, err
	}
	sk, err := mnemonic.DeriveKey(0)
	if err != nil {
		return "", nil, err
	}
	return mnemonic, sk, nil
}

// Config holds generator configuration.
type Config struct {
	NumShards uint32
	PerShard  int
	MaxDraws  int       // 0 means DefaultMaxDraws
	Source    KeySource // nil means fresh random mnemonics
	Logger    *logger.Logger
}

// Generator fills per-shard account quotas by drawing random keypairs.
type Generator struct {
	computer *wallet.AddressComputer
	cfg      Config
	log      *logger.Logger
}

// New creates a generator for the given shard layout.
func New(cfg Config) (*Generator, error) {
	computer, err := wallet.NewAddressComputer(cfg.NumShards)
	if err != nil {
		return nil, err
	}
	if cfg.PerShard < 1 {
		return nil, fmt.Errorf("per-shard quota must be at least 1")
	}
	if cfg.MaxDraws == 0 {
		cfg.MaxDraws = DefaultMaxDraws
	}
	if cfg.Source == nil {
		cfg.Source = defaultKeySource
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("generator")
	}
	return &Generator{computer: computer, cfg: cfg, log: log}, nil
}

// Generate draws keypairs until every shard holds PerShard distinct accounts,
// discarding draws that land in a full shard. It fails with
// ErrShardQuotaUnreachable once MaxDraws draws could not fill the quotas.
func (g *Generator) Generate() (*Set, error) {
	shards := make([][]*Account, g.computer.NumShards())
	seen := make(map[wallet.Address]bool)
	remaining := int(g.computer.NumShards()) * g.cfg.PerShard

	var draws, discarded int
	for remaining > 0 {
		if draws == g.cfg.MaxDraws {
			return nil, fmt.Errorf("%w: shard counts %v after %d draws",
				ErrShardQuotaUnreachable, shardCounts(shards), draws)
		}
		draws++

		mnemonic, sk, err := g.cfg.Source()
		if err != nil {
			return nil, fmt.Errorf("draw keypair: %w", err)
		}
		addr, err := sk.Address()
		if err != nil {
			return nil, fmt.Errorf("derive address: %w", err)
		}
		if seen[addr] {
			discarded++
			continue
		}

		shard := g.computer.Shard(addr)
		if shard == wallet.MetachainID || len(shards[shard]) >= g.cfg.PerShard {
			discarded++
			continue
		}

		seen[addr] = true
		shards[shard] = append(shards[shard], &Account{
			Mnemonic:  mnemonic,
			SecretKey: sk,
			Address:   addr,
			Shard:     shard,
		})
		remaining--
		g.log.Info("generated account",
			"address", addr.Bech32(),
			"shard", shard,
			"progress", fmt.Sprintf("%d/%d", len(seen), int(g.computer.NumShards())*g.cfg.PerShard),
		)
	}

	g.log.Info("account set complete",
		"accounts", len(seen),
		"draws", draws,
		"discarded", discarded,
	)
	return &Set{perShard: g.cfg.PerShard, shards: shards}, nil
}

func shardCounts(shards [][]*Account) []int {
	counts := make([]int, len(shards))
	for i, shard := range shards {
		counts[i] = len(shard)
	}
	return counts
}
