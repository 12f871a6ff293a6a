package generator

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
)

// Persist writes keystore and PEM credentials for every account under dir,
// one shard_<N> directory per shard, and records the paths on the accounts.
// Wallet files carry only the generated account's own key material.
func (g *Generator) Persist(set *Set, dir, password string) error {
	for id := uint32(0); int(id) < set.NumShards(); id++ {
		shardDir := filepath.Join(dir, fmt.Sprintf("shard_%d", id))
		if err := os.MkdirAll(shardDir, 0o700); err != nil {
			return fmt.Errorf("create shard directory: %w", err)
		}
		for _, acct := range set.Shard(id) {
			short := acct.Address.Bech32()[:8]
			walletPath := filepath.Join(shardDir, "wallet_"+short+".json")
			pemPath := filepath.Join(shardDir, "wallet_"+short+".pem")

			if err := wallet.SaveKeystore(walletPath, acct.SecretKey, password); err != nil {
				return fmt.Errorf("persist keystore for %s: %w", acct.Address.Bech32(), err)
			}
			if err := wallet.SavePEM(pemPath, acct.SecretKey); err != nil {
				return fmt.Errorf("persist pem for %s: %w", acct.Address.Bech32(), err)
			}

			acct.WalletFile = walletPath
			acct.PEMFile = pemPath
			g.log.Debug("wallet files written",
				"address", acct.Address.Bech32(),
				"keystore", walletPath,
				"pem", pemPath,
			)
		}
	}
	g.log.Info("wallet credentials persisted", "accounts", set.Len(), "dir", dir)
	return nil
}
