package orchestrator

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/esdt"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/recorder"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/pkg/logger"
)

// LoadHolders reads the run artifact under dir and loads each account's PEM
// credential, returning issuance-ready holders in shard order. A missing
// credential file is fatal; an unreadable or mismatched one only skips its
// account.
func LoadHolders(dir, artifactName string, log *logger.Logger) ([]esdt.Holder, error) {
	if log == nil {
		log = logger.NewDefault("orchestrator")
	}

	artifactPath := filepath.Join(dir, artifactName)
	artifact, err := recorder.Load(artifactPath)
	if err != nil {
		return nil, err
	}
	entries := artifact.Accounts()
	if len(entries) == 0 {
		return nil, fmt.Errorf("artifact %s holds no accounts", artifactPath)
	}

	holders := make([]esdt.Holder, 0, len(entries))
	for _, entry := range entries {
		pemPath := recorder.ResolvePath(dir, entry.PEMFile)
		sk, addr, err := wallet.LoadPEM(pemPath)
		if errors.Is(err, wallet.ErrCredentialNotFound) {
			return nil, fmt.Errorf("artifact references a missing credential for %s: %w", entry.Address, err)
		}
		if err != nil {
			log.Warn("skipping account, credential unreadable", "address", entry.Address, "error", err.Error())
			continue
		}
		if addr.Bech32() != entry.Address {
			log.Warn("skipping account, credential does not match artifact",
				"pem", pemPath,
				"artifact_address", entry.Address,
				"credential_address", addr.Bech32(),
			)
			continue
		}
		holders = append(holders, esdt.Holder{Key: sk, Address: addr})
	}

	if len(holders) == 0 {
		return nil, fmt.Errorf("no usable credentials referenced by %s", artifactPath)
	}
	log.Info("loaded account credentials", "accounts", len(holders), "artifact", artifactPath)
	return holders, nil
}
