// Package orchestrator wires the wallet pipeline: load the funding
// credential, generate the shard-distributed account set, fund it, refresh
// balances, and record the run artifact.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/config"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/funding"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/gateway"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/generator"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/recorder"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/tx"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/pkg/logger"
)

// ErrPersistence means wallet files or the run artifact could not be written.
var ErrPersistence = errors.New("persistence failure")

// Provider is the gateway surface the pipeline needs.
type Provider interface {
	Account(ctx context.Context, bech32 string) (*gateway.Account, error)
	SendTransaction(ctx context.Context, signed *tx.Transaction) (string, error)
	NetworkConfig(ctx context.Context) (*gateway.NetworkConfig, error)
}

// Summary reports what a run produced.
type Summary struct {
	Accounts      int
	Funded        int
	FundingFailed int
	ArtifactPath  string
	Elapsed       time.Duration
}

// Orchestrator runs the generate-fund-record pipeline.
type Orchestrator struct {
	cfg      *config.Config
	provider Provider
	log      *logger.Logger
}

// New creates an orchestrator. The configuration must pass generation
// validation.
func New(cfg *config.Config, provider Provider, log *logger.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if err := cfg.ValidateGeneration(); err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, fmt.Errorf("gateway provider required")
	}
	if log == nil {
		log = logger.NewDefault("orchestrator")
	}
	return &Orchestrator{cfg: cfg, provider: provider, log: log}, nil
}

// Run executes the pipeline. The funding credential is loaded before any
// network traffic; a missing or invalid credential aborts the run with no
// artifact written. Individual funding failures do not fail the run, they are
// recorded per account in the artifact.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	fundingKey, fundingAddr, err := wallet.LoadPEM(o.cfg.FundingWalletPEM)
	if err != nil {
		return nil, err
	}
	o.log.Info("funding wallet loaded",
		"address", fundingAddr.Bech32(),
		"pem", o.cfg.FundingWalletPEM,
	)

	o.verifyNetwork(ctx)

	gen, err := generator.New(generator.Config{
		NumShards: o.cfg.NumShards,
		PerShard:  o.cfg.AccountsPerShard,
		MaxDraws:  o.cfg.MaxDraws,
		Logger:    o.log,
	})
	if err != nil {
		return nil, err
	}
	set, err := gen.Generate()
	if err != nil {
		return nil, err
	}
	if err := gen.Persist(set, o.cfg.OutputDir, o.cfg.WalletPassword); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	funder, err := funding.New(o.provider, fundingKey, funding.Config{
		Amount:      o.cfg.FundingAmount,
		ChainID:     o.cfg.ChainID,
		GasPrice:    o.cfg.GasPrice,
		GasLimit:    o.cfg.GasLimit,
		CallTimeout: o.cfg.FundingCallTimeout,
		Delay:       o.cfg.TransactionDelay,
		Concurrency: o.cfg.FundingConcurrency,
		Logger:      o.log,
	})
	if err != nil {
		return nil, err
	}

	outcomes, fundErr := funder.FundAll(ctx, set.Addresses())
	funded := 0
	for _, outcome := range outcomes {
		if outcome.Funded() {
			funded++
		}
	}
	if fundErr != nil {
		o.log.Warn("not every account was funded",
			"funded", funded,
			"failed", len(outcomes)-funded,
			"error", fundErr.Error(),
		)
	}

	balances := map[string]string{}
	if funded > 0 {
		o.log.Info("waiting for transfers to settle", "wait", o.cfg.PostFundingWait.String())
		if err := sleepCtx(ctx, o.cfg.PostFundingWait); err != nil {
			o.log.Warn("settle wait interrupted", "error", err.Error())
		} else {
			balances = o.refreshBalances(ctx, set)
		}
	}

	artifact := buildArtifact(set, outcomes, balances)
	artifactPath := o.cfg.AccountsInfoPath()
	if err := recorder.Write(artifactPath, artifact); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	o.log.Info("account information saved", "file", artifactPath)

	summary := &Summary{
		Accounts:      set.Len(),
		Funded:        funded,
		FundingFailed: set.Len() - funded,
		ArtifactPath:  artifactPath,
		Elapsed:       time.Since(start),
	}
	o.log.Info("execution complete",
		"accounts", summary.Accounts,
		"per_shard", o.cfg.AccountsPerShard,
		"funded", summary.Funded,
		"amount_egld", formatEGLD(o.cfg.FundingAmount.String()),
		"elapsed", summary.Elapsed.String(),
	)
	return summary, nil
}

// verifyNetwork cross-checks the configured chain against the gateway. The
// check only warns: the gateway may be briefly unreachable while the faucet
// endpoints still work.
func (o *Orchestrator) verifyNetwork(ctx context.Context) {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.FundingCallTimeout)
	defer cancel()

	netCfg, err := o.provider.NetworkConfig(callCtx)
	if err != nil {
		o.log.Warn("network config unavailable", "error", err.Error())
		return
	}
	if netCfg.ChainID != o.cfg.ChainID {
		o.log.Warn("chain ID mismatch",
			"configured", o.cfg.ChainID,
			"gateway", netCfg.ChainID,
		)
	}
	if netCfg.NumShards != 0 && netCfg.NumShards != o.cfg.NumShards {
		o.log.Warn("shard count mismatch",
			"configured", o.cfg.NumShards,
			"gateway", netCfg.NumShards,
		)
	}
}

// refreshBalances queries each account's balance with retries. Failures are
// logged and leave the recorded balance at its default.
func (o *Orchestrator) refreshBalances(ctx context.Context, set *generator.Set) map[string]string {
	balances := make(map[string]string, set.Len())
	for _, acct := range set.All() {
		bech := acct.Address.Bech32()
		balance, err := o.queryBalance(ctx, bech)
		if err != nil {
			o.log.Warn("balance query failed", "address", bech, "error", err.Error())
			continue
		}
		balances[bech] = balance
		o.log.Info("balance refreshed", "address", bech, "egld", balance)
		if err := sleepCtx(ctx, o.cfg.BalanceQueryDelay); err != nil {
			break
		}
	}
	return balances
}

func (o *Orchestrator) queryBalance(ctx context.Context, bech32 string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < o.cfg.BalanceQueryRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, o.cfg.BalanceQueryDelay); err != nil {
				return "", err
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.FundingCallTimeout)
		acct, err := o.provider.Account(callCtx, bech32)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		return formatEGLD(acct.Balance), nil
	}
	return "", lastErr
}

// buildArtifact pairs each account with its funding outcome and refreshed
// balance. Outcomes arrive in Set.All order.
func buildArtifact(set *generator.Set, outcomes []funding.Outcome, balances map[string]string) recorder.Artifact {
	byAddress := make(map[string]funding.Outcome, len(outcomes))
	for _, outcome := range outcomes {
		byAddress[outcome.Address] = outcome
	}

	artifact := make(recorder.Artifact, set.NumShards())
	for id := uint32(0); int(id) < set.NumShards(); id++ {
		entries := make([]recorder.Entry, 0, len(set.Shard(id)))
		for _, acct := range set.Shard(id) {
			bech := acct.Address.Bech32()
			entry := recorder.Entry{
				Address:    bech,
				Shard:      acct.Shard,
				WalletFile: acct.WalletFile,
				PEMFile:    acct.PEMFile,
				Balance:    "0",
			}
			if outcome, ok := byAddress[bech]; ok {
				if outcome.Funded() {
					entry.TxHash = outcome.TxHash
				} else {
					entry.FundingError = outcome.Failure.Error()
				}
			}
			if balance, ok := balances[bech]; ok {
				entry.Balance = balance
			}
			entries = append(entries, entry)
		}
		artifact[recorder.ShardKey(id)] = entries
	}
	return artifact
}

// formatEGLD renders an atto-denominated amount with four decimals.
func formatEGLD(atto string) string {
	raw, ok := new(big.Int).SetString(atto, 10)
	if !ok {
		return atto
	}
	value := new(big.Float).SetInt(raw)
	value.Quo(value, big.NewFloat(1e18))
	return value.Text('f', 4)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
