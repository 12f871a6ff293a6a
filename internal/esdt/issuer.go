package esdt

import (
	"context"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/gateway"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/tx"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/pkg/logger"
)

// Issuance defaults: each holder issues three WINTER tokens named after the
// tail of its address, one hundred million units with eight decimals each.
const (
	DefaultNamePrefix       = "WinterToken"
	DefaultTicker           = "WINTER"
	DefaultDecimals         = 8
	DefaultTokensPerAccount = 3
	DefaultBatchSize        = 5
	DefaultBatchPause       = 6 * time.Second
	DefaultSettleWait       = 20 * time.Second
)

// DefaultSupply returns the default initial supply, 100 million units scaled
// by DefaultDecimals.
func DefaultSupply() *big.Int {
	supply := big.NewInt(100_000_000)
	return supply.Mul(supply, new(big.Int).Exp(big.NewInt(10), big.NewInt(DefaultDecimals), nil))
}

// Provider is the slice of the gateway the issuer needs.
type Provider interface {
	Account(ctx context.Context, bech32 string) (*gateway.Account, error)
	SendTransactions(ctx context.Context, signed []*tx.Transaction) (int, map[string]string, error)
}

// Holder is a funded account that will issue tokens.
type Holder struct {
	Key     wallet.SecretKey
	Address wallet.Address
}

// Result is the issuance outcome for one holder.
type Result struct {
	Address  string
	Tokens   []string
	TxHashes []string
	Err      error
}

// Config holds issuer configuration. Zero fields fall back to the defaults
// above.
type Config struct {
	ChainID          string
	GasPrice         uint64
	TokensPerAccount int
	BatchSize        int
	BatchPause       time.Duration
	SettleWait       time.Duration
	CallTimeout      time.Duration
	Logger           *logger.Logger
}

// Issuer submits token issuance transactions for a set of holders.
type Issuer struct {
	provider Provider
	cfg      Config
	log      *logger.Logger
}

// New creates an issuer over the given gateway provider.
func New(provider Provider, cfg Config) (*Issuer, error) {
	if provider == nil {
		return nil, fmt.Errorf("gateway provider required")
	}
	if cfg.ChainID == "" {
		return nil, fmt.Errorf("chain ID required")
	}
	if cfg.TokensPerAccount == 0 {
		cfg.TokensPerAccount = DefaultTokensPerAccount
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchPause == 0 {
		cfg.BatchPause = DefaultBatchPause
	}
	if cfg.SettleWait == 0 {
		cfg.SettleWait = DefaultSettleWait
	}
	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("esdt")
	}
	return &Issuer{provider: provider, cfg: cfg, log: log}, nil
}

// TokenName derives the issuance name for a holder's n-th token, one-based,
// from the tail of its address.
func TokenName(addr wallet.Address, seq int) string {
	bech := addr.Bech32()
	return DefaultNamePrefix + bech[len(bech)-6:] + strconv.Itoa(seq)
}

// IssueAll issues TokensPerAccount tokens from every holder. A holder whose
// nonce cannot be fetched or whose batch is rejected is recorded with its
// error and the remaining holders continue. The returned error is non-nil
// only when the context ends the run early.
func (iss *Issuer) IssueAll(ctx context.Context, holders []Holder) ([]Result, error) {
	results := make([]Result, 0, len(holders))
	for _, holder := range holders {
		result := iss.issueForHolder(ctx, holder)
		results = append(results, result)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		if result.Err == nil && len(result.TxHashes) > 0 {
			if err := sleepCtx(ctx, iss.cfg.SettleWait); err != nil {
				return results, err
			}
		}
	}
	return results, nil
}

func (iss *Issuer) issueForHolder(ctx context.Context, holder Holder) Result {
	bech := holder.Address.Bech32()
	result := Result{Address: bech}

	callCtx, cancel := context.WithTimeout(ctx, iss.cfg.CallTimeout)
	acct, err := iss.provider.Account(callCtx, bech)
	cancel()
	if err != nil {
		iss.log.Warn("skipping holder, account state unavailable", "address", bech, "error", err.Error())
		result.Err = fmt.Errorf("fetch account %s: %w", bech, err)
		return result
	}

	holderNonce := tx.NewNonceHolder(acct.Nonce)
	signed := make([]*tx.Transaction, 0, iss.cfg.TokensPerAccount)
	for i := 0; i < iss.cfg.TokensPerAccount; i++ {
		name := TokenName(holder.Address, i+1)
		req := IssueRequest{
			Name:          name,
			Ticker:        DefaultTicker,
			InitialSupply: DefaultSupply(),
			Decimals:      DefaultDecimals,
			Properties:    AllProperties(),
		}
		issueTx, err := NewIssueTransaction(holder.Address, holderNonce.Next(), req, iss.cfg.ChainID, iss.cfg.GasPrice)
		if err != nil {
			result.Err = err
			return result
		}
		if err := issueTx.Sign(holder.Key); err != nil {
			result.Err = fmt.Errorf("sign issuance for %s: %w", bech, err)
			return result
		}
		signed = append(signed, issueTx)
		result.Tokens = append(result.Tokens, name)
		iss.log.Info("prepared token issuance", "address", bech, "token", name, "nonce", issueTx.Nonce)
	}

	for start := 0; start < len(signed); start += iss.cfg.BatchSize {
		end := start + iss.cfg.BatchSize
		if end > len(signed) {
			end = len(signed)
		}
		batch := signed[start:end]

		callCtx, cancel := context.WithTimeout(ctx, iss.cfg.CallTimeout)
		sent, hashes, err := iss.provider.SendTransactions(callCtx, batch)
		cancel()
		if err != nil {
			iss.log.Warn("issuance batch rejected", "address", bech, "error", err.Error())
			result.Err = fmt.Errorf("send issuance batch for %s: %w", bech, err)
			return result
		}

		result.TxHashes = append(result.TxHashes, orderedHashes(hashes, len(batch))...)
		iss.log.Info("issuance batch accepted", "address", bech, "sent", sent, "batch", start/iss.cfg.BatchSize+1)

		if err := sleepCtx(ctx, iss.cfg.BatchPause); err != nil {
			result.Err = err
			return result
		}
	}
	return result
}

// orderedHashes flattens the gateway's position-keyed hash map back into
// submission order.
func orderedHashes(hashes map[string]string, n int) []string {
	out := make([]string, 0, len(hashes))
	for i := 0; i < n; i++ {
		if h, ok := hashes[strconv.Itoa(i)]; ok {
			out = append(out, h)
		}
	}
	return out
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
