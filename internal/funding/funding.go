// Package funding transfers the configured amount from the funding wallet to
// each generated account, one attempt per account, collecting an outcome per
// address instead of aborting on the first failure.
package funding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/gateway"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/tx"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/pkg/logger"
)

// Reason classifies why a funding attempt failed.
type Reason string

const (
	ReasonInsufficientBalance Reason = "insufficient balance"
	ReasonTimeout             Reason = "timeout"
	ReasonRateLimited         Reason = "rate limited"
	ReasonRejected            Reason = "rejected by gateway"
	ReasonNetwork             Reason = "network error"
)

// Error is a per-account funding failure.
type Error struct {
	Address string
	Reason  Reason
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("funding %s failed: %s: %v", e.Address, e.Reason, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Outcome is the result of one funding attempt.
type Outcome struct {
	Address string
	TxHash  string
	Failure *Error
}

// Funded reports whether the transfer was accepted by the gateway.
func (o Outcome) Funded() bool { return o.Failure == nil }

// Provider is the slice of the gateway the funder needs.
type Provider interface {
	Account(ctx context.Context, bech32 string) (*gateway.Account, error)
	SendTransaction(ctx context.Context, signed *tx.Transaction) (string, error)
}

// Config holds funder configuration.
type Config struct {
	Amount      *big.Int      // atto-EGLD per account
	ChainID     string
	GasPrice    uint64
	GasLimit    uint64
	CallTimeout time.Duration // bound on each network call
	Delay       time.Duration // minimum spacing between submissions
	Concurrency int           // 1 submits sequentially
	Logger      *logger.Logger
}

// Manager funds generated accounts from a single source wallet.
type Manager struct {
	provider   Provider
	source     wallet.SecretKey
	sourceAddr wallet.Address
	cfg        Config
	limiter    *rate.Limiter
	log        *logger.Logger
}

// New creates a funding manager for the given source wallet.
func New(provider Provider, source wallet.SecretKey, cfg Config) (*Manager, error) {
	if provider == nil {
		return nil, fmt.Errorf("gateway provider required")
	}
	if cfg.Amount == nil || cfg.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("funding amount must be positive")
	}
	if cfg.ChainID == "" {
		return nil, fmt.Errorf("chain ID required")
	}

	sourceAddr, err := source.Address()
	if err != nil {
		return nil, fmt.Errorf("derive source address: %w", err)
	}

	if cfg.CallTimeout == 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	limit := rate.Inf
	if cfg.Delay > 0 {
		limit = rate.Every(cfg.Delay)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewDefault("funding")
	}

	return &Manager{
		provider:   provider,
		source:     source,
		sourceAddr: sourceAddr,
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, 1),
		log:        log,
	}, nil
}

// SourceAddress returns the funding wallet's address.
func (m *Manager) SourceAddress() wallet.Address { return m.sourceAddr }

// FundAll transfers the configured amount to every address. It returns one
// outcome per input address, in input order regardless of completion order.
// The returned error aggregates the individual failures for reporting; the
// outcomes remain authoritative and the caller decides whether to continue.
func (m *Manager) FundAll(ctx context.Context, addrs []wallet.Address) ([]Outcome, error) {
	outcomes := make([]Outcome, len(addrs))

	acct, err := m.fetchSource(ctx)
	if err != nil {
		// The source state is unreachable, so every transfer fails the
		// same way; record that per account and keep going.
		for i, addr := range addrs {
			failure := m.classify(addr.Bech32(), err)
			m.log.Warn("funding failed", "address", addr.Bech32(), "reason", failure.Reason)
			outcomes[i] = Outcome{Address: addr.Bech32(), Failure: failure}
		}
		return outcomes, m.aggregate(outcomes)
	}

	m.logSourceState(acct, len(addrs))
	holder := tx.NewNonceHolder(acct.Nonce)

	if m.cfg.Concurrency == 1 {
		for i, addr := range addrs {
			outcomes[i] = m.fundOne(ctx, holder, addr)
		}
		return outcomes, m.aggregate(outcomes)
	}

	var g errgroup.Group
	g.SetLimit(m.cfg.Concurrency)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			outcomes[i] = m.fundOne(ctx, holder, addr)
			return nil
		})
	}
	g.Wait()
	return outcomes, m.aggregate(outcomes)
}

func (m *Manager) fetchSource(ctx context.Context) (*gateway.Account, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	defer cancel()
	return m.provider.Account(callCtx, m.sourceAddr.Bech32())
}

func (m *Manager) fundOne(ctx context.Context, holder *tx.NonceHolder, addr wallet.Address) Outcome {
	bech := addr.Bech32()

	if err := m.limiter.Wait(ctx); err != nil {
		failure := m.classify(bech, err)
		m.log.Warn("funding failed", "address", bech, "reason", failure.Reason)
		return Outcome{Address: bech, Failure: failure}
	}

	nonce := holder.Next()
	transfer := tx.NewTransfer(m.sourceAddr, addr, nonce, m.cfg.Amount, tx.Params{
		ChainID:  m.cfg.ChainID,
		GasPrice: m.cfg.GasPrice,
		GasLimit: m.cfg.GasLimit,
	})
	if err := transfer.Sign(m.source); err != nil {
		failure := m.classify(bech, err)
		m.log.Warn("funding failed", "address", bech, "reason", failure.Reason)
		return Outcome{Address: bech, Failure: failure}
	}

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	defer cancel()

	hash, err := m.provider.SendTransaction(callCtx, transfer)
	if err != nil {
		failure := m.classify(bech, err)
		m.log.Warn("funding failed", "address", bech, "reason", failure.Reason, "error", err.Error())
		return Outcome{Address: bech, Failure: failure}
	}

	m.log.Info("funded account", "address", bech, "tx_hash", hash, "nonce", nonce)
	return Outcome{Address: bech, TxHash: hash}
}

// classify maps a transport or gateway error onto the failure taxonomy.
func (m *Manager) classify(address string, err error) *Error {
	var apiErr *gateway.APIError
	switch {
	case errors.Is(err, context.DeadlineExceeded), isNetTimeout(err):
		return &Error{Address: address, Reason: ReasonTimeout, Err: err}
	case errors.As(err, &apiErr):
		msg := strings.ToLower(apiErr.Message)
		switch {
		case apiErr.Status == 429 || strings.Contains(msg, "too many requests"):
			return &Error{Address: address, Reason: ReasonRateLimited, Err: err}
		case strings.Contains(msg, "insufficient"):
			return &Error{Address: address, Reason: ReasonInsufficientBalance, Err: err}
		default:
			return &Error{Address: address, Reason: ReasonRejected, Err: err}
		}
	default:
		return &Error{Address: address, Reason: ReasonNetwork, Err: err}
	}
}

func (m *Manager) logSourceState(acct *gateway.Account, count int) {
	balance, ok := new(big.Int).SetString(acct.Balance, 10)
	if !ok {
		m.log.Warn("funding wallet balance unreadable", "balance", acct.Balance)
		return
	}
	required := new(big.Int).Mul(m.cfg.Amount, big.NewInt(int64(count)))
	m.log.Info("funding wallet state",
		"address", m.sourceAddr.Bech32(),
		"balance", balance.String(),
		"nonce", acct.Nonce,
	)
	if balance.Cmp(required) < 0 {
		m.log.Warn("funding wallet may not cover all transfers",
			"balance", balance.String(),
			"required", required.String(),
		)
	}
}

func (m *Manager) aggregate(outcomes []Outcome) error {
	var result *multierror.Error
	for i := range outcomes {
		if outcomes[i].Failure != nil {
			result = multierror.Append(result, outcomes[i].Failure)
		}
	}
	return result.ErrorOrNil()
}

func isNetTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
