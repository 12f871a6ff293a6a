package funding

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/gateway"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/tx"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
)

type fakeProvider struct {
	mu      sync.Mutex
	sent    []*tx.Transaction
	account func(ctx context.Context, bech32 string) (*gateway.Account, error)
	send    func(ctx context.Context, signed *tx.Transaction) (string, error)
}

func (p *fakeProvider) Account(ctx context.Context, bech32 string) (*gateway.Account, error) {
	return p.account(ctx, bech32)
}

func (p *fakeProvider) SendTransaction(ctx context.Context, signed *tx.Transaction) (string, error) {
	p.mu.Lock()
	p.sent = append(p.sent, signed)
	p.mu.Unlock()
	return p.send(ctx, signed)
}

func (p *fakeProvider) sentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sent)
}

func healthyAccount(nonce uint64) func(context.Context, string) (*gateway.Account, error) {
	return func(_ context.Context, bech32 string) (*gateway.Account, error) {
		return &gateway.Account{Address: bech32, Nonce: nonce, Balance: "1000000000000000000"}, nil
	}
}

func testConfig() Config {
	return Config{
		Amount:      big.NewInt(10000000000000000),
		ChainID:     "D",
		GasPrice:    1000000000,
		GasLimit:    50000,
		CallTimeout: time.Second,
	}
}

func newSource(t *testing.T) wallet.SecretKey {
	t.Helper()
	sk, err := wallet.GenerateSecretKey()
	if err != nil {
		t.Fatalf("generate source key: %v", err)
	}
	return sk
}

func newTargets(t *testing.T, n int) []wallet.Address {
	t.Helper()
	addrs := make([]wallet.Address, n)
	for i := range addrs {
		sk, err := wallet.GenerateSecretKey()
		if err != nil {
			t.Fatalf("generate key %d: %v", i, err)
		}
		addr, err := sk.Address()
		if err != nil {
			t.Fatalf("derive address %d: %v", i, err)
		}
		addrs[i] = addr
	}
	return addrs
}

func TestNewValidation(t *testing.T) {
	source := newSource(t)
	provider := &fakeProvider{}

	tests := []struct {
		name     string
		provider Provider
		mutate   func(*Config)
	}{
		{name: "nil provider", provider: nil, mutate: func(*Config) {}},
		{name: "zero amount", provider: provider, mutate: func(c *Config) { c.Amount = big.NewInt(0) }},
		{name: "nil amount", provider: provider, mutate: func(c *Config) { c.Amount = nil }},
		{name: "missing chain ID", provider: provider, mutate: func(c *Config) { c.ChainID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := New(tt.provider, source, cfg); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestFundAllSuccess(t *testing.T) {
	provider := &fakeProvider{
		account: healthyAccount(7),
		send: func(_ context.Context, signed *tx.Transaction) (string, error) {
			return fmt.Sprintf("hash-%d", signed.Nonce), nil
		},
	}

	m, err := New(provider, newSource(t), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	addrs := newTargets(t, 3)
	outcomes, err := m.FundAll(context.Background(), addrs)
	if err != nil {
		t.Fatalf("FundAll: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if !o.Funded() {
			t.Errorf("outcome %d not funded: %v", i, o.Failure)
		}
		if o.Address != addrs[i].Bech32() {
			t.Errorf("outcome %d address = %s, want %s", i, o.Address, addrs[i].Bech32())
		}
		wantHash := fmt.Sprintf("hash-%d", 7+i)
		if o.TxHash != wantHash {
			t.Errorf("outcome %d hash = %s, want %s", i, o.TxHash, wantHash)
		}
	}
	if provider.sentCount() != 3 {
		t.Fatalf("expected 3 sends, got %d", provider.sentCount())
	}
}

func TestFundAllContinuesPastFailures(t *testing.T) {
	var calls int
	provider := &fakeProvider{
		account: healthyAccount(0),
		send: func(_ context.Context, _ *tx.Transaction) (string, error) {
			calls++
			if calls == 2 {
				return "", &gateway.APIError{Status: 400, Message: "insufficient funds"}
			}
			return fmt.Sprintf("hash-%d", calls), nil
		},
	}

	m, err := New(provider, newSource(t), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcomes, err := m.FundAll(context.Background(), newTargets(t, 3))
	if err == nil {
		t.Fatal("expected aggregated error, got nil")
	}
	if outcomes[0].Failure != nil || outcomes[2].Failure != nil {
		t.Fatalf("unexpected failures: %v, %v", outcomes[0].Failure, outcomes[2].Failure)
	}
	if outcomes[1].Failure == nil {
		t.Fatal("expected outcome 1 to fail")
	}
	if outcomes[1].Failure.Reason != ReasonInsufficientBalance {
		t.Fatalf("reason = %s, want %s", outcomes[1].Failure.Reason, ReasonInsufficientBalance)
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected multierror, got %T", err)
	}
	if len(merr.Errors) != 1 {
		t.Fatalf("expected 1 aggregated failure, got %d", len(merr.Errors))
	}
}

func TestFundAllSourceUnreachable(t *testing.T) {
	provider := &fakeProvider{
		account: func(_ context.Context, _ string) (*gateway.Account, error) {
			return nil, errors.New("connection refused")
		},
		send: func(_ context.Context, _ *tx.Transaction) (string, error) {
			return "never", nil
		},
	}

	m, err := New(provider, newSource(t), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	addrs := newTargets(t, 9)
	outcomes, err := m.FundAll(context.Background(), addrs)
	if err == nil {
		t.Fatal("expected aggregated error, got nil")
	}
	if len(outcomes) != 9 {
		t.Fatalf("expected 9 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Funded() {
			t.Errorf("outcome %d unexpectedly funded", i)
		}
		if o.Failure.Reason != ReasonNetwork {
			t.Errorf("outcome %d reason = %s, want %s", i, o.Failure.Reason, ReasonNetwork)
		}
	}
	if provider.sentCount() != 0 {
		t.Fatalf("expected no sends, got %d", provider.sentCount())
	}
}

func TestFundAllTimeout(t *testing.T) {
	provider := &fakeProvider{
		account: healthyAccount(0),
		send: func(ctx context.Context, _ *tx.Transaction) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}

	cfg := testConfig()
	cfg.CallTimeout = 20 * time.Millisecond
	m, err := New(provider, newSource(t), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcomes, _ := m.FundAll(context.Background(), newTargets(t, 1))
	if outcomes[0].Funded() {
		t.Fatal("expected timeout failure")
	}
	if outcomes[0].Failure.Reason != ReasonTimeout {
		t.Fatalf("reason = %s, want %s", outcomes[0].Failure.Reason, ReasonTimeout)
	}
}

func TestFundAllRateLimitClassified(t *testing.T) {
	provider := &fakeProvider{
		account: healthyAccount(0),
		send: func(_ context.Context, _ *tx.Transaction) (string, error) {
			return "", &gateway.APIError{Status: 429, Message: "too many requests"}
		},
	}

	m, err := New(provider, newSource(t), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	outcomes, _ := m.FundAll(context.Background(), newTargets(t, 1))
	if outcomes[0].Failure == nil || outcomes[0].Failure.Reason != ReasonRateLimited {
		t.Fatalf("expected rate limit failure, got %+v", outcomes[0])
	}
}

func TestFundAllConcurrentKeepsInputOrder(t *testing.T) {
	provider := &fakeProvider{
		account: healthyAccount(0),
		send: func(_ context.Context, signed *tx.Transaction) (string, error) {
			time.Sleep(time.Duration(signed.Nonce%3) * time.Millisecond)
			return fmt.Sprintf("hash-%s", signed.Receiver[:16]), nil
		},
	}

	cfg := testConfig()
	cfg.Concurrency = 4
	m, err := New(provider, newSource(t), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	addrs := newTargets(t, 9)
	outcomes, err := m.FundAll(context.Background(), addrs)
	if err != nil {
		t.Fatalf("FundAll: %v", err)
	}

	for i, o := range outcomes {
		if o.Address != addrs[i].Bech32() {
			t.Errorf("outcome %d address = %s, want %s", i, o.Address, addrs[i].Bech32())
		}
		if !o.Funded() {
			t.Errorf("outcome %d not funded: %v", i, o.Failure)
		}
	}

	nonces := make(map[uint64]bool)
	provider.mu.Lock()
	for _, signed := range provider.sent {
		nonces[signed.Nonce] = true
	}
	provider.mu.Unlock()
	for n := uint64(0); n < 9; n++ {
		if !nonces[n] {
			t.Errorf("nonce %d never used", n)
		}
	}
}

func TestClassify(t *testing.T) {
	m, err := New(&fakeProvider{}, newSource(t), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	tests := []struct {
		name string
		err  error
		want Reason
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonTimeout},
		{name: "wrapped deadline", err: fmt.Errorf("post: %w", context.DeadlineExceeded), want: ReasonTimeout},
		{name: "too many requests", err: &gateway.APIError{Status: 429, Message: "too many requests"}, want: ReasonRateLimited},
		{name: "insufficient funds", err: &gateway.APIError{Status: 400, Message: "insufficient funds"}, want: ReasonInsufficientBalance},
		{name: "other rejection", err: &gateway.APIError{Status: 400, Message: "invalid signature"}, want: ReasonRejected},
		{name: "transport", err: errors.New("connection refused"), want: ReasonNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failure := m.classify("erd1test", tt.err)
			if failure.Reason != tt.want {
				t.Fatalf("reason = %s, want %s", failure.Reason, tt.want)
			}
			if !errors.Is(failure, tt.err) {
				t.Fatal("classified error does not unwrap to original")
			}
		})
	}
}
