// Package gateway provides the MultiversX proxy HTTP API client used to query
// accounts and submit transactions.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/httputil"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/tx"
)

const maxResponseBytes = 8 << 20

// Proxy is a MultiversX gateway client.
type Proxy struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds gateway client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a gateway client.
func New(cfg Config) (*Proxy, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway URL required")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Proxy{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Account returns the on-chain state of the given bech32 address.
func (p *Proxy) Account(ctx context.Context, bech32 string) (*Account, error) {
	var data accountData
	if err := p.get(ctx, "/address/"+bech32, &data); err != nil {
		return nil, err
	}
	return &data.Account, nil
}

// NetworkConfig returns the chain parameters advertised by the gateway.
func (p *Proxy) NetworkConfig(ctx context.Context) (*NetworkConfig, error) {
	var data networkConfigData
	if err := p.get(ctx, "/network/config", &data); err != nil {
		return nil, err
	}
	return &data.Config, nil
}

// SendTransaction submits a signed transaction and returns its hash.
func (p *Proxy) SendTransaction(ctx context.Context, signed *tx.Transaction) (string, error) {
	var data sendTxData
	if err := p.post(ctx, "/transaction/send", signed, &data); err != nil {
		return "", err
	}
	if data.TxHash == "" {
		return "", fmt.Errorf("gateway accepted transaction but returned no hash")
	}
	return data.TxHash, nil
}

// SendTransactions submits a batch of signed transactions. It returns the
// number accepted and the hashes keyed by the batch index the gateway uses.
func (p *Proxy) SendTransactions(ctx context.Context, signed []*tx.Transaction) (int, map[string]string, error) {
	var data sendMultipleData
	if err := p.post(ctx, "/transaction/send-multiple", signed, &data); err != nil {
		return 0, nil, err
	}
	return data.NumSent, data.TxHashes, nil
}

// TransactionStatus returns the processing status of a transaction hash.
func (p *Proxy) TransactionStatus(ctx context.Context, hash string) (string, error) {
	var data txStatusData
	if err := p.get(ctx, "/transaction/"+hash+"/status", &data); err != nil {
		return "", err
	}
	return data.Status, nil
}

func (p *Proxy) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return p.do(req, out)
}

func (p *Proxy) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return p.do(req, out)
}

func (p *Proxy) do(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, truncated, err := httputil.ReadAllWithLimit(resp.Body, maxResponseBytes)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if truncated {
		return fmt.Errorf("response from %s exceeds %d bytes", req.URL.Path, int64(maxResponseBytes))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= 400 {
			return &APIError{Status: resp.StatusCode, Message: bodySnippet(body)}
		}
		return fmt.Errorf("unmarshal response: %w", err)
	}

	if env.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: env.Error, Code: env.Code}
	}
	if resp.StatusCode >= 400 {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Code: env.Code}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

func bodySnippet(body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 512 {
		msg = msg[:512] + "...(truncated)"
	}
	return msg
}
