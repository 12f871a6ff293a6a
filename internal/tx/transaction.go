// Package tx builds, serializes and signs MultiversX transactions.
package tx

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
)

// Version is the transaction format version the toolkit emits.
const Version = 1

// Transaction is a MultiversX transaction. Field order matches the chain's
// canonical JSON layout, which doubles as the byte stream that gets signed.
type Transaction struct {
	Nonce     uint64 `json:"nonce"`
	Value     string `json:"value"`
	Receiver  string `json:"receiver"`
	Sender    string `json:"sender"`
	GasPrice  uint64 `json:"gasPrice"`
	GasLimit  uint64 `json:"gasLimit"`
	Data      []byte `json:"data,omitempty"`
	ChainID   string `json:"chainID"`
	Version   uint32 `json:"version"`
	Signature string `json:"signature,omitempty"`
}

// Params carries the network constants transactions are built with.
type Params struct {
	ChainID  string
	GasPrice uint64
	GasLimit uint64
}

// NewTransfer builds an unsigned native transfer of amount atto-EGLD.
func NewTransfer(sender, receiver wallet.Address, nonce uint64, amount *big.Int, p Params) *Transaction {
	return &Transaction{
		Nonce:    nonce,
		Value:    amount.String(),
		Receiver: receiver.Bech32(),
		Sender:   sender.Bech32(),
		GasPrice: p.GasPrice,
		GasLimit: p.GasLimit,
		ChainID:  p.ChainID,
		Version:  Version,
	}
}

// SerializeForSigning returns the canonical unsigned JSON bytes.
func (t *Transaction) SerializeForSigning() ([]byte, error) {
	unsigned := *t
	unsigned.Signature = ""
	data, err := json.Marshal(&unsigned)
	if err != nil {
		return nil, fmt.Errorf("serialize transaction: %w", err)
	}
	return data, nil
}

// Sign signs the transaction with the sender's secret key and attaches the
// signature as hex.
func (t *Transaction) Sign(sk wallet.SecretKey) error {
	payload, err := t.SerializeForSigning()
	if err != nil {
		return err
	}
	sig, err := sk.Sign(payload)
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	t.Signature = hex.EncodeToString(sig)
	return nil
}
