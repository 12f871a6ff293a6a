// Package esdt builds and submits fungible token issuance calls against the
// ESDT system contract.
package esdt

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/tx"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
)

// SystemSCAddress is the ESDT system contract that handles token issuance.
const SystemSCAddress = "erd1qqqqqqqqqqqqqqqpqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqzllls8a5w6u"

// IssuanceGasLimit covers the issue call on the system contract.
const IssuanceGasLimit = 60_000_000

// issuanceCostAtto is the protocol fee for issuing a token, 0.05 EGLD.
const issuanceCostAtto = "50000000000000000"

// IssuanceCost returns the protocol fee charged per issued token.
func IssuanceCost() *big.Int {
	cost, _ := new(big.Int).SetString(issuanceCostAtto, 10)
	return cost
}

// Properties are the control flags attached to a token at issuance.
type Properties struct {
	CanFreeze          bool
	CanWipe            bool
	CanPause           bool
	CanMint            bool
	CanBurn            bool
	CanChangeOwner     bool
	CanUpgrade         bool
	CanAddSpecialRoles bool
}

// AllProperties returns every control flag enabled.
func AllProperties() Properties {
	return Properties{
		CanFreeze:          true,
		CanWipe:            true,
		CanPause:           true,
		CanMint:            true,
		CanBurn:            true,
		CanChangeOwner:     true,
		CanUpgrade:         true,
		CanAddSpecialRoles: true,
	}
}

// pairs lists the flags in the order the system contract expects them.
func (p Properties) pairs() [][2]string {
	return [][2]string{
		{"canFreeze", boolArg(p.CanFreeze)},
		{"canWipe", boolArg(p.CanWipe)},
		{"canPause", boolArg(p.CanPause)},
		{"canMint", boolArg(p.CanMint)},
		{"canBurn", boolArg(p.CanBurn)},
		{"canChangeOwner", boolArg(p.CanChangeOwner)},
		{"canUpgrade", boolArg(p.CanUpgrade)},
		{"canAddSpecialRoles", boolArg(p.CanAddSpecialRoles)},
	}
}

func boolArg(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// IssueRequest describes one fungible token issuance.
type IssueRequest struct {
	Name          string
	Ticker        string
	InitialSupply *big.Int
	Decimals      uint32
	Properties    Properties
}

// Payload renders the issue call data: "issue" plus @-joined hex arguments,
// numeric arguments padded to an even number of hex digits.
func (r IssueRequest) Payload() []byte {
	parts := []string{
		"issue",
		hex.EncodeToString([]byte(r.Name)),
		hex.EncodeToString([]byte(r.Ticker)),
		evenHex(r.InitialSupply),
		evenHex(big.NewInt(int64(r.Decimals))),
	}
	for _, pair := range r.Properties.pairs() {
		parts = append(parts,
			hex.EncodeToString([]byte(pair[0])),
			hex.EncodeToString([]byte(pair[1])),
		)
	}
	return []byte(strings.Join(parts, "@"))
}

func evenHex(v *big.Int) string {
	s := v.Text(16)
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return s
}

// NewIssueTransaction builds the unsigned issuance transaction carrying the
// protocol fee to the system contract.
func NewIssueTransaction(sender wallet.Address, nonce uint64, req IssueRequest, chainID string, gasPrice uint64) (*tx.Transaction, error) {
	receiver, err := wallet.AddressFromBech32(SystemSCAddress)
	if err != nil {
		return nil, fmt.Errorf("parse system contract address: %w", err)
	}
	transfer := tx.NewTransfer(sender, receiver, nonce, IssuanceCost(), tx.Params{
		ChainID:  chainID,
		GasPrice: gasPrice,
		GasLimit: IssuanceGasLimit,
	})
	transfer.Data = req.Payload()
	return transfer, nil
}
