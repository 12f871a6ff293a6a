package gateway

import (
	"encoding/json"
	"fmt"
)

// envelope is the proxy's uniform response wrapper.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
	Code  string          `json:"code"`
}

// APIError is a non-successful proxy response.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway request failed: %s (status %d)", e.Message, e.Status)
}

// Account holds the on-chain state of an address.
type Account struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
	Balance string `json:"balance"`
}

// NetworkConfig holds the chain parameters the toolkit reads at startup.
type NetworkConfig struct {
	ChainID     string `json:"erd_chain_id"`
	MinGasLimit uint64 `json:"erd_min_gas_limit"`
	MinGasPrice uint64 `json:"erd_min_gas_price"`
	NumShards   uint32 `json:"erd_num_shards_without_meta"`
}

type accountData struct {
	Account Account `json:"account"`
}

type networkConfigData struct {
	Config NetworkConfig `json:"config"`
}

type sendTxData struct {
	TxHash string `json:"txHash"`
}

type sendMultipleData struct {
	NumSent  int               `json:"numOfSentTxs"`
	TxHashes map[string]string `json:"txsHashes"`
}

type txStatusData struct {
	Status string `json:"status"`
}
