// Package config assembles the toolkit's runtime settings from built-in
// defaults, an optional networks.yaml profile file, a .env file, and process
// environment variables, in that order.
package config

import (
	"fmt"
	"math/big"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Environment variable names. Durations accept either Go duration syntax or
// a bare number of seconds.
const (
	EnvNetwork             = "NETWORK"
	EnvNetworksFile        = "NETWORKS_FILE"
	EnvProxyURL            = "PROXY_URL"
	EnvChainID             = "CHAIN_ID"
	EnvNumShards           = "NUM_SHARDS"
	EnvAccountsPerShard    = "NUM_ACCOUNTS_PER_SHARD"
	EnvMaxDraws            = "MAX_DRAWS"
	EnvFundingAmount       = "FUNDING_AMOUNT"
	EnvGasLimit            = "GAS_LIMIT"
	EnvGasPrice            = "GAS_PRICE"
	EnvOutputDir           = "OUTPUT_DIR"
	EnvFundingWalletPEM    = "FUNDING_WALLET_PEM"
	EnvAccountsInfoFile    = "ACCOUNTS_INFO_FILE"
	EnvWalletPassword      = "WALLET_PASSWORD"
	EnvTransactionDelay    = "TRANSACTION_DELAY"
	EnvFundingCallTimeout  = "FUNDING_CALL_TIMEOUT"
	EnvFundingConcurrency  = "FUNDING_CONCURRENCY"
	EnvPostFundingWait     = "POST_FUNDING_WAIT"
	EnvBalanceQueryDelay   = "BALANCE_QUERY_DELAY"
	EnvBalanceQueryRetries = "BALANCE_QUERY_RETRIES"
	EnvLogLevel            = "LOG_LEVEL"
)

// defaultFundingAmountAtto is 0.01 EGLD.
const defaultFundingAmountAtto = "10000000000000000"

// Config holds every setting for a generation or issuance run.
type Config struct {
	ProxyURL  string
	ChainID   string
	NumShards uint32

	AccountsPerShard int
	MaxDraws         int

	FundingAmount *big.Int // atto-EGLD per account
	GasLimit      uint64
	GasPrice      uint64

	OutputDir        string
	FundingWalletPEM string
	AccountsInfoFile string
	WalletPassword   string

	TransactionDelay    time.Duration
	FundingCallTimeout  time.Duration
	FundingConcurrency  int
	PostFundingWait     time.Duration
	BalanceQueryDelay   time.Duration
	BalanceQueryRetries int

	LogLevel string
}

// Default returns the built-in configuration for the devnet profile.
func Default() *Config {
	amount, _ := new(big.Int).SetString(defaultFundingAmountAtto, 10)
	return &Config{
		ProxyURL:            "https://devnet-gateway.multiversx.com",
		ChainID:             "D",
		NumShards:           3,
		AccountsPerShard:    3,
		MaxDraws:            10000,
		FundingAmount:       amount,
		GasLimit:            50000,
		GasPrice:            1000000000,
		OutputDir:           "devnet_wallets",
		FundingWalletPEM:    "funding_wallet.pem",
		AccountsInfoFile:    "accounts_info.json",
		TransactionDelay:    time.Second,
		FundingCallTimeout:  30 * time.Second,
		FundingConcurrency:  1,
		PostFundingWait:     25 * time.Second,
		BalanceQueryDelay:   2 * time.Second,
		BalanceQueryRetries: 3,
		LogLevel:            "info",
	}
}

// Load builds the configuration from defaults, the selected network profile,
// .env, and the process environment.
func Load() (*Config, error) {
	return LoadWithEnvFile(".env")
}

// LoadWithEnvFile is Load with an explicit .env path. A missing env file is
// not an error.
func LoadWithEnvFile(envFile string) (*Config, error) {
	_ = godotenv.Load(envFile)

	cfg := Default()

	networksFile := os.Getenv(EnvNetworksFile)
	if networksFile == "" {
		networksFile = "networks.yaml"
	}
	profiles := LoadNetworksOrDefault(networksFile)
	profile, err := profiles.Profile(os.Getenv(EnvNetwork))
	if err != nil {
		return nil, err
	}
	cfg.ProxyURL = profile.ProxyURL
	cfg.ChainID = profile.ChainID
	cfg.NumShards = profile.NumShards

	var errs *multierror.Error
	envString(EnvProxyURL, &cfg.ProxyURL)
	envString(EnvChainID, &cfg.ChainID)
	envUint32(EnvNumShards, &cfg.NumShards, &errs)
	envInt(EnvAccountsPerShard, &cfg.AccountsPerShard, &errs)
	envInt(EnvMaxDraws, &cfg.MaxDraws, &errs)
	envBigInt(EnvFundingAmount, &cfg.FundingAmount, &errs)
	envUint64(EnvGasLimit, &cfg.GasLimit, &errs)
	envUint64(EnvGasPrice, &cfg.GasPrice, &errs)
	envString(EnvOutputDir, &cfg.OutputDir)
	envString(EnvFundingWalletPEM, &cfg.FundingWalletPEM)
	envString(EnvAccountsInfoFile, &cfg.AccountsInfoFile)
	envString(EnvWalletPassword, &cfg.WalletPassword)
	envDuration(EnvTransactionDelay, &cfg.TransactionDelay, &errs)
	envDuration(EnvFundingCallTimeout, &cfg.FundingCallTimeout, &errs)
	envInt(EnvFundingConcurrency, &cfg.FundingConcurrency, &errs)
	envDuration(EnvPostFundingWait, &cfg.PostFundingWait, &errs)
	envDuration(EnvBalanceQueryDelay, &cfg.BalanceQueryDelay, &errs)
	envInt(EnvBalanceQueryRetries, &cfg.BalanceQueryRetries, &errs)
	envString(EnvLogLevel, &cfg.LogLevel)

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	var errs *multierror.Error

	u, err := url.Parse(c.ProxyURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = multierror.Append(errs, fmt.Errorf("proxy URL %q is not a valid http(s) URL", c.ProxyURL))
	}
	if c.ChainID == "" {
		errs = multierror.Append(errs, fmt.Errorf("chain ID is required"))
	}
	if c.NumShards < 1 {
		errs = multierror.Append(errs, fmt.Errorf("number of shards must be at least 1"))
	}
	if c.AccountsPerShard < 1 {
		errs = multierror.Append(errs, fmt.Errorf("accounts per shard must be at least 1"))
	}
	if c.MaxDraws < c.AccountsPerShard*int(c.NumShards) {
		errs = multierror.Append(errs, fmt.Errorf("max draws %d cannot fill %d accounts", c.MaxDraws, c.AccountsPerShard*int(c.NumShards)))
	}
	if c.GasLimit == 0 {
		errs = multierror.Append(errs, fmt.Errorf("gas limit is required"))
	}
	if c.GasPrice == 0 {
		errs = multierror.Append(errs, fmt.Errorf("gas price is required"))
	}
	if c.OutputDir == "" {
		errs = multierror.Append(errs, fmt.Errorf("output directory is required"))
	}
	if c.AccountsInfoFile == "" {
		errs = multierror.Append(errs, fmt.Errorf("accounts info file name is required"))
	}
	if c.FundingConcurrency < 1 {
		errs = multierror.Append(errs, fmt.Errorf("funding concurrency must be at least 1"))
	}
	if c.BalanceQueryRetries < 1 {
		errs = multierror.Append(errs, fmt.Errorf("balance query retries must be at least 1"))
	}
	return errs.ErrorOrNil()
}

// ValidateGeneration additionally checks the settings only the wallet
// generation run needs.
func (c *Config) ValidateGeneration() error {
	var errs *multierror.Error
	if err := c.Validate(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if c.FundingAmount == nil || c.FundingAmount.Sign() <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("funding amount must be positive"))
	}
	if c.FundingWalletPEM == "" {
		errs = multierror.Append(errs, fmt.Errorf("funding wallet PEM path is required"))
	}
	if c.WalletPassword == "" {
		errs = multierror.Append(errs, fmt.Errorf("%s is required to encrypt the generated keystores", EnvWalletPassword))
	}
	return errs.ErrorOrNil()
}

// AccountsInfoPath is the artifact location under the output directory.
func (c *Config) AccountsInfoPath() string {
	return filepath.Join(c.OutputDir, c.AccountsInfoFile)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int, errs **multierror.Error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("parse %s: %w", key, err))
		return
	}
	*dst = parsed
}

func envUint32(key string, dst *uint32, errs **multierror.Error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("parse %s: %w", key, err))
		return
	}
	*dst = uint32(parsed)
}

func envUint64(key string, dst *uint64, errs **multierror.Error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("parse %s: %w", key, err))
		return
	}
	*dst = parsed
}

func envBigInt(key string, dst **big.Int, errs **multierror.Error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	parsed, ok := new(big.Int).SetString(v, 10)
	if !ok {
		*errs = multierror.Append(*errs, fmt.Errorf("parse %s: %q is not a base-10 integer", key, v))
		return
	}
	*dst = parsed
}

// envDuration accepts Go duration syntax ("1500ms") or bare seconds ("5").
func envDuration(key string, dst *time.Duration, errs **multierror.Error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if parsed, err := time.ParseDuration(v); err == nil {
		*dst = parsed
		return
	}
	seconds, err := strconv.Atoi(v)
	if err != nil {
		*errs = multierror.Append(*errs, fmt.Errorf("parse %s: %q is neither a duration nor seconds", key, v))
		return
	}
	*dst = time.Duration(seconds) * time.Second
}
