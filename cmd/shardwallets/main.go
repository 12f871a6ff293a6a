// Package main implements the shardwallets command. It generates devnet
// wallets spread evenly across the network shards, funds each one from a
// single funding wallet, and records the run in an accounts artifact.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/cli"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/config"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/gateway"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/generator"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/orchestrator"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/pkg/logger"
)

const (
	exitOK          = 0
	exitConfig      = 1
	exitCredential  = 2
	exitGeneration  = 3
	exitPersistence = 4
)

func main() {
	os.Exit(run())
}

func run() int {
	network := flag.String("network", "", "network profile from the networks file (default from NETWORK or devnet)")
	envFile := flag.String("env-file", ".env", "path to the env file with run settings")
	proxyURL := flag.String("proxy-url", "", "gateway URL, overrides the network profile")
	outputDir := flag.String("output-dir", "", "directory for wallet files and the run artifact")
	fundingPEM := flag.String("funding-pem", "", "PEM file holding the funding wallet key")
	password := flag.String("password", "", "keystore password, overrides WALLET_PASSWORD")
	amount := flag.String("amount", "", "atto-EGLD to transfer to each generated account")
	perShard := flag.Int("accounts-per-shard", 0, "accounts to generate per shard")
	concurrency := flag.Int("concurrency", 0, "parallel funding transfers, 1 means sequential")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn or error")
	flag.Parse()

	if *network != "" {
		os.Setenv(config.EnvNetwork, *network)
	}

	cfg, err := config.LoadWithEnvFile(*envFile)
	if err != nil {
		cli.Error(fmt.Sprintf("configuration: %v", err))
		return exitConfig
	}
	if *proxyURL != "" {
		cfg.ProxyURL = *proxyURL
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *fundingPEM != "" {
		cfg.FundingWalletPEM = *fundingPEM
	}
	if *password != "" {
		cfg.WalletPassword = *password
	}
	if *amount != "" {
		v, ok := new(big.Int).SetString(*amount, 10)
		if !ok {
			cli.Error(fmt.Sprintf("funding amount %q is not a base-10 integer", *amount))
			return exitConfig
		}
		cfg.FundingAmount = v
	}
	if *perShard > 0 {
		cfg.AccountsPerShard = *perShard
	}
	if *concurrency > 0 {
		cfg.FundingConcurrency = *concurrency
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log, logPath, err := logger.NewRun("shardwallets", cfg.OutputDir, cfg.LogLevel)
	if err != nil {
		cli.Error(fmt.Sprintf("logging: %v", err))
		return exitConfig
	}
	defer log.Close()

	log.Info("starting wallet run",
		"proxy", cfg.ProxyURL,
		"chain_id", cfg.ChainID,
		"shards", cfg.NumShards,
		"accounts_per_shard", cfg.AccountsPerShard,
		"log_file", logPath,
	)

	proxy, err := gateway.New(gateway.Config{BaseURL: cfg.ProxyURL})
	if err != nil {
		cli.Error(fmt.Sprintf("gateway client: %v", err))
		return exitConfig
	}

	orch, err := orchestrator.New(cfg, proxy, log)
	if err != nil {
		cli.Error(fmt.Sprintf("configuration: %v", err))
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := orch.Run(ctx)
	if err != nil {
		log.WithError(err).Error("run failed")
		switch {
		case errors.Is(err, wallet.ErrCredentialNotFound), errors.Is(err, wallet.ErrCredentialInvalid):
			cli.Error(fmt.Sprintf("funding credential: %v", err))
			return exitCredential
		case errors.Is(err, generator.ErrShardQuotaUnreachable):
			cli.Error(fmt.Sprintf("generation: %v", err))
			return exitGeneration
		case errors.Is(err, orchestrator.ErrPersistence):
			cli.Error(fmt.Sprintf("persistence: %v", err))
			return exitPersistence
		default:
			cli.Error(fmt.Sprintf("run failed: %v", err))
			return exitConfig
		}
	}

	if summary.FundingFailed > 0 {
		cli.Warning(fmt.Sprintf("%d of %d accounts were not funded, see %s for details",
			summary.FundingFailed, summary.Accounts, cfg.AccountsInfoPath()))
	} else {
		cli.Success(fmt.Sprintf("funded all %d accounts", summary.Funded))
	}
	cli.Success(fmt.Sprintf("%d wallets and %s written to %s in %s",
		summary.Accounts, cfg.AccountsInfoFile, cfg.OutputDir, cli.FormatDuration(summary.Elapsed)))
	return exitOK
}
