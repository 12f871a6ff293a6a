// Package main implements the wintertokens command. It reads the wallet run
// artifact, loads each account's PEM credential, and issues a batch of ESDT
// tokens from every account.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/cli"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/config"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/esdt"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/gateway"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/orchestrator"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/internal/wallet"
	"github.com/mariusCristianPop/My-MultiversX-Winter-Challenges/pkg/logger"
)

const (
	exitOK         = 0
	exitConfig     = 1
	exitCredential = 2
	exitIssuance   = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	network := flag.String("network", "", "network profile from the networks file (default from NETWORK or devnet)")
	envFile := flag.String("env-file", ".env", "path to the env file with run settings")
	walletsDir := flag.String("wallets-dir", "", "directory holding the wallet files and run artifact")
	artifact := flag.String("artifact", "", "artifact file name inside the wallets directory")
	tokens := flag.Int("tokens-per-account", 0, "ESDT tokens to issue per account")
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
	if *walletsDir != "" {
		cfg.OutputDir = *walletsDir
	}
	if *artifact != "" {
		cfg.AccountsInfoFile = *artifact
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log, logPath, err := logger.NewRun("wintertokens", cfg.OutputDir, cfg.LogLevel)
	if err != nil {
		cli.Error(fmt.Sprintf("logging: %v", err))
		return exitConfig
	}
	defer log.Close()

	log.Info("starting token issuance run",
		"proxy", cfg.ProxyURL,
		"chain_id", cfg.ChainID,
		"artifact", cfg.AccountsInfoPath(),
		"log_file", logPath,
	)

	holders, err := orchestrator.LoadHolders(cfg.OutputDir, cfg.AccountsInfoFile, log)
	if err != nil {
		log.WithError(err).Error("loading holders failed")
		if errors.Is(err, wallet.ErrCredentialNotFound) {
			cli.Error(fmt.Sprintf("account credential: %v", err))
			return exitCredential
		}
		if errors.Is(err, fs.ErrNotExist) {
			cli.Error(fmt.Sprintf("no wallet artifact at %s, run shardwallets first", cfg.AccountsInfoPath()))
			return exitConfig
		}
		cli.Error(fmt.Sprintf("wallet artifact: %v", err))
		return exitConfig
	}

	proxy, err := gateway.New(gateway.Config{BaseURL: cfg.ProxyURL})
	if err != nil {
		cli.Error(fmt.Sprintf("gateway client: %v", err))
		return exitConfig
	}

	issuerCfg := esdt.Config{
		ChainID:  cfg.ChainID,
		GasPrice: cfg.GasPrice,
		Logger:   log,
	}
	if *tokens > 0 {
		issuerCfg.TokensPerAccount = *tokens
	}
	issuer, err := esdt.New(proxy, issuerCfg)
	if err != nil {
		cli.Error(fmt.Sprintf("issuer: %v", err))
		return exitConfig
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli.Info(fmt.Sprintf("issuing tokens from %d accounts via %s", len(holders), cfg.ProxyURL))
	bar := cli.NewProgressBar(len(holders), "accounts")

	var results []esdt.Result
	var runErr error
	for _, holder := range holders {
		res, err := issuer.IssueAll(ctx, []esdt.Holder{holder})
		results = append(results, res...)
		bar.Increment()
		if err != nil {
			runErr = err
			break
		}
	}
	bar.Finish()

	issued := 0
	skipped := 0
	for _, res := range results {
		if res.Err != nil {
			skipped++
			log.WithError(res.Err).Warn("account skipped", "address", res.Address)
			continue
		}
		issued += len(res.TxHashes)
		for i, hash := range res.TxHashes {
			if i < len(res.Tokens) {
				log.Info("issuance submitted", "address", res.Address, "token", res.Tokens[i], "tx_hash", hash)
			}
		}
	}

	if runErr != nil {
		cli.Error(fmt.Sprintf("issuance interrupted: %v", runErr))
		return exitIssuance
	}
	if skipped > 0 {
		cli.Warning(fmt.Sprintf("%d of %d accounts skipped, see the run log for details", skipped, len(holders)))
	}
	cli.Success(fmt.Sprintf("submitted %d token issuances from %d accounts", issued, len(holders)-skipped))
	return exitOK
}
