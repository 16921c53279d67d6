package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerview/internal/chain"
	"ledgerview/internal/config"
	"ledgerview/internal/indexer"
	"ledgerview/internal/storage"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Index an account's ERC20 transfers into the ledger",
		RunE:  runSync,
	}

	cmd.Flags().String("source", "jsonl", "ledger sink (jsonl, postgres)")
	cmd.Flags().String("ledger", "./data/events.jsonl", "ledger JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Bool("automigrate", true, "apply pending Postgres migrations on start")
	cmd.Flags().String("rpc", "", "EVM RPC URL")
	cmd.Flags().String("account", "", "account address to sync")
	cmd.Flags().StringSlice("token", nil, "token contract addresses (comma-separated, empty means all)")
	cmd.Flags().Uint64("from", 0, "start block (inclusive)")
	cmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	cmd.Flags().Uint64("batch-size", 2000, "blocks per batch")
	cmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path (jsonl sink)")
	cmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	account, err := indexer.ParseAccount(cfg.Account)
	if err != nil {
		return err
	}
	tokens, err := indexer.ParseAddresses(cfg.Tokens)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var (
		sink       storage.Sink
		target     string
		checkpoint indexer.CheckpointStore = indexer.NoCheckpoint{}
	)
	switch cfg.Source {
	case config.SourcePostgres:
		store, err := openStore(ctx, cfg.Common, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		sink = store
		target = "postgres"
		if cfg.CheckpointEnabled {
			checkpoint = indexer.NewStateCheckpoint(store, account.Hex())
		}
	default:
		jsonl := storage.NewJsonlStorage(cfg.Ledger)
		sink = jsonl
		target = jsonl.Path()
		if cfg.CheckpointEnabled {
			checkpoint = indexer.NewFileCheckpoint(cfg.Checkpoint, account.Hex())
		}
	}

	runner := indexer.NewRunner(indexer.RunConfig{
		Account:   account,
		Tokens:    tokens,
		FromBlock: cfg.FromBlock,
		ToBlock:   cfg.ToBlock,
		BatchSize: cfg.BatchSize,
		Retry:     indexer.RetryPolicy{MaxRetries: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
	}, chainClient, chain.NewTokenCache(chainClient, logger), sink, checkpoint, logger)

	logger.Info("sync start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("account", account.Hex()),
		zap.Int("tokens", len(tokens)),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.String("sink", cfg.Source),
		zap.String("target", target),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
	)

	return runner.Run(ctx)
}
