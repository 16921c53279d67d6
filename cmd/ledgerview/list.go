package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerview/internal/chain"
	"ledgerview/internal/config"
	"ledgerview/internal/ledger"
	"ledgerview/internal/model"
	"ledgerview/internal/presenter"
	"ledgerview/internal/projection"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of an account's transactions",
		RunE:  runList,
	}

	addSourceFlags(cmd)
	cmd.Flags().String("account", "", "reference account address")
	cmd.Flags().String("symbol", "", "only show this asset")
	cmd.Flags().String("cursor", "", "page cursor printed by a previous call")
	cmd.Flags().Int("page-size", ledger.DefaultPageSize, "transactions per page")

	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadList(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := openLedger(ctx, cfg.Common, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	filter := ledger.Filter{Account: chain.NormalizeAddress(cfg.Account), Symbol: cfg.Symbol}
	page, err := backend.source.FetchPage(ctx, filter, model.Cursor(cfg.Cursor), cfg.PageSize)
	if errors.Is(err, ledger.ErrInvalidCursor) {
		return err
	}
	if err != nil {
		logger.Warn("fetch page failed", zap.String("account", filter.Account), zap.Error(err))
	}

	list := presenter.NewList(filter.Account, backend.contacts, projection.New(loc), cfg.Decimals)
	return presenter.Render(cmd.OutOrStdout(), list.Build(presenter.QueryState{Err: err, Page: page}))
}
