package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerview/internal/chain"
	"ledgerview/internal/config"
	"ledgerview/internal/export"
	"ledgerview/internal/ledger"
	"ledgerview/internal/projection"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write an account's complete history to transactions_<date>.csv",
		RunE:  runExport,
	}

	addSourceFlags(cmd)
	cmd.Flags().String("account", "", "reference account address")
	cmd.Flags().String("symbol", "", "only export this asset")
	cmd.Flags().String("out-dir", ".", "directory for the CSV file")
	cmd.Flags().Bool("quote", false, "quote fields (RFC 4180) instead of a plain comma join")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadExport(cfgFile, cmd.Flags())
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

	exporter := export.NewExporter(backend.source, projection.New(loc), logger,
		export.WithOptions(export.Options{Quote: cfg.Quote}),
	)
	filter := ledger.Filter{Account: chain.NormalizeAddress(cfg.Account), Symbol: cfg.Symbol}

	doc, ok, err := exporter.Export(ctx, filter)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "no transactions to export")
		return nil
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(cfg.OutDir, doc.Name)
	if err := os.WriteFile(path, doc.Body, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	logger.Info("export written", zap.String("path", path), zap.Int("rows", doc.Rows))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
