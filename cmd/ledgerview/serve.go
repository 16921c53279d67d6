package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerview/internal/api"
	"ledgerview/internal/config"
	"ledgerview/internal/export"
	"ledgerview/internal/projection"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve transaction lists and CSV exports over HTTP",
		RunE:  runServe,
	}

	addSourceFlags(cmd)
	cmd.Flags().String("listen", ":8080", "listen address")
	cmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (comma-separated)")
	cmd.Flags().Int("page-size", 10, "default transactions per page")
	cmd.Flags().Bool("quote", false, "quote exported CSV fields (RFC 4180)")
	cmd.Flags().Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", 30*time.Second, "HTTP write timeout")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
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

	server := api.NewServer(backend.source, backend.contacts, projection.New(loc), api.Options{
		CORSOrigins: cfg.CORSOrigins,
		PageSize:    cfg.PageSize,
		Decimals:    cfg.Decimals,
		CSV:         export.Options{Quote: cfg.Quote},
		Timeout:     cfg.WriteTimeout,
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      server.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", zap.String("addr", cfg.Listen), zap.Strings("cors_origins", cfg.CORSOrigins))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("http shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
