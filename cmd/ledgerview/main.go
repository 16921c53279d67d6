package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "ledgerview",
		Short:        "Wallet transaction history: list, export, serve and sync",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	root.AddCommand(newListCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newSyncCmd())
	root.AddCommand(newContactsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addSourceFlags registers the flags shared by every command that reads a ledger.
func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "jsonl", "ledger source (jsonl, postgres)")
	cmd.Flags().String("ledger", "./data/events.jsonl", "ledger JSONL path")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().Bool("automigrate", true, "apply pending Postgres migrations on start")
	cmd.Flags().String("timezone", "Local", "time zone for dates and times (IANA name)")
	cmd.Flags().Int32("decimals", 9, "token decimals for events that do not record their own")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
