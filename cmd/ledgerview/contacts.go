package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ledgerview/internal/chain"
	"ledgerview/internal/config"
)

func newContactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage the address book kept in Postgres",
	}

	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Write the configured contacts into the contacts table",
		RunE:  runContactsImport,
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the contacts table",
		RunE:  runContactsList,
	}
	for _, sub := range []*cobra.Command{importCmd, listCmd} {
		sub.Flags().String("pg-dsn", "", "Postgres DSN")
		sub.Flags().Bool("automigrate", true, "apply pending Postgres migrations on start")
		sub.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
		cmd.AddCommand(sub)
	}
	return cmd
}

func runContactsImport(cmd *cobra.Command, _ []string) error {
	return withContactStore(cmd, func(ctx context.Context, cfg config.ContactsConfig, store contactStore, logger *zap.Logger) error {
		n, err := importContacts(ctx, store, cfg.Contacts)
		if err != nil {
			return err
		}
		logger.Info("contacts imported", zap.Int("count", n))
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "imported %d contacts\n", n)
		return err
	})
}

func runContactsList(cmd *cobra.Command, _ []string) error {
	return withContactStore(cmd, func(ctx context.Context, _ config.ContactsConfig, store contactStore, _ *zap.Logger) error {
		stored, err := store.LoadContacts(ctx)
		if err != nil {
			return err
		}
		return writeContacts(cmd.OutOrStdout(), stored)
	})
}

type contactStore interface {
	LoadContacts(ctx context.Context) (map[string]string, error)
	UpsertContacts(ctx context.Context, contacts map[string]string) error
}

func withContactStore(cmd *cobra.Command, fn func(context.Context, config.ContactsConfig, contactStore, *zap.Logger) error) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadContacts(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Common, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, cfg, store, logger)
}

// importContacts upserts the configured entries under their checksummed
// addresses. Entries without a name are skipped.
func importContacts(ctx context.Context, store contactStore, entries map[string]string) (int, error) {
	normalized := make(map[string]string, len(entries))
	for address, name := range entries {
		address = chain.NormalizeAddress(address)
		name = strings.TrimSpace(name)
		if address == "" || name == "" {
			continue
		}
		normalized[address] = name
	}
	if len(normalized) == 0 {
		return 0, nil
	}
	if err := store.UpsertContacts(ctx, normalized); err != nil {
		return 0, err
	}
	return len(normalized), nil
}

func writeContacts(w io.Writer, entries map[string]string) error {
	addresses := make([]string, 0, len(entries))
	for address := range entries {
		addresses = append(addresses, address)
	}
	sort.Strings(addresses)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ADDRESS\tNAME"); err != nil {
		return err
	}
	for _, address := range addresses {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", address, entries[address]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
