package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ledgerview/internal/chain"
	"ledgerview/internal/config"
	"ledgerview/internal/contacts"
	"ledgerview/internal/ledger"
	"ledgerview/internal/storage/postgres"
)

const migrateTimeout = 5 * time.Minute

// ledgerBackend is an opened ledger source with its address book.
type ledgerBackend struct {
	source   ledger.Source
	contacts *contacts.Book
	store    *postgres.Store
}

func (b *ledgerBackend) Close() {
	if b.store != nil {
		b.store.Close()
	}
}

// openLedger opens the configured source. Contacts come from the config file
// and, for the postgres source, from the contacts table; the table wins.
func openLedger(ctx context.Context, cfg config.Common, logger *zap.Logger) (*ledgerBackend, error) {
	book := contacts.NewBook(nil)
	for address, name := range cfg.Contacts {
		book.Set(chain.NormalizeAddress(address), name)
	}

	switch cfg.Source {
	case config.SourcePostgres:
		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		stored, err := store.LoadContacts(ctx)
		if err != nil {
			store.Close()
			return nil, err
		}
		for address, name := range stored {
			book.Set(address, name)
		}
		logger.Info("ledger source", zap.String("source", cfg.Source), zap.Int("contacts", book.Len()))
		return &ledgerBackend{source: store, contacts: book, store: store}, nil
	default:
		logger.Info("ledger source", zap.String("source", cfg.Source), zap.String("path", cfg.Ledger), zap.Int("contacts", book.Len()))
		return &ledgerBackend{source: ledger.NewJSONLSource(cfg.Ledger, logger), contacts: book}, nil
	}
}

// openStore connects to Postgres and, unless disabled, applies pending
// migrations.
func openStore(ctx context.Context, cfg config.Common, logger *zap.Logger) (*postgres.Store, error) {
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if cfg.Automigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, migrateTimeout)
		defer cancel()
		if err := store.Migrate(migrateCtx, logger); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}
