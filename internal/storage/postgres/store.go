package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ledgerview/internal/ledger"
	"ledgerview/internal/model"
)

// Store provides Postgres persistence for ledger events, contacts and
// indexer checkpoints. It is both a ledger.Source and a storage.Sink.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// PutEventBatch inserts events; ids already present are left untouched.
func (s *Store) PutEventBatch(ctx context.Context, events []model.LedgerEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i, ev := range events {
		if ev == nil {
			return fmt.Errorf("insert ledger event: nil event at index %d", i)
		}
		row := rowFromEvent(ev)
		batch.Queue(`
			INSERT INTO ledger_events (
				id, kind, occurred_at, from_addr, to_addr, amount, amounts, symbol, decimals
			) VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::jsonb, $8, $9)
			ON CONFLICT (id) DO NOTHING
		`,
			row.ID,
			row.Kind,
			row.OccurredAt,
			row.From,
			row.To,
			row.Amount,
			row.Amounts,
			row.Symbol,
			row.Decimals,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert ledger event: %w", err)
		}
	}
	return nil
}

// FetchPage returns one page of the account's events, newest first.
func (s *Store) FetchPage(ctx context.Context, filter ledger.Filter, cursor model.Cursor, size int) (model.Page, error) {
	if size <= 0 {
		size = ledger.DefaultPageSize
	}
	offset, err := ledger.DecodeCursor(cursor)
	if err != nil {
		return model.Page{}, err
	}

	where, args := filterClause(filter)
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM ledger_events WHERE `+where, args...).Scan(&total); err != nil {
		return model.Page{}, fmt.Errorf("count ledger events: %w", err)
	}
	if offset > 0 && offset >= total {
		return model.Page{}, fmt.Errorf("%w: offset %d beyond %d events", ledger.ErrInvalidCursor, offset, total)
	}

	query := selectEvents + ` WHERE ` + where + ` ORDER BY occurred_at DESC, id LIMIT $3 OFFSET $4`
	events, err := s.queryEvents(ctx, query, append(args, size, offset)...)
	if err != nil {
		return model.Page{}, err
	}
	return ledger.NewPage(events, total, offset, size), nil
}

// FetchAll returns every event of the account, newest first.
func (s *Store) FetchAll(ctx context.Context, filter ledger.Filter) ([]model.LedgerEvent, error) {
	where, args := filterClause(filter)
	return s.queryEvents(ctx, selectEvents+` WHERE `+where+` ORDER BY occurred_at DESC, id`, args...)
}

const selectEvents = `
	SELECT id, kind, occurred_at, from_addr, to_addr,
		coalesce(amount::text, ''), coalesce(amounts::text, ''), symbol, decimals
	FROM ledger_events`

func filterClause(filter ledger.Filter) (string, []any) {
	where := `(from_addr = $1 OR to_addr = $1 OR coalesce(amounts ? $1, false))
		AND ($2 = '' OR lower(symbol) = lower($2))`
	return where, []any{filter.Account, filter.Symbol}
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]model.LedgerEvent, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger events: %w", err)
	}
	defer rows.Close()

	var events []model.LedgerEvent
	for rows.Next() {
		var row eventRow
		if err := rows.Scan(&row.ID, &row.Kind, &row.OccurredAt, &row.From, &row.To, &row.Amount, &row.Amounts, &row.Symbol, &row.Decimals); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		ev, err := row.event()
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read ledger events: %w", err)
	}
	return events, nil
}

// LoadContacts returns the address book as address -> name.
func (s *Store) LoadContacts(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT address, name FROM contacts`)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var address, name string
		if err := rows.Scan(&address, &name); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		out[address] = name
	}
	return out, rows.Err()
}

// UpsertContacts inserts or renames contacts, keyed by address.
func (s *Store) UpsertContacts(ctx context.Context, contacts map[string]string) error {
	if len(contacts) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for address, name := range contacts {
		batch.Queue(`
			INSERT INTO contacts (address, name, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (address) DO UPDATE
			SET name = EXCLUDED.name, updated_at = now()
		`, address, name)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range contacts {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert contact: %w", err)
		}
	}
	return nil
}

// LoadState returns last_processed_block for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var block int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_block FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&block); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(block), true, nil
}

// SaveState upserts last_processed_block for a name.
func (s *Store) SaveState(ctx context.Context, name string, block uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed_block, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_block = EXCLUDED.last_processed_block, updated_at = now()
	`, name, int64(block))
	return err
}

// eventRow is the column layout of ledger_events. Amount and Amounts travel
// as text so numeric precision is never lost in transit.
type eventRow struct {
	ID         string
	Kind       string
	OccurredAt time.Time
	From       string
	To         string
	Amount     *string
	Amounts    *string
	Symbol     string
	Decimals   *int32
}
