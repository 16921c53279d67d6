package postgres

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
)

//go:embed sql
var migrations embed.FS

// Migrate applies the embedded schema migrations that have not run yet.
func (s *Store) Migrate(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	source := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       "sql",
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := migrate.Exec(db, "postgres", source, migrate.Up)
		done <- result{n: n, err: err}
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("migration canceled: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return fmt.Errorf("apply migrations: %w", res.err)
		}
		logger.Info("applied migrations", zap.Int("count", res.n))
		return nil
	}
}
