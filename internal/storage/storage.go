package storage

import (
	"context"

	"ledgerview/internal/model"
)

// Sink defines a destination for indexed ledger events.
// Implementations must tolerate the same event being written twice.
type Sink interface {
	PutEventBatch(ctx context.Context, events []model.LedgerEvent) error
}
