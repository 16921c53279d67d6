package ledger

import (
	"context"

	"ledgerview/internal/model"
)

// Memory is a Source over a fixed slice of events. Err, when set, is returned
// by every fetch.
type Memory struct {
	Events []model.LedgerEvent
	Err    error
}

func (m *Memory) FetchPage(ctx context.Context, filter Filter, cursor model.Cursor, size int) (model.Page, error) {
	if err := m.check(ctx); err != nil {
		return model.Page{}, err
	}
	return Paginate(Select(m.Events, filter), cursor, size)
}

func (m *Memory) FetchAll(ctx context.Context, filter Filter) ([]model.LedgerEvent, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}
	return Select(m.Events, filter), nil
}

func (m *Memory) check(ctx context.Context) error {
	if m.Err != nil {
		return m.Err
	}
	return ctx.Err()
}
