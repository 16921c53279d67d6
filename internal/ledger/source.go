package ledger

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"ledgerview/internal/model"
)

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// ErrInvalidCursor is returned when a cursor was not issued by this package
// or points past the end of the result set.
var ErrInvalidCursor = errors.New("invalid cursor")

// Filter selects the events of one account, optionally for a single asset.
type Filter struct {
	Account string
	Symbol  string
}

// Matches reports whether ev belongs to the filtered account and asset.
func (f Filter) Matches(ev model.LedgerEvent) bool {
	if ev == nil || !ev.Involves(f.Account) {
		return false
	}
	return f.Symbol == "" || strings.EqualFold(ev.EventSymbol(), f.Symbol)
}

// Source is the remote ledger client: a paginated view for browsing and a
// complete fetch for export.
type Source interface {
	FetchPage(ctx context.Context, filter Filter, cursor model.Cursor, size int) (model.Page, error)
	FetchAll(ctx context.Context, filter Filter) ([]model.LedgerEvent, error)
}

const cursorPrefix = "o:"

// EncodeCursor turns a row offset into an opaque cursor.
func EncodeCursor(offset int) model.Cursor {
	return model.Cursor(base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset))))
}

// DecodeCursor returns the row offset of a cursor; the empty cursor is offset 0.
func DecodeCursor(cursor model.Cursor) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(string(cursor))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	text := string(raw)
	if !strings.HasPrefix(text, cursorPrefix) {
		return 0, ErrInvalidCursor
	}
	offset, err := strconv.Atoi(strings.TrimPrefix(text, cursorPrefix))
	if err != nil || offset < 0 {
		return 0, ErrInvalidCursor
	}
	return offset, nil
}

// NewPage assembles a page from the events found at offset, given the total
// number of matching events. Cursors only ever step one page back or forward.
func NewPage(events []model.LedgerEvent, total, offset, size int) model.Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	page := model.Page{
		Events:     events,
		TotalCount: total,
		Index:      offset / size,
	}
	if offset+len(events) < total {
		page.Next = EncodeCursor(offset + size)
	}
	if offset > 0 {
		prev := offset - size
		if prev < 0 {
			prev = 0
		}
		page.Prev = EncodeCursor(prev)
	}
	return page
}

// Paginate cuts one page out of an already filtered and ordered event slice.
func Paginate(events []model.LedgerEvent, cursor model.Cursor, size int) (model.Page, error) {
	if size <= 0 {
		size = DefaultPageSize
	}
	offset, err := DecodeCursor(cursor)
	if err != nil {
		return model.Page{}, err
	}
	total := len(events)
	if offset > 0 && offset >= total {
		return model.Page{}, fmt.Errorf("%w: offset %d beyond %d events", ErrInvalidCursor, offset, total)
	}

	end := offset + size
	if end > total {
		end = total
	}
	window := make([]model.LedgerEvent, end-offset)
	copy(window, events[offset:end])
	return NewPage(window, total, offset, size), nil
}

// Select filters events and orders them newest first. Ties keep input order.
func Select(events []model.LedgerEvent, filter Filter) []model.LedgerEvent {
	out := make([]model.LedgerEvent, 0, len(events))
	for _, ev := range events {
		if filter.Matches(ev) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EventTime().After(out[j].EventTime())
	})
	return out
}
