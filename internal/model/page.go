package model

// Cursor is an opaque pagination position issued by a ledger source.
type Cursor string

// Page is one window of a paginated ledger query.
type Page struct {
	Events     []LedgerEvent
	TotalCount int
	// Index is the zero-based position of this page in the result set.
	Index int
	Next  Cursor
	Prev  Cursor
}

func (p Page) HasNext() bool { return p.Next != "" }

func (p Page) HasPrev() bool { return p.Prev != "" }
