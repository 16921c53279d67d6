package presenter

import (
	"math/big"

	"github.com/shopspring/decimal"

	"ledgerview/internal/contacts"
	"ledgerview/internal/model"
	"ledgerview/internal/projection"
)

// DefaultDecimals is the token precision used when neither the event nor the
// configuration provides one.
const DefaultDecimals = 9

// EmptyMessage is shown instead of an empty table.
const EmptyMessage = "There are no transactions."

type Status string

const (
	StatusRows    Status = "rows"
	StatusEmpty   Status = "empty"
	StatusLoading Status = "loading"
	StatusError   Status = "error"
)

// Row titles.
const (
	TitleSend    = "send"
	TitleReceive = "receive"
)

// QueryState is the loading/data/error state of a paginated fetch.
type QueryState struct {
	Loading bool
	Err     error
	Page    model.Page
}

// Row is one rendered send event.
type Row struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Sign         string `json:"sign"`
	Counterparty string `json:"counterparty"`
	ContactName  string `json:"contact_name,omitempty"`
	Amount       string `json:"amount"`
	Symbol       string `json:"symbol"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

type Control struct {
	Enabled bool         `json:"enabled"`
	Cursor  model.Cursor `json:"cursor,omitempty"`
}

type Pagination struct {
	Index int     `json:"index"`
	Prev  Control `json:"prev"`
	Next  Control `json:"next"`
}

// View is what a client renders for one query state.
type View struct {
	Status     Status      `json:"status"`
	Loading    bool        `json:"loading"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	TotalCount int         `json:"total_count"`
	Rows       []Row       `json:"rows,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// List builds list views of one account's history.
type List struct {
	account   string
	lookup    contacts.Lookup
	projector *projection.Projector
	decimals  int32
}

func NewList(account string, lookup contacts.Lookup, projector *projection.Projector, decimals int32) *List {
	if lookup == nil {
		lookup = contacts.None{}
	}
	if projector == nil {
		projector = projection.New(nil)
	}
	if decimals < 0 {
		decimals = DefaultDecimals
	}
	return &List{
		account:   account,
		lookup:    lookup,
		projector: projector,
		decimals:  decimals,
	}
}

// Build turns a query state into a view. An error hides everything else; a
// finished load with no events shows the empty message; otherwise rows are
// shown and Loading marks an in-flight fetch on top of them.
func (l *List) Build(state QueryState) View {
	if state.Err != nil {
		return View{Status: StatusError, Error: state.Err.Error()}
	}

	page := state.Page
	if !state.Loading && (page.TotalCount == 0 || len(page.Events) == 0) {
		return View{Status: StatusEmpty, Message: EmptyMessage}
	}

	view := View{
		Status:     StatusRows,
		Loading:    state.Loading,
		TotalCount: page.TotalCount,
	}
	if state.Loading && len(page.Events) == 0 {
		view.Status = StatusLoading
	}

	for _, ev := range page.Events {
		send, ok := ev.(model.SendEvent)
		if !ok {
			continue
		}
		if row, ok := l.row(send); ok {
			view.Rows = append(view.Rows, row)
		}
	}

	if page.Index > 0 || page.HasNext() {
		view.Pagination = &Pagination{
			Index: page.Index,
			Prev:  Control{Enabled: page.HasPrev(), Cursor: page.Prev},
			Next:  Control{Enabled: page.HasNext(), Cursor: page.Next},
		}
	}
	return view
}

func (l *List) row(ev model.SendEvent) (Row, bool) {
	record, ok := l.projector.Project(l.account, ev)
	if !ok {
		return Row{}, false
	}

	sender := ev.From == l.account
	row := Row{
		ID:     ev.ID,
		Symbol: ev.Symbol,
		Date:   record.Date,
		Time:   record.Time,
	}
	if sender {
		row.Title, row.Sign, row.Counterparty = TitleSend, "-", ev.To
	} else {
		row.Title, row.Sign, row.Counterparty = TitleReceive, "+", ev.From
	}
	if name, ok := l.lookup.Name(row.Counterparty); ok {
		row.ContactName = name
	}
	row.Amount = row.Sign + FormatAmount(ev.Amount, l.precision(ev))
	return row, true
}

// precision prefers the decimals recorded with the event over the list default.
func (l *List) precision(ev model.SendEvent) int32 {
	if ev.Decimals != nil && *ev.Decimals >= 0 {
		return *ev.Decimals
	}
	return l.decimals
}

// FormatAmount renders the magnitude of a base-unit amount with the token's
// decimals, e.g. 1500000000 with 9 decimals is "1.5".
func FormatAmount(amount *big.Int, decimals int32) string {
	if amount == nil {
		return "0"
	}
	abs := new(big.Int).Abs(amount)
	return decimal.NewFromBigInt(abs, -decimals).String()
}
