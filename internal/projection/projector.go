package projection

import (
	"math/big"
	"time"

	"ledgerview/internal/model"
)

// Layouts for the date and time columns of a display record.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Reasons reported for events that cannot be projected.
const (
	ReasonNoReference     = "empty reference address"
	ReasonNoTimestamp     = "missing timestamp"
	ReasonNoAmount        = "send without amount"
	ReasonMintNotCredit   = "mint does not credit account"
	ReasonUnsupportedKind = "unsupported event type"
)

// Projector maps ledger events to display records from the point of view of a
// reference address. It holds no state besides the presentation time zone and
// is safe for concurrent use.
type Projector struct {
	loc *time.Location
}

// New returns a projector rendering dates in loc (time.Local when nil).
func New(loc *time.Location) *Projector {
	if loc == nil {
		loc = time.Local
	}
	return &Projector{loc: loc}
}

// Location returns the time zone used for the date and time columns.
func (p *Projector) Location() *time.Location {
	return p.loc
}

// Project converts ev into a display record. The boolean is false when the
// event is unsupported; no partially filled record is ever returned.
func (p *Projector) Project(ref string, ev model.LedgerEvent) (model.DisplayRecord, bool) {
	record, reason := p.project(ref, ev)
	if reason != "" {
		return model.DisplayRecord{}, false
	}
	return record, true
}

// Reason explains why ev is unsupported for ref, or returns "" when it projects.
func (p *Projector) Reason(ref string, ev model.LedgerEvent) string {
	_, reason := p.project(ref, ev)
	return reason
}

func (p *Projector) project(ref string, ev model.LedgerEvent) (model.DisplayRecord, string) {
	if ref == "" {
		return model.DisplayRecord{}, ReasonNoReference
	}
	if ev == nil {
		return model.DisplayRecord{}, ReasonUnsupportedKind
	}
	if ev.EventTime().IsZero() {
		return model.DisplayRecord{}, ReasonNoTimestamp
	}

	switch e := ev.(type) {
	case model.SendEvent:
		if e.Amount == nil {
			return model.DisplayRecord{}, ReasonNoAmount
		}
		amount := new(big.Int).Set(e.Amount)
		if e.To != ref {
			amount.Neg(amount)
		}
		return p.record(e.ID, e.Time, model.KindSend, e.From, e.To, amount), ""
	case model.MintEvent:
		minted, ok := e.Amounts[ref]
		if !ok || minted == nil {
			return model.DisplayRecord{}, ReasonMintNotCredit
		}
		return p.record(e.ID, e.Time, model.KindMint, "", ref, new(big.Int).Set(minted)), ""
	default:
		return model.DisplayRecord{}, ReasonUnsupportedKind
	}
}

func (p *Projector) record(id string, ts time.Time, kind, from, to string, amount *big.Int) model.DisplayRecord {
	local := ts.In(p.loc)
	return model.DisplayRecord{
		ID:     id,
		Date:   local.Format(DateLayout),
		Time:   local.Format(TimeLayout),
		Kind:   kind,
		From:   from,
		To:     to,
		Amount: amount,
	}
}
