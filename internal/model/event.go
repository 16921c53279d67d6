package model

import (
	"math/big"
	"strings"
	"time"
)

// Event kinds understood by the projector. Anything else decodes to UnknownEvent.
const (
	KindSend = "send"
	KindMint = "mint"
)

// LedgerEvent is an immutable ledger state change.
//
// The variant set is closed: SendEvent, MintEvent and UnknownEvent. Consumers
// switch on the concrete type and must treat UnknownEvent (and any future
// variant they do not list) as unsupported.
type LedgerEvent interface {
	EventID() string
	EventTime() time.Time
	EventKind() string
	EventSymbol() string
	// Involves reports whether address takes part in the event.
	Involves(address string) bool

	ledgerEvent()
}

// SendEvent moves Amount of Symbol from From to To. Decimals is the token
// precision when the source knows it.
type SendEvent struct {
	ID       string
	Time     time.Time
	From     string
	To       string
	Amount   *big.Int
	Symbol   string
	Decimals *int32
}

func (e SendEvent) EventID() string      { return e.ID }
func (e SendEvent) EventTime() time.Time { return e.Time }
func (e SendEvent) EventKind() string    { return KindSend }
func (e SendEvent) EventSymbol() string  { return e.Symbol }

func (e SendEvent) Involves(address string) bool {
	return address != "" && (e.From == address || e.To == address)
}

func (SendEvent) ledgerEvent() {}

// MintEvent credits newly created Symbol to each address in Amounts.
type MintEvent struct {
	ID       string
	Time     time.Time
	Amounts  map[string]*big.Int
	Symbol   string
	Decimals *int32
}

func (e MintEvent) EventID() string      { return e.ID }
func (e MintEvent) EventTime() time.Time { return e.Time }
func (e MintEvent) EventKind() string    { return KindMint }
func (e MintEvent) EventSymbol() string  { return e.Symbol }

func (e MintEvent) Involves(address string) bool {
	if address == "" {
		return false
	}
	_, ok := e.Amounts[address]
	return ok
}

func (MintEvent) ledgerEvent() {}

// UnknownEvent keeps the envelope of a kind this module does not project.
// From, To and Symbol are carried only so sources can filter by account.
type UnknownEvent struct {
	ID     string
	Time   time.Time
	Kind   string
	From   string
	To     string
	Symbol string
}

func (e UnknownEvent) EventID() string      { return e.ID }
func (e UnknownEvent) EventTime() time.Time { return e.Time }
func (e UnknownEvent) EventKind() string    { return strings.ToLower(e.Kind) }
func (e UnknownEvent) EventSymbol() string  { return e.Symbol }

func (e UnknownEvent) Involves(address string) bool {
	return address != "" && (e.From == address || e.To == address)
}

func (UnknownEvent) ledgerEvent() {}
