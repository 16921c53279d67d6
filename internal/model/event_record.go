package model

import (
	"fmt"
	"math/big"
	"strings"
	"time"
)

// EventRecord is the flat JSON envelope used to store and exchange ledger events.
// Amounts are decimal strings so arbitrary precision survives JSON.
type EventRecord struct {
	ID       string            `json:"id"`
	Time     time.Time         `json:"time"`
	Type     string            `json:"type"`
	From     string            `json:"from,omitempty"`
	To       string            `json:"to,omitempty"`
	Amount   string            `json:"amount,omitempty"`
	Amounts  map[string]string `json:"amounts,omitempty"`
	Symbol   string            `json:"symbol,omitempty"`
	Decimals *int32            `json:"decimals,omitempty"`
}

// NewEventRecord flattens a ledger event into its envelope. A nil event
// yields the zero record.
func NewEventRecord(ev LedgerEvent) EventRecord {
	if ev == nil {
		return EventRecord{}
	}
	switch e := ev.(type) {
	case SendEvent:
		return EventRecord{
			ID:       e.ID,
			Time:     e.Time,
			Type:     KindSend,
			From:     e.From,
			To:       e.To,
			Amount:   bigString(e.Amount),
			Symbol:   e.Symbol,
			Decimals: e.Decimals,
		}
	case MintEvent:
		amounts := make(map[string]string, len(e.Amounts))
		for addr, amount := range e.Amounts {
			amounts[addr] = bigString(amount)
		}
		return EventRecord{
			ID:       e.ID,
			Time:     e.Time,
			Type:     KindMint,
			Amounts:  amounts,
			Symbol:   e.Symbol,
			Decimals: e.Decimals,
		}
	case UnknownEvent:
		return EventRecord{
			ID:     e.ID,
			Time:   e.Time,
			Type:   e.Kind,
			From:   e.From,
			To:     e.To,
			Symbol: e.Symbol,
		}
	default:
		return EventRecord{ID: ev.EventID(), Time: ev.EventTime(), Type: ev.EventKind(), Symbol: ev.EventSymbol()}
	}
}

// Event decodes the envelope into its ledger event variant.
// Unrecognised types become UnknownEvent; malformed amounts are an error.
func (r EventRecord) Event() (LedgerEvent, error) {
	switch strings.ToLower(strings.TrimSpace(r.Type)) {
	case KindSend:
		amount, err := parseAmount(r.Amount)
		if err != nil {
			return nil, fmt.Errorf("event %s: amount: %w", r.ID, err)
		}
		return SendEvent{
			ID:       r.ID,
			Time:     r.Time,
			From:     r.From,
			To:       r.To,
			Amount:   amount,
			Symbol:   r.Symbol,
			Decimals: r.Decimals,
		}, nil
	case KindMint:
		amounts := make(map[string]*big.Int, len(r.Amounts))
		for addr, raw := range r.Amounts {
			amount, err := parseAmount(raw)
			if err != nil {
				return nil, fmt.Errorf("event %s: amounts[%s]: %w", r.ID, addr, err)
			}
			amounts[addr] = amount
		}
		return MintEvent{
			ID:       r.ID,
			Time:     r.Time,
			Amounts:  amounts,
			Symbol:   r.Symbol,
			Decimals: r.Decimals,
		}, nil
	default:
		return UnknownEvent{
			ID:     r.ID,
			Time:   r.Time,
			Kind:   r.Type,
			From:   r.From,
			To:     r.To,
			Symbol: r.Symbol,
		}, nil
	}
}

func parseAmount(value string) (*big.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("missing")
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid int: %s", value)
	}
	return parsed, nil
}

func bigString(value *big.Int) string {
	if value == nil {
		return ""
	}
	return value.String()
}
