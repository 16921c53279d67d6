package postgres

import (
	"encoding/json"
	"fmt"

	"ledgerview/internal/model"
)

func rowFromEvent(ev model.LedgerEvent) eventRow {
	record := model.NewEventRecord(ev)
	row := eventRow{
		ID:         record.ID,
		Kind:       record.Type,
		OccurredAt: record.Time,
		From:       record.From,
		To:         record.To,
		Symbol:     record.Symbol,
		Decimals:   record.Decimals,
	}
	if record.Amount != "" {
		amount := record.Amount
		row.Amount = &amount
	}
	if len(record.Amounts) > 0 {
		raw, _ := json.Marshal(record.Amounts)
		amounts := string(raw)
		row.Amounts = &amounts
	}
	return row
}

func (r eventRow) event() (model.LedgerEvent, error) {
	record := model.EventRecord{
		ID:       r.ID,
		Time:     r.OccurredAt,
		Type:     r.Kind,
		From:     r.From,
		To:       r.To,
		Symbol:   r.Symbol,
		Decimals: r.Decimals,
	}
	if r.Amount != nil {
		record.Amount = *r.Amount
	}
	if r.Amounts != nil && *r.Amounts != "" {
		if err := json.Unmarshal([]byte(*r.Amounts), &record.Amounts); err != nil {
			return nil, fmt.Errorf("event %s: amounts: %w", r.ID, err)
		}
	}
	return record.Event()
}
