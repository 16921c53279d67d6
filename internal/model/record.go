package model

import "math/big"

// DisplayRecord is the flat projection of one ledger event, shared by on-screen
// rows and exported rows. It is recomputed on every render and never stored.
type DisplayRecord struct {
	ID     string
	Date   string
	Time   string
	Kind   string
	From   string
	To     string
	Amount *big.Int // negative means outgoing for the reference address
}

// Fields returns the record in export column order.
func (r DisplayRecord) Fields() []string {
	amount := "0"
	if r.Amount != nil {
		amount = r.Amount.String()
	}
	return []string{r.ID, r.Date, r.Time, r.Kind, r.From, r.To, amount}
}
