package model

// TokenMeta is the ERC20 metadata needed to label ledger events.
// HasDecimals is false when the token did not answer decimals().
type TokenMeta struct {
	Address     string `json:"address"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	HasDecimals bool   `json:"has_decimals"`
}

// Precision returns the token decimals for an event, or nil when unknown.
func (m TokenMeta) Precision() *int32 {
	if !m.HasDecimals {
		return nil
	}
	decimals := int32(m.Decimals)
	return &decimals
}
