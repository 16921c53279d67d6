package indexer

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"ledgerview/internal/chain"
	"ledgerview/internal/model"
)

// KindBurn is the kind given to transfers into the zero address.
const KindBurn = "burn"

// buildEvent maps an ERC20 transfer onto the ledger event model. Transfers
// from the zero address are mints and transfers to it are burns.
func buildEvent(tr chain.Transfer, timestamp uint64, token model.TokenMeta) model.LedgerEvent {
	ts := time.Unix(int64(timestamp), 0).UTC()
	id := tr.ID()
	symbol := token.Symbol

	switch {
	case tr.From == (common.Address{}):
		return model.MintEvent{
			ID:       id,
			Time:     ts,
			Amounts:  map[string]*big.Int{tr.To.Hex(): tr.Value},
			Symbol:   symbol,
			Decimals: token.Precision(),
		}
	case tr.To == (common.Address{}):
		return model.UnknownEvent{
			ID:     id,
			Time:   ts,
			Kind:   KindBurn,
			From:   tr.From.Hex(),
			To:     tr.To.Hex(),
			Symbol: symbol,
		}
	default:
		return model.SendEvent{
			ID:       id,
			Time:     ts,
			From:     tr.From.Hex(),
			To:       tr.To.Hex(),
			Amount:   tr.Value,
			Symbol:   symbol,
			Decimals: token.Precision(),
		}
	}
}
