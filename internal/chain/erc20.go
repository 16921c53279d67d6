package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"ledgerview/internal/model"
)

const erc20ABIStringJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "from", "type": "address"},
      {"indexed": true, "name": "to", "type": "address"},
      {"indexed": false, "name": "value", "type": "uint256"}
    ],
    "name": "Transfer",
    "type": "event"
  },
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"}
]`

const erc20ABIBytes32JSON = `[
  {"inputs": [], "name": "symbol", "outputs": [{"type": "bytes32"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABIString      abi.ABI
	erc20ABIStringOnce  sync.Once
	erc20ABIStringErr   error
	erc20ABIBytes32     abi.ABI
	erc20ABIBytes32Once sync.Once
	erc20ABIBytes32Err  error
)

// ERC20ABI returns the parsed ERC20 ABI (Transfer event, decimals, symbol).
func ERC20ABI() (abi.ABI, error) {
	erc20ABIStringOnce.Do(func() {
		erc20ABIString, erc20ABIStringErr = abi.JSON(strings.NewReader(erc20ABIStringJSON))
	})
	return erc20ABIString, erc20ABIStringErr
}

func erc20ABIBytes32Instance() (abi.ABI, error) {
	erc20ABIBytes32Once.Do(func() {
		erc20ABIBytes32, erc20ABIBytes32Err = abi.JSON(strings.NewReader(erc20ABIBytes32JSON))
	})
	return erc20ABIBytes32, erc20ABIBytes32Err
}

// TransferTopic returns topic0 of the ERC20 Transfer event.
func TransferTopic() (common.Hash, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return common.Hash{}, err
	}
	return parsed.Events["Transfer"].ID, nil
}

// Transfer is a decoded ERC20 Transfer log.
type Transfer struct {
	Token       common.Address
	From        common.Address
	To          common.Address
	Value       *big.Int
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// ID identifies the transfer by transaction hash and log index.
func (t Transfer) ID() string {
	return fmt.Sprintf("%s:%d", t.TxHash.Hex(), t.LogIndex)
}

// DecodeTransfer decodes an ERC20 Transfer log. Indexed from/to are read from
// topics 1 and 2; value is the only data word.
func DecodeTransfer(log types.Log) (Transfer, error) {
	parsed, err := ERC20ABI()
	if err != nil {
		return Transfer{}, fmt.Errorf("parse erc20 abi: %w", err)
	}
	event := parsed.Events["Transfer"]
	if len(log.Topics) != 3 {
		return Transfer{}, fmt.Errorf("transfer log has %d topics", len(log.Topics))
	}
	if log.Topics[0] != event.ID {
		return Transfer{}, fmt.Errorf("unexpected topic0 %s", log.Topics[0].Hex())
	}

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return Transfer{}, fmt.Errorf("unpack transfer: %w", err)
	}
	if len(values) != 1 {
		return Transfer{}, fmt.Errorf("transfer data has %d values", len(values))
	}
	value, ok := values[0].(*big.Int)
	if !ok {
		return Transfer{}, fmt.Errorf("unsupported value type %T", values[0])
	}

	return Transfer{
		Token:       log.Address,
		From:        common.BytesToAddress(log.Topics[1].Bytes()),
		To:          common.BytesToAddress(log.Topics[2].Bytes()),
		Value:       value,
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash,
		LogIndex:    log.Index,
	}, nil
}

// ContractCaller performs read-only contract calls.
type ContractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// FetchTokenMeta loads decimals and symbol via ERC20 calls. Tokens that return
// symbol as bytes32 are handled.
func FetchTokenMeta(ctx context.Context, caller ContractCaller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("contract caller is nil")
	}

	stringABI, err := ERC20ABI()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32Instance()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	call := func(method string, parsed abi.ABI) ([]interface{}, error) {
		data, err := parsed.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("pack %s: %w", method, err)
		}
		msg := ethereum.CallMsg{To: &token, Data: data}
		resp, err := caller.CallContract(ctx, msg, nil)
		if err != nil {
			return nil, fmt.Errorf("call %s: %w", method, err)
		}
		values, err := parsed.Unpack(method, resp)
		if err != nil {
			return nil, fmt.Errorf("unpack %s: %w", method, err)
		}
		return values, nil
	}

	if values, err := call("decimals", stringABI); err == nil {
		if decimals, ok := values[0].(uint8); ok {
			meta.Decimals = decimals
			meta.HasDecimals = true
		}
	} else if logger != nil {
		logger.Debug("decimals call failed", zap.String("token", token.Hex()), zap.Error(err))
	}

	if values, err := call("symbol", stringABI); err == nil {
		if symbol, ok := values[0].(string); ok {
			meta.Symbol = symbol
		}
	} else if values, err := call("symbol", bytes32ABI); err == nil {
		if symbol, ok := bytes32ToString(values[0]); ok {
			meta.Symbol = symbol
		}
	} else {
		return meta, fmt.Errorf("symbol: %w", err)
	}

	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

// TokenCache resolves token metadata once per token.
type TokenCache struct {
	caller ContractCaller
	logger *zap.Logger

	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenCache(caller ContractCaller, logger *zap.Logger) *TokenCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenCache{
		caller: caller,
		logger: logger,
		data:   make(map[common.Address]model.TokenMeta),
	}
}

func (c *TokenCache) Get(token common.Address) (model.TokenMeta, bool) {
	c.mu.RLock()
	meta, ok := c.data[token]
	c.mu.RUnlock()
	return meta, ok
}

func (c *TokenCache) Set(token common.Address, meta model.TokenMeta) {
	c.mu.Lock()
	c.data[token] = meta
	c.mu.Unlock()
}

// Token returns the token metadata, fetching it on first use. A failed fetch
// is cached as is so the token is not queried again, unless ctx was canceled.
func (c *TokenCache) Token(ctx context.Context, token common.Address) model.TokenMeta {
	if meta, ok := c.Get(token); ok {
		return meta
	}
	meta, err := FetchTokenMeta(ctx, c.caller, token, c.logger)
	if err != nil {
		c.logger.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
		if ctx.Err() != nil {
			return meta
		}
	}
	if !meta.HasDecimals {
		c.logger.Debug("token decimals unknown", zap.String("token", token.Hex()))
	}
	c.Set(token, meta)
	return meta
}
