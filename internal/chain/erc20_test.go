package chain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestDecodeTransfer(t *testing.T) {
	topic, err := TransferTopic()
	if err != nil {
		t.Fatalf("transfer topic: %v", err)
	}
	if topic.Hex() != "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef" {
		t.Fatalf("unexpected transfer topic: %s", topic.Hex())
	}

	token := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	from := common.HexToAddress("0x1111111111111111111111111111111111111111")
	to := common.HexToAddress("0x2222222222222222222222222222222222222222")
	value, _ := new(big.Int).SetString("1000000000000000000000", 10)

	log := types.Log{
		Address:     token,
		Topics:      []common.Hash{topic, common.BytesToHash(from.Bytes()), common.BytesToHash(to.Bytes())},
		Data:        common.LeftPadBytes(value.Bytes(), 32),
		BlockNumber: 42,
		TxHash:      common.HexToHash("0xabc"),
		Index:       3,
	}

	got, err := DecodeTransfer(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Token != token || got.From != from || got.To != to || got.Value.Cmp(value) != 0 {
		t.Fatalf("transfer mismatch: %+v", got)
	}
	if got.ID() != log.TxHash.Hex()+":3" {
		t.Fatalf("id mismatch: %s", got.ID())
	}
}

func TestDecodeTransferRejectsOtherLogs(t *testing.T) {
	topic, _ := TransferTopic()
	cases := map[string]types.Log{
		"missing topics": {Topics: []common.Hash{topic}},
		"wrong topic0":   {Topics: []common.Hash{common.HexToHash("0x01"), {}, {}}},
		"short data":     {Topics: []common.Hash{topic, {}, {}}, Data: []byte{1}},
	}
	for name, log := range cases {
		if _, err := DecodeTransfer(log); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

type fakeCaller struct {
	symbol   []byte
	decimals []byte
	calls    int
	err      error
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	parsed, _ := ERC20ABI()
	if bytes.Equal(msg.Data[:4], parsed.Methods["decimals"].ID) {
		return f.decimals, nil
	}
	return f.symbol, nil
}

func packOutput(t *testing.T, method string, bytes32 bool, value interface{}) []byte {
	t.Helper()
	parsed, err := ERC20ABI()
	if bytes32 {
		parsed, err = erc20ABIBytes32Instance()
	}
	if err != nil {
		t.Fatalf("abi: %v", err)
	}
	out, err := parsed.Methods[method].Outputs.Pack(value)
	if err != nil {
		t.Fatalf("pack %s: %v", method, err)
	}
	return out
}

func TestFetchTokenMeta(t *testing.T) {
	caller := &fakeCaller{
		symbol:   packOutput(t, "symbol", false, "MFX"),
		decimals: packOutput(t, "decimals", false, uint8(6)),
	}
	meta, err := FetchTokenMeta(context.Background(), caller, common.HexToAddress("0xaa"), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if meta.Symbol != "MFX" || meta.Decimals != 6 || !meta.HasDecimals {
		t.Fatalf("meta mismatch: %+v", meta)
	}
}

func TestFetchTokenMetaBytes32Symbol(t *testing.T) {
	var raw [32]byte
	copy(raw[:], "MKR")
	caller := &fakeCaller{
		symbol:   packOutput(t, "symbol", true, raw),
		decimals: packOutput(t, "decimals", false, uint8(18)),
	}
	meta, err := FetchTokenMeta(context.Background(), caller, common.HexToAddress("0xbb"), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if meta.Symbol != "MKR" {
		t.Fatalf("bytes32 symbol mismatch: %q", meta.Symbol)
	}
}

func TestTokenCacheFetchesOnce(t *testing.T) {
	caller := &fakeCaller{
		symbol:   packOutput(t, "symbol", false, "MFX"),
		decimals: packOutput(t, "decimals", false, uint8(9)),
	}
	cache := NewTokenCache(caller, nil)
	token := common.HexToAddress("0xaa")

	for i := 0; i < 3; i++ {
		got := cache.Token(context.Background(), token)
		if got.Symbol != "MFX" || got.Decimals != 9 || !got.HasDecimals {
			t.Fatalf("meta mismatch: %+v", got)
		}
	}
	if caller.calls != 2 {
		t.Fatalf("expected one decimals and one symbol call, got %d", caller.calls)
	}
}

func TestTokenCacheRemembersFailures(t *testing.T) {
	caller := &fakeCaller{err: errors.New("execution reverted")}
	cache := NewTokenCache(caller, nil)
	token := common.HexToAddress("0xcc")

	if got := cache.Token(context.Background(), token); got.Symbol != "" || got.HasDecimals {
		t.Fatalf("expected empty meta, got %+v", got)
	}
	calls := caller.calls
	cache.Token(context.Background(), token)
	if caller.calls != calls {
		t.Fatalf("failed token should not be queried again")
	}
}

func TestNormalizeAddress(t *testing.T) {
	got := NormalizeAddress(" 0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed ")
	if got != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Fatalf("checksum mismatch: %s", got)
	}
	if NormalizeAddress("alice") != "alice" {
		t.Fatalf("non-hex identities should pass through")
	}
}
