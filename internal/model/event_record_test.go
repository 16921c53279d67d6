package model

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestEventRecordSendRoundTrip(t *testing.T) {
	amount, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	original := SendEvent{
		ID:     "tx-1",
		Time:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		From:   "alice",
		To:     "bob",
		Amount: amount,
		Symbol: "MFX",
	}

	b, err := json.Marshal(NewEventRecord(original))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var record EventRecord
	if err := json.Unmarshal(b, &record); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if record.Amount != "123456789012345678901234567890" {
		t.Fatalf("amount should be encoded as a decimal string, got %q", record.Amount)
	}

	decoded, err := record.Event()
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if !reflect.DeepEqual(decoded, LedgerEvent(original)) {
		t.Fatalf("round-trip mismatch: %+v != %+v", decoded, original)
	}
}

func TestEventRecordKeepsDecimals(t *testing.T) {
	decimals := int32(6)
	original := MintEvent{
		ID:       "tx-4",
		Time:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Amounts:  map[string]*big.Int{"alice": big.NewInt(1_000_000)},
		Symbol:   "USDC",
		Decimals: &decimals,
	}

	b, err := json.Marshal(NewEventRecord(original))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var record EventRecord
	if err := json.Unmarshal(b, &record); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if record.Decimals == nil || *record.Decimals != 6 {
		t.Fatalf("decimals should survive the envelope: %v", record.Decimals)
	}

	decoded, err := record.Event()
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	mint := decoded.(MintEvent)
	if mint.Decimals == nil || *mint.Decimals != 6 {
		t.Fatalf("decoded decimals mismatch: %v", mint.Decimals)
	}

	unknown, err := json.Marshal(NewEventRecord(SendEvent{ID: "tx-5", Amount: big.NewInt(1)}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(unknown), "decimals") {
		t.Fatalf("unknown precision should be omitted: %s", unknown)
	}
}

func TestNewEventRecordNil(t *testing.T) {
	if got := NewEventRecord(nil); !reflect.DeepEqual(got, EventRecord{}) {
		t.Fatalf("nil event should give the zero record: %+v", got)
	}
}

func TestTokenMetaPrecision(t *testing.T) {
	if (TokenMeta{Decimals: 0}).Precision() != nil {
		t.Fatalf("unknown decimals should have no precision")
	}
	if p := (TokenMeta{Decimals: 0, HasDecimals: true}).Precision(); p == nil || *p != 0 {
		t.Fatalf("zero-decimal token should keep its precision: %v", p)
	}
	if p := (TokenMeta{Decimals: 18, HasDecimals: true}).Precision(); p == nil || *p != 18 {
		t.Fatalf("precision mismatch: %v", p)
	}
}

func TestEventRecordMint(t *testing.T) {
	record := EventRecord{
		ID:      "tx-2",
		Time:    time.Unix(1700000000, 0).UTC(),
		Type:    "Mint",
		Amounts: map[string]string{"alice": "50", "carol": "7"},
		Symbol:  "MFX",
	}

	ev, err := record.Event()
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	mint, ok := ev.(MintEvent)
	if !ok {
		t.Fatalf("expected MintEvent, got %T", ev)
	}
	if mint.Amounts["alice"].Int64() != 50 || mint.Amounts["carol"].Int64() != 7 {
		t.Fatalf("amounts mismatch: %+v", mint.Amounts)
	}
	if !mint.Involves("carol") || mint.Involves("bob") {
		t.Fatalf("involvement mismatch")
	}
}

func TestEventRecordUnknownKind(t *testing.T) {
	record := EventRecord{ID: "tx-3", Type: "burn", From: "alice", Symbol: "MFX"}

	ev, err := record.Event()
	if err != nil {
		t.Fatalf("unknown kinds must not fail: %v", err)
	}
	unknown, ok := ev.(UnknownEvent)
	if !ok {
		t.Fatalf("expected UnknownEvent, got %T", ev)
	}
	if unknown.EventKind() != "burn" || !unknown.Involves("alice") {
		t.Fatalf("unknown event mismatch: %+v", unknown)
	}
	if got := NewEventRecord(unknown); !reflect.DeepEqual(got, record) {
		t.Fatalf("envelope mismatch: %+v != %+v", got, record)
	}
}

func TestEventRecordMalformedAmount(t *testing.T) {
	cases := []EventRecord{
		{ID: "a", Type: KindSend, Amount: "12abc"},
		{ID: "b", Type: KindSend},
		{ID: "c", Type: KindMint, Amounts: map[string]string{"alice": "1.5"}},
	}
	for _, record := range cases {
		if _, err := record.Event(); err == nil {
			t.Fatalf("expected error for %+v", record)
		}
	}
}

func TestDisplayRecordFields(t *testing.T) {
	record := DisplayRecord{ID: "1", Date: "2024-01-02", Time: "03:04:05", Kind: "send", From: "a", To: "b", Amount: big.NewInt(-5)}
	want := []string{"1", "2024-01-02", "03:04:05", "send", "a", "b", "-5"}
	if got := record.Fields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("fields mismatch: %v != %v", got, want)
	}
}
