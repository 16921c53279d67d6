package postgres

import (
	"math/big"
	"reflect"
	"strings"
	"testing"
	"time"

	"ledgerview/internal/model"
)

func TestEventRowRoundTrip(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	decimals := int32(6)
	events := []model.LedgerEvent{
		model.SendEvent{ID: "a", Time: ts, From: "alice", To: "bob", Amount: big.NewInt(-5), Symbol: "MFX"},
		model.SendEvent{ID: "d", Time: ts, From: "alice", To: "bob", Amount: big.NewInt(1_000_000), Symbol: "USDC", Decimals: &decimals},
		model.MintEvent{ID: "b", Time: ts, Amounts: map[string]*big.Int{"alice": big.NewInt(9), "bob": big.NewInt(1)}, Symbol: "MFX"},
		model.UnknownEvent{ID: "c", Time: ts, Kind: "burn", From: "alice", Symbol: "MFX"},
	}

	for _, ev := range events {
		row := rowFromEvent(ev)
		got, err := row.event()
		if err != nil {
			t.Fatalf("%s: decode row: %v", ev.EventID(), err)
		}
		if !reflect.DeepEqual(got, ev) {
			t.Fatalf("%s: round trip mismatch: %#v != %#v", ev.EventID(), got, ev)
		}
	}
}

func TestEventRowNullColumns(t *testing.T) {
	row := rowFromEvent(model.UnknownEvent{ID: "c", Kind: "burn"})
	if row.Amount != nil || row.Amounts != nil || row.Decimals != nil {
		t.Fatalf("unknown events should store NULL amounts: %+v", row)
	}

	bad := "{not json"
	row.Amounts = &bad
	if _, err := row.event(); err == nil {
		t.Fatalf("expected error for malformed amounts")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrations.ReadDir("sql")
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected embedded migrations, got %d", len(entries))
	}
	for _, entry := range entries {
		raw, err := migrations.ReadFile("sql/" + entry.Name())
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		if !strings.Contains(string(raw), "-- +migrate Up") || !strings.Contains(string(raw), "-- +migrate Down") {
			t.Fatalf("%s should declare up and down sections", entry.Name())
		}
	}
}
