package projection

import (
	"math/big"
	"reflect"
	"testing"
	"time"

	"ledgerview/internal/model"
)

var testTime = time.Date(2024, 3, 9, 22, 15, 30, 0, time.UTC)

func TestProjectSendOutgoing(t *testing.T) {
	p := New(time.UTC)
	ev := model.SendEvent{ID: "1", Time: testTime, From: "alice", To: "bob", Amount: big.NewInt(100), Symbol: "MFX"}

	record, ok := p.Project("alice", ev)
	if !ok {
		t.Fatalf("send should be supported")
	}
	want := model.DisplayRecord{
		ID:     "1",
		Date:   "2024-03-09",
		Time:   "22:15:30",
		Kind:   "send",
		From:   "alice",
		To:     "bob",
		Amount: big.NewInt(-100),
	}
	if !reflect.DeepEqual(record, want) {
		t.Fatalf("record mismatch: %+v != %+v", record, want)
	}
	if ev.Amount.Int64() != 100 {
		t.Fatalf("projection must not mutate the event amount, got %s", ev.Amount)
	}
}

func TestProjectSendIncoming(t *testing.T) {
	p := New(time.UTC)
	ev := model.SendEvent{ID: "2", Time: testTime, From: "bob", To: "alice", Amount: big.NewInt(42)}

	record, ok := p.Project("alice", ev)
	if !ok {
		t.Fatalf("send should be supported")
	}
	if record.Amount.Int64() != 42 {
		t.Fatalf("incoming amount should stay positive, got %s", record.Amount)
	}
	if record.From != "bob" || record.To != "alice" {
		t.Fatalf("addresses should be copied verbatim: %+v", record)
	}
}

func TestProjectSendThirdParty(t *testing.T) {
	// Direction is decided by the recipient only.
	p := New(time.UTC)
	ev := model.SendEvent{ID: "3", Time: testTime, From: "bob", To: "carol", Amount: big.NewInt(7)}

	record, ok := p.Project("alice", ev)
	if !ok || record.Amount.Int64() != -7 {
		t.Fatalf("unexpected projection: %+v %v", record, ok)
	}
}

func TestProjectMint(t *testing.T) {
	p := New(time.UTC)
	ev := model.MintEvent{ID: "4", Time: testTime, Amounts: map[string]*big.Int{"alice": big.NewInt(50), "bob": big.NewInt(1)}}

	record, ok := p.Project("alice", ev)
	if !ok {
		t.Fatalf("mint should be supported")
	}
	if record.From != "" || record.To != "alice" || record.Amount.Int64() != 50 || record.Kind != "mint" {
		t.Fatalf("mint record mismatch: %+v", record)
	}
}

func TestProjectMintWithoutEntry(t *testing.T) {
	p := New(time.UTC)
	ev := model.MintEvent{ID: "5", Time: testTime, Amounts: map[string]*big.Int{"bob": big.NewInt(1)}}

	if _, ok := p.Project("alice", ev); ok {
		t.Fatalf("mint without an entry for the reference address should be unsupported")
	}
	if got := p.Reason("alice", ev); got != ReasonMintNotCredit {
		t.Fatalf("reason mismatch: %q", got)
	}
}

func TestProjectUnsupported(t *testing.T) {
	p := New(time.UTC)
	cases := []struct {
		name   string
		ref    string
		ev     model.LedgerEvent
		reason string
	}{
		{"unknown kind", "alice", model.UnknownEvent{ID: "6", Time: testTime, Kind: "burn", From: "alice"}, ReasonUnsupportedKind},
		{"nil event", "alice", nil, ReasonUnsupportedKind},
		{"empty reference", "", model.SendEvent{ID: "7", Time: testTime, To: "alice", Amount: big.NewInt(1)}, ReasonNoReference},
		{"zero time", "alice", model.SendEvent{ID: "8", To: "alice", Amount: big.NewInt(1)}, ReasonNoTimestamp},
		{"nil amount", "alice", model.SendEvent{ID: "9", Time: testTime, To: "alice"}, ReasonNoAmount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record, ok := p.Project(tc.ref, tc.ev)
			if ok {
				t.Fatalf("expected unsupported, got %+v", record)
			}
			if !reflect.DeepEqual(record, model.DisplayRecord{}) {
				t.Fatalf("unsupported result must be empty, got %+v", record)
			}
			if got := p.Reason(tc.ref, tc.ev); got != tc.reason {
				t.Fatalf("reason mismatch: %q != %q", got, tc.reason)
			}
		})
	}
}

func TestProjectIdempotent(t *testing.T) {
	p := New(time.UTC)
	ev := model.SendEvent{ID: "10", Time: testTime, From: "alice", To: "bob", Amount: big.NewInt(9)}

	first, _ := p.Project("alice", ev)
	second, _ := p.Project("alice", ev)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("projection not idempotent: %+v != %+v", first, second)
	}
}

func TestProjectUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	p := New(loc)
	ev := model.SendEvent{ID: "11", Time: testTime, From: "bob", To: "alice", Amount: big.NewInt(1)}

	record, _ := p.Project("alice", ev)
	if record.Date != "2024-03-10" || record.Time != "01:15:30" {
		t.Fatalf("date/time should follow the projector location: %s %s", record.Date, record.Time)
	}
}
