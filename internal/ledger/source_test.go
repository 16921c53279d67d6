package ledger

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ledgerview/internal/model"
)

func sendAt(id string, minute int, from, to, symbol string) model.SendEvent {
	return model.SendEvent{
		ID:     id,
		Time:   time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC),
		From:   from,
		To:     to,
		Amount: big.NewInt(int64(minute + 1)),
		Symbol: symbol,
	}
}

func TestCursorRoundTrip(t *testing.T) {
	for _, offset := range []int{0, 1, 10, 12345} {
		got, err := DecodeCursor(EncodeCursor(offset))
		if err != nil {
			t.Fatalf("decode %d: %v", offset, err)
		}
		if got != offset {
			t.Fatalf("offset mismatch: %d != %d", got, offset)
		}
	}

	if got, err := DecodeCursor(""); err != nil || got != 0 {
		t.Fatalf("empty cursor should be offset 0: %d %v", got, err)
	}
	for _, bad := range []model.Cursor{"!!", "eDox", model.Cursor("bzotMQ")} {
		if _, err := DecodeCursor(bad); !errors.Is(err, ErrInvalidCursor) {
			t.Fatalf("expected ErrInvalidCursor for %q, got %v", bad, err)
		}
	}
}

func TestPaginateWalksForwardAndBack(t *testing.T) {
	events := make([]model.LedgerEvent, 0, 5)
	for i := 0; i < 5; i++ {
		events = append(events, sendAt(string(rune('a'+i)), i, "alice", "bob", "MFX"))
	}

	first, err := Paginate(events, "", 2)
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(first.Events) != 2 || first.Index != 0 || first.HasPrev() || !first.HasNext() || first.TotalCount != 5 {
		t.Fatalf("first page mismatch: %+v", first)
	}

	second, err := Paginate(events, first.Next, 2)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if second.Index != 1 || !second.HasPrev() || !second.HasNext() {
		t.Fatalf("second page mismatch: %+v", second)
	}
	if second.Events[0].EventID() != "c" {
		t.Fatalf("second page should start at c, got %s", second.Events[0].EventID())
	}

	third, err := Paginate(events, second.Next, 2)
	if err != nil {
		t.Fatalf("third page: %v", err)
	}
	if len(third.Events) != 1 || third.HasNext() || third.Index != 2 {
		t.Fatalf("third page mismatch: %+v", third)
	}

	back, err := Paginate(events, third.Prev, 2)
	if err != nil {
		t.Fatalf("back page: %v", err)
	}
	if back.Index != 1 || back.Events[0].EventID() != "c" {
		t.Fatalf("prev should step back one page: %+v", back)
	}
}

func TestPaginateEmptyAndOutOfRange(t *testing.T) {
	page, err := Paginate(nil, "", 10)
	if err != nil {
		t.Fatalf("empty page: %v", err)
	}
	if page.TotalCount != 0 || len(page.Events) != 0 || page.HasNext() || page.HasPrev() {
		t.Fatalf("empty page mismatch: %+v", page)
	}

	if _, err := Paginate(nil, EncodeCursor(10), 10); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("expected ErrInvalidCursor, got %v", err)
	}
}

func TestSelectFiltersAndOrders(t *testing.T) {
	events := []model.LedgerEvent{
		sendAt("old", 1, "alice", "bob", "MFX"),
		sendAt("other-account", 5, "carol", "bob", "MFX"),
		sendAt("new", 9, "bob", "alice", "MFX"),
		sendAt("other-symbol", 7, "alice", "bob", "ABC"),
		model.MintEvent{ID: "mint", Time: time.Date(2024, 1, 1, 0, 3, 0, 0, time.UTC), Amounts: map[string]*big.Int{"alice": big.NewInt(1)}, Symbol: "mfx"},
	}

	got := Select(events, Filter{Account: "alice", Symbol: "MFX"})
	ids := make([]string, 0, len(got))
	for _, ev := range got {
		ids = append(ids, ev.EventID())
	}
	want := []string{"new", "mint", "old"}
	if len(ids) != len(want) {
		t.Fatalf("ids mismatch: %v != %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids mismatch: %v != %v", ids, want)
		}
	}

	if all := Select(events, Filter{Account: "alice"}); len(all) != 4 {
		t.Fatalf("without symbol filter expected 4 events, got %d", len(all))
	}
}

func TestMemorySourceError(t *testing.T) {
	src := &Memory{Err: errors.New("rpc down")}
	if _, err := src.FetchAll(context.Background(), Filter{Account: "alice"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := src.FetchPage(context.Background(), Filter{Account: "alice"}, "", 10); err == nil {
		t.Fatalf("expected error")
	}
}

func TestJSONLSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"id":"1","time":"2024-01-01T00:00:00Z","type":"send","from":"alice","to":"bob","amount":"100","symbol":"MFX"}
not json
{"id":"2","time":"2024-01-02T00:00:00Z","type":"mint","amounts":{"alice":"50"},"symbol":"MFX"}

{"id":"3","time":"2024-01-03T00:00:00Z","type":"send","from":"bob","to":"alice","amount":"oops"}
{"id":"4","time":"2024-01-04T00:00:00Z","type":"burn","from":"alice","symbol":"MFX"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src := NewJSONLSource(path, nil)
	events, err := src.FetchAll(context.Background(), Filter{Account: "alice"})
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 valid events, got %d", len(events))
	}
	if events[0].EventID() != "4" || events[2].EventID() != "1" {
		t.Fatalf("events should be newest first: %s..%s", events[0].EventID(), events[2].EventID())
	}

	page, err := src.FetchPage(context.Background(), Filter{Account: "alice"}, "", 2)
	if err != nil {
		t.Fatalf("fetch page: %v", err)
	}
	if len(page.Events) != 2 || page.TotalCount != 3 || !page.HasNext() {
		t.Fatalf("page mismatch: %+v", page)
	}
}

func TestJSONLSourceMissingFile(t *testing.T) {
	src := NewJSONLSource(filepath.Join(t.TempDir(), "missing.jsonl"), nil)
	if _, err := src.FetchAll(context.Background(), Filter{Account: "alice"}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
