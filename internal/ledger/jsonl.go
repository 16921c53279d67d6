package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"ledgerview/internal/model"
)

// JSONLSource serves ledger events from a JSONL file of event envelopes, as
// written by the sync command. The file is re-read on every fetch so a running
// server picks up newly synced events.
type JSONLSource struct {
	path   string
	logger *zap.Logger
}

func NewJSONLSource(path string, logger *zap.Logger) *JSONLSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONLSource{path: path, logger: logger}
}

func (s *JSONLSource) FetchPage(ctx context.Context, filter Filter, cursor model.Cursor, size int) (model.Page, error) {
	events, err := s.load(ctx)
	if err != nil {
		return model.Page{}, err
	}
	return Paginate(Select(events, filter), cursor, size)
}

func (s *JSONLSource) FetchAll(ctx context.Context, filter Filter) ([]model.LedgerEvent, error) {
	events, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return Select(events, filter), nil
}

func (s *JSONLSource) load(ctx context.Context) ([]model.LedgerEvent, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var events []model.LedgerEvent
	seen := make(map[string]int)
	var lineNo, failed int
	for scanner.Scan() {
		lineNo++
		if lineNo%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var record model.EventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			s.logger.Warn("decode ledger line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		ev, err := record.Event()
		if err != nil {
			failed++
			s.logger.Warn("decode ledger event", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		// re-synced ranges append the same event again; the last copy wins
		if idx, ok := seen[ev.EventID()]; ok && ev.EventID() != "" {
			events[idx] = ev
			continue
		}
		seen[ev.EventID()] = len(events)
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan ledger: %w", err)
	}

	s.logger.Debug("ledger loaded",
		zap.String("path", s.path),
		zap.Int("events", len(events)),
		zap.Int("failed", failed),
	)
	return events, nil
}
