package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ledgerview/internal/ledger"
	"ledgerview/internal/model"
	"ledgerview/internal/projection"
)

// Fetcher returns the complete event set for a filter.
type Fetcher interface {
	FetchAll(ctx context.Context, filter ledger.Filter) ([]model.LedgerEvent, error)
}

// Exporter builds CSV documents of an account's complete history.
type Exporter struct {
	fetcher   Fetcher
	projector *projection.Projector
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

type ExporterOption func(*Exporter)

// WithClock overrides the clock used for the file name.
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithOptions sets the CSV encoding options.
func WithOptions(opts Options) ExporterOption {
	return func(e *Exporter) {
		e.opts = opts
	}
}

func NewExporter(fetcher Fetcher, projector *projection.Projector, logger *zap.Logger, options ...ExporterOption) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if projector == nil {
		projector = projection.New(nil)
	}
	e := &Exporter{
		fetcher:   fetcher,
		projector: projector,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// Export fetches every event matching filter and encodes the supported ones.
// An empty event set returns ok=false and no error: there is nothing to
// download. Fetch failures are returned as is, without retry.
func (e *Exporter) Export(ctx context.Context, filter ledger.Filter) (Document, bool, error) {
	events, err := e.fetcher.FetchAll(ctx, filter)
	if err != nil {
		return Document{}, false, fmt.Errorf("fetch all events: %w", err)
	}
	if len(events) == 0 {
		e.logger.Info("export skipped, no events", zap.String("account", filter.Account), zap.String("symbol", filter.Symbol))
		return Document{}, false, nil
	}

	records := e.Project(filter.Account, events)
	body, err := Encode(records, e.opts)
	if err != nil {
		return Document{}, false, err
	}

	doc := Document{
		Name:        FileName(e.now()),
		ContentType: ContentType,
		Body:        body,
		Rows:        len(records),
	}
	e.logger.Info("export built",
		zap.String("account", filter.Account),
		zap.String("file", doc.Name),
		zap.Int("events", len(events)),
		zap.Int("rows", doc.Rows),
	)
	return doc, true, nil
}

// Project maps events to records in input order, dropping unsupported ones.
func (e *Exporter) Project(ref string, events []model.LedgerEvent) []model.DisplayRecord {
	records := make([]model.DisplayRecord, 0, len(events))
	for _, ev := range events {
		record, ok := e.projector.Project(ref, ev)
		if !ok {
			if ce := e.logger.Check(zap.DebugLevel, "skip unsupported event"); ce != nil {
				ce.Write(
					zap.String("id", eventID(ev)),
					zap.String("kind", eventKind(ev)),
					zap.String("reason", e.projector.Reason(ref, ev)),
				)
			}
			continue
		}
		records = append(records, record)
	}
	return records
}

func eventID(ev model.LedgerEvent) string {
	if ev == nil {
		return ""
	}
	return ev.EventID()
}

func eventKind(ev model.LedgerEvent) string {
	if ev == nil {
		return ""
	}
	return ev.EventKind()
}
