package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"ledgerview/internal/model"
)

// Header is the fixed first row of every export.
const Header = "id,date,time,type,from,to,amount"

const (
	ContentType = "text/csv"
	filePrefix  = "transactions_"
	fileLayout  = "2006-01-02"
)

// Options controls CSV encoding.
//
// By default fields are joined with commas and never escaped, so ids,
// addresses and symbols must not contain commas or line breaks. Quote switches
// to RFC 4180 quoting for data that cannot meet that constraint.
type Options struct {
	Quote bool
}

// Document is a ready-to-download export.
type Document struct {
	Name        string
	ContentType string
	Body        []byte
	Rows        int
}

// FileName returns transactions_<YYYY-MM-DD>.csv for the UTC date of now.
func FileName(now time.Time) string {
	return filePrefix + now.UTC().Format(fileLayout) + ".csv"
}

// Encode serializes records under Header, one line per record in input order.
// The output has no trailing newline.
func Encode(records []model.DisplayRecord, opts Options) ([]byte, error) {
	if opts.Quote {
		return encodeQuoted(records)
	}

	var buf bytes.Buffer
	buf.WriteString(Header)
	for _, record := range records {
		buf.WriteByte('\n')
		buf.WriteString(strings.Join(record.Fields(), ","))
	}
	return buf.Bytes(), nil
}

func encodeQuoted(records []model.DisplayRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(strings.Split(Header, ",")); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record.Fields()); err != nil {
			return nil, fmt.Errorf("write record %s: %w", record.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
