package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// weightUnit is the marker the device appends to scale readings. A value
// without it carries no weight.
const weightUnit = "lbs"

// ErrSkipRow marks a row that failed to parse and should be dropped without
// aborting the batch.
var ErrSkipRow = errors.New("row skipped")

// Row is one normalized log line before classification.
type Row struct {
	Timestamp time.Time
	Activity  string
	Weight    float64
	RawValue  string
}

// Parser converts raw device log records into Rows. The device emits
// timestamps as "M/D HH:MM AM|PM" with no year and no zone, so the parser
// anchors them to the current year and subtracts a configured hour offset.
type Parser struct {
	OffsetHours int
	Now         func() time.Time
}

func NewParser(offsetHours int) *Parser {
	return &Parser{OffsetHours: offsetHours, Now: time.Now}
}

// ParseRow normalizes one record of (activity, timestamp, value). It returns
// ErrSkipRow for anything malformed; that is a per-row outcome, not a batch
// failure.
func (p *Parser) ParseRow(fields []string) (Row, error) {
	if len(fields) < 3 {
		return Row{}, fmt.Errorf("%w: want 3+ fields, got %d", ErrSkipRow, len(fields))
	}
	activity := strings.TrimSpace(fields[0])
	rawTS := strings.TrimSpace(fields[1])
	rawVal := strings.TrimSpace(fields[2])

	ts, err := p.parseTimestamp(rawTS)
	if err != nil {
		return Row{}, fmt.Errorf("%w: %v", ErrSkipRow, err)
	}

	weight := 0.0
	if strings.Contains(rawVal, weightUnit) {
		trimmed := strings.TrimSpace(strings.ReplaceAll(rawVal, weightUnit, ""))
		weight, err = strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Row{}, fmt.Errorf("%w: bad weight %q", ErrSkipRow, rawVal)
		}
	}

	return Row{Timestamp: ts, Activity: activity, Weight: weight, RawValue: rawVal}, nil
}

// parseTimestamp handles "M/D HH:MM AM|PM". The result is wall-clock time
// minus the configured offset, in the storage zone (UTC).
func (p *Parser) parseTimestamp(raw string) (time.Time, error) {
	parts := strings.Fields(raw)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("bad timestamp %q", raw)
	}

	md := strings.Split(parts[0], "/")
	if len(md) != 2 {
		return time.Time{}, fmt.Errorf("bad date %q", parts[0])
	}
	month, err1 := strconv.Atoi(md[0])
	day, err2 := strconv.Atoi(md[1])

	hm := strings.Split(parts[1], ":")
	if len(hm) != 2 {
		return time.Time{}, fmt.Errorf("bad time %q", parts[1])
	}
	hour, err3 := strconv.Atoi(hm[0])
	minute, err4 := strconv.Atoi(hm[1])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", raw)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 || hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("timestamp out of range %q", raw)
	}

	switch strings.ToLower(parts[2]) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		return time.Time{}, fmt.Errorf("bad meridiem %q", parts[2])
	}

	year := p.Now().Year()
	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	return ts.Add(-time.Duration(p.OffsetHours) * time.Hour), nil
}

// Scanner walks a raw log lazily, one good row per Next call. Malformed rows
// are counted and dropped; only I/O-level failures stop the scan.
type Scanner struct {
	p       *Parser
	cr      *csv.Reader
	started bool
	row     Row
	skipped int
	err     error
}

// Scan wraps a header-prefixed log stream. The header line is discarded.
func (p *Parser) Scan(r io.Reader) *Scanner {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &Scanner{p: p, cr: cr}
}

func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.started {
		s.started = true
		if _, err := s.cr.Read(); err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			return false
		}
	}
	for {
		fields, err := s.cr.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			s.err = err
			return false
		}
		row, err := s.p.ParseRow(fields)
		if err != nil {
			s.skipped++
			continue
		}
		s.row = row
		return true
	}
}

// Row returns the row produced by the last successful Next.
func (s *Scanner) Row() Row { return s.row }

// Skipped reports how many rows were dropped as unparseable.
func (s *Scanner) Skipped() int { return s.skipped }

// Err reports a batch-fatal scan failure, nil on clean EOF.
func (s *Scanner) Err() error { return s.err }
