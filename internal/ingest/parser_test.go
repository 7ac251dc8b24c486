package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedYearParser(offset int) *Parser {
	p := NewParser(offset)
	p.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return p
}

func TestParseRowTimestamp(t *testing.T) {
	p := fixedYearParser(0)

	row, err := p.ParseRow([]string{"Cat Detected", "3/14 02:30 PM", ""})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 14, 30, 0, 0, time.UTC), row.Timestamp)

	row, err = p.ParseRow([]string{"Cat Detected", "3/14 12:05 AM", ""})
	require.NoError(t, err)
	assert.Equal(t, 0, row.Timestamp.Hour())

	row, err = p.ParseRow([]string{"Cat Detected", "3/14 12:05 PM", ""})
	require.NoError(t, err)
	assert.Equal(t, 12, row.Timestamp.Hour())
}

func TestParseRowAppliesOffset(t *testing.T) {
	p := fixedYearParser(5)

	row, err := p.ParseRow([]string{"Weight Recorded", "7/4 01:00 AM", "9.5 lbs"})
	require.NoError(t, err)
	// 01:00 wall clock minus 5h rolls into the previous day.
	assert.Equal(t, time.Date(2025, 7, 3, 20, 0, 0, 0, time.UTC), row.Timestamp)
}

func TestParseRowWeight(t *testing.T) {
	p := fixedYearParser(0)

	row, err := p.ParseRow([]string{"Weight Recorded", "3/14 02:30 PM", "9.5 lbs"})
	require.NoError(t, err)
	assert.Equal(t, 9.5, row.Weight)
	assert.Equal(t, "9.5 lbs", row.RawValue)

	// No unit marker means no weight, not an error.
	row, err = p.ParseRow([]string{"Cat Detected", "3/14 02:30 PM", "motion"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, row.Weight)
}

func TestParseRowSkipsMalformed(t *testing.T) {
	p := fixedYearParser(0)

	cases := [][]string{
		{"Cat Detected", "3/14 02:30 PM"},             // too few fields
		{"Cat Detected", "not a date", "9.5 lbs"},     // bad timestamp
		{"Cat Detected", "3/14 02:30 XX", "9.5 lbs"},  // bad meridiem
		{"Cat Detected", "13/14 02:30 PM", ""},        // month out of range
		{"Weight Recorded", "3/14 02:30 PM", "x lbs"}, // bad weight
	}
	for _, fields := range cases {
		_, err := p.ParseRow(fields)
		assert.ErrorIs(t, err, ErrSkipRow, "fields: %v", fields)
	}
}

func TestScannerDropsBadRowsSilently(t *testing.T) {
	raw := strings.Join([]string{
		"Activity,Timestamp,Value",
		"Cat Detected,3/14 02:30 PM,",
		"Garbage Row,???,???lbs",
		"Weight Recorded,3/14 02:31 PM,9.5 lbs",
	}, "\n")

	p := fixedYearParser(0)
	sc := p.Scan(strings.NewReader(raw))

	var rows []Row
	for sc.Next() {
		rows = append(rows, sc.Row())
	}
	require.NoError(t, sc.Err())
	assert.Len(t, rows, 2)
	assert.Equal(t, 1, sc.Skipped())
	assert.Equal(t, "Weight Recorded", rows[1].Activity)
}
