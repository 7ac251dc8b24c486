package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/dafioram/litter-tracker/internal"
)

const (
	// lookaheadRows and lookaheadWindow bound the forward scan for a weight
	// reading that can resolve a motion-only row. Whichever bound hits first
	// ends the scan.
	lookaheadRows   = 20
	lookaheadWindow = 7 * time.Minute

	reasonNoWeightFound = "No weight found in 7m"
)

// Correlate resolves a motion-only row by borrowing the classification of the
// first subsequent weight reading within the look-ahead window. rows must be
// the time-sorted batch being ingested; the scan never reaches into events
// committed by earlier uploads. Rows that are not motion detections pass
// through untouched.
func Correlate(rows []Row, i int, cls Classification, profiles []internal.Profile, tolerance float64) Classification {
	if !strings.Contains(strings.ToLower(rows[i].Activity), motionMarker) {
		return cls
	}

	for j := i + 1; j < len(rows) && j < i+lookaheadRows; j++ {
		future := rows[j]
		elapsed := future.Timestamp.Sub(rows[i].Timestamp)
		if elapsed > lookaheadWindow {
			break
		}
		if strings.Contains(strings.ToLower(future.Activity), weightRecordMarker) && future.Weight >= minValidWeight {
			borrowed := Classify(future, profiles, tolerance)
			borrowed.Reason = fmt.Sprintf("Matched w/ %.1flbs (+%dm)", future.Weight, int(elapsed.Minutes()))
			return borrowed
		}
	}

	if cls.Identity == internal.IdentityUnknown {
		cls.Reason = reasonNoWeightFound
	}
	return cls
}
