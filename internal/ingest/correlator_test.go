package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dafioram/litter-tracker/internal"
)

func motionBatch(gap time.Duration, weight float64) []Row {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	return []Row{
		{Timestamp: base, Activity: "Cat Detected"},
		{Timestamp: base.Add(gap), Activity: "Weight Recorded", Weight: weight},
	}
}

func TestCorrelateAdoptsWeightWithinWindow(t *testing.T) {
	rows := motionBatch(6*time.Minute, 9.1)
	profiles := []internal.Profile{{Name: "Luna", TargetWeight: 10.5}}

	cls := Classify(rows[0], profiles, 2.0)
	cls = Correlate(rows, 0, cls, profiles, 2.0)

	assert.Equal(t, "Luna", cls.Identity)
	assert.Equal(t, "Matched w/ 9.1lbs (+6m)", cls.Reason)
}

func TestCorrelateWindowExpires(t *testing.T) {
	rows := motionBatch(8*time.Minute, 9.1)
	profiles := []internal.Profile{{Name: "Luna", TargetWeight: 10.5}}

	cls := Classify(rows[0], profiles, 2.0)
	cls = Correlate(rows, 0, cls, profiles, 2.0)

	assert.Equal(t, internal.IdentityUnknown, cls.Identity)
	assert.Equal(t, "No weight found in 7m", cls.Reason)
}

func TestCorrelateIgnoresLowWeightReadings(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	rows := []Row{
		{Timestamp: base, Activity: "Cat Detected"},
		{Timestamp: base.Add(time.Minute), Activity: "Weight Recorded", Weight: 0.3},
		{Timestamp: base.Add(2 * time.Minute), Activity: "Weight Recorded", Weight: 10.4},
	}
	profiles := []internal.Profile{{Name: "Luna", TargetWeight: 10.5}}

	cls := Correlate(rows, 0, Classify(rows[0], profiles, 2.0), profiles, 2.0)
	assert.Equal(t, "Luna", cls.Identity)
	assert.Equal(t, "Matched w/ 10.4lbs (+2m)", cls.Reason)
}

func TestCorrelateRowBound(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	rows := []Row{{Timestamp: base, Activity: "Cat Detected"}}
	// 25 filler rows land one second apart; the weight reading sits past the
	// 20-row bound but well inside the 7 minute window.
	for i := 1; i <= 25; i++ {
		rows = append(rows, Row{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Activity:  "Cat Detected",
		})
	}
	rows = append(rows, Row{
		Timestamp: base.Add(30 * time.Second),
		Activity:  "Weight Recorded",
		Weight:    10.4,
	})
	profiles := []internal.Profile{{Name: "Luna", TargetWeight: 10.5}}

	cls := Correlate(rows, 0, Classify(rows[0], profiles, 2.0), profiles, 2.0)
	assert.Equal(t, internal.IdentityUnknown, cls.Identity)
	assert.Equal(t, "No weight found in 7m", cls.Reason)
}

func TestCorrelateLeavesNonMotionAlone(t *testing.T) {
	rows := motionBatch(time.Minute, 10.4)
	profiles := []internal.Profile{{Name: "Luna", TargetWeight: 10.5}}

	cls := Classify(rows[1], profiles, 2.0)
	out := Correlate(rows, 1, cls, profiles, 2.0)
	assert.Equal(t, cls, out)
}
