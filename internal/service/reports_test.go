package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafioram/litter-tracker/internal"
)

func TestAgeString(t *testing.T) {
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2 yr 3 mo", AgeString("2023-03-10", now))
	assert.Equal(t, "4 months", AgeString("2025-02-10", now))
	assert.Equal(t, "N/A", AgeString("", now))
	assert.Equal(t, "N/A", AgeString("not a date", now))
}

func classifiedEvent(ts time.Time, identity, activity string, weight float64) internal.Event {
	e := internal.NewEvent(ts, weight, activity)
	e.Identity = identity
	return *e
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	base := now.AddDate(0, 0, -2)

	profiles := []internal.Profile{
		{Name: "Luna", TargetWeight: 10.5, Color: "#aabbcc", Birthday: "2023-03-10"},
	}
	events := []internal.Event{
		classifiedEvent(base, "Luna", "Cat Detected", 0),
		classifiedEvent(base.Add(time.Minute), "Luna", "Weight Recorded", 10.4),
		classifiedEvent(base.Add(20*time.Minute), internal.IdentitySystem, "Clean Cycle In Progress", 0),
		classifiedEvent(base.Add(22*time.Minute), internal.IdentitySystem, "Clean Cycle Complete", 0),
		classifiedEvent(base.Add(30*time.Minute), internal.IdentitySystem, "Cycle interrupted", 0),
	}

	d := BuildDashboard(events, profiles, 3, now)

	require.Contains(t, d.Cats, "Luna")
	luna := d.Cats["Luna"]
	assert.Equal(t, 10.4, luna.CurrentWeight)
	assert.Equal(t, 1, luna.Visits30d)
	assert.Equal(t, "#aabbcc", luna.Color)
	assert.Equal(t, 10.5, luna.TargetWeight)

	assert.Equal(t, 2, d.CycleCount)
	assert.Equal(t, 1, d.InterruptCount)
	assert.Equal(t, 3, d.ReviewCount)
	assert.Equal(t, 0.1, d.BagsUsed)
	assert.Equal(t, 1, d.DataAgeDays)
	assert.Equal(t, "good", d.AgeStatus)
	require.NotNil(t, d.LastEntry)
}

func TestBuildDashboardDataAgeStatus(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	events := []internal.Event{
		classifiedEvent(now.AddDate(0, 0, -20), "Luna", "Cat Detected", 0),
	}
	d := BuildDashboard(events, nil, 0, now)
	assert.Equal(t, "warning", d.AgeStatus)

	events = []internal.Event{
		classifiedEvent(now.AddDate(0, 0, -28), "Luna", "Cat Detected", 0),
	}
	d = BuildDashboard(events, nil, 0, now)
	assert.Equal(t, "danger", d.AgeStatus)
}

func TestBuildAnalysisSeries(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	base := now.AddDate(0, 0, -1)
	profiles := []internal.Profile{{Name: "Luna", TargetWeight: 10.5, Color: "#aabbcc"}}

	events := []internal.Event{
		classifiedEvent(base, "Luna", "Cat Detected", 0),
		classifiedEvent(base.Add(time.Minute), "Luna", "Weight Recorded", 10.4),
		classifiedEvent(base.Add(40*time.Minute), internal.IdentitySystem, "Clean Cycle In Progress", 0),
		classifiedEvent(base.Add(40*time.Minute+90*time.Second), internal.IdentitySystem, "Clean Cycle Complete", 0),
	}

	a := BuildAnalysis(events, profiles)

	require.Len(t, a.Weight.Datasets, 1)
	assert.Equal(t, "Luna", a.Weight.Datasets[0].Label)
	require.Len(t, a.Weight.Datasets[0].Data, 1)
	assert.Equal(t, 10.4, a.Weight.Datasets[0].Data[0].Y)

	// Scatter keeps the motion row, drops the weight-recording row and the
	// System series entirely.
	require.Len(t, a.Scatter.Datasets, 1)
	assert.Equal(t, "Luna", a.Scatter.Datasets[0].Label)
	require.Len(t, a.Scatter.Datasets[0].Data, 1)

	require.Len(t, a.Machine.Datasets, 1)
	require.Len(t, a.Machine.Datasets[0].Data, 1)
	assert.Equal(t, 1.5, a.Machine.Datasets[0].Data[0].Y)

	require.Len(t, a.Freq.Datasets, 1)
	assert.Equal(t, "Luna", a.Freq.Datasets[0].Label)
	assert.Equal(t, []int{1}, a.Freq.Datasets[0].Data)
}

func TestBuildReport(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)
	profile := &internal.Profile{Name: "Luna", TargetWeight: 10.5, Color: "#aabbcc"}

	var events []internal.Event
	day := now.AddDate(0, 0, -1)
	// Nine separated visits in one day trip the high-frequency flag.
	for i := 0; i < 9; i++ {
		events = append(events, classifiedEvent(day.Add(time.Duration(i)*30*time.Minute), "Luna", "Cat Detected", 0))
	}
	events = append(events, classifiedEvent(day.Add(5*time.Hour), "Luna", "Weight Recorded", 10.2))

	r := BuildReport(events, profile, now)
	assert.Equal(t, 10.2, r.CurrentWeight)
	assert.NotEmpty(t, r.WeightSeries)
	require.Len(t, r.FreqLabels, 1)
	assert.Greater(t, r.FreqValues[0], 8)
	require.Len(t, r.Flags, 1)
	assert.Contains(t, r.Flags[0], "High frequency")
}
