package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dafioram/litter-tracker/internal"
)

func machineEvent(ts time.Time, activity string) internal.Event {
	e := internal.NewEvent(ts, 0, activity)
	e.Identity = internal.IdentitySystem
	return *e
}

func TestValidCyclesPairing(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	events := []internal.Event{
		machineEvent(base, CycleStartActivity),
		machineEvent(base.Add(90*time.Second), CycleEndActivity),
	}
	cycles := ValidCycles(events)
	require.Len(t, cycles, 1)
	assert.Equal(t, 90*time.Second, cycles[0].Duration)
}

func TestInterruptedCycleExcluded(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	events := []internal.Event{
		machineEvent(base, CycleStartActivity),
		machineEvent(base.Add(40*time.Second), CycleInterruptActivity),
		machineEvent(base.Add(90*time.Second), CycleEndActivity),
	}
	assert.Empty(t, ValidCycles(events))
}

func TestCycleDurationBounds(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	// 60s exactly is too short, 300s exactly too long; both bounds strict.
	for _, dur := range []time.Duration{30 * time.Second, 60 * time.Second, 300 * time.Second, 10 * time.Minute} {
		events := []internal.Event{
			machineEvent(base, CycleStartActivity),
			machineEvent(base.Add(dur), CycleEndActivity),
		}
		assert.Empty(t, ValidCycles(events), dur.String())
	}
}

func TestCyclePairsNearestUnmatchedStart(t *testing.T) {
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	// Two starts, one end: the end pairs with the later start.
	events := []internal.Event{
		machineEvent(base, CycleStartActivity),
		machineEvent(base.Add(10*time.Minute), CycleStartActivity),
		machineEvent(base.Add(10*time.Minute+90*time.Second), CycleEndActivity),
	}
	cycles := ValidCycles(events)
	require.Len(t, cycles, 1)
	assert.Equal(t, base.Add(10*time.Minute), cycles[0].Start.Timestamp)
	assert.Equal(t, 90*time.Second, cycles[0].Duration)
}

func TestDwellEstimation(t *testing.T) {
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	virtualExit := start.Add(-virtualExitLead)

	motion := internal.NewEvent(virtualExit.Add(-8*time.Minute), 0, "Cat Detected")
	motion.Identity = "Luna"

	events := []internal.Event{
		*motion,
		machineEvent(start, CycleStartActivity),
	}
	points := DwellPoints(events, "Luna")
	require.Len(t, points, 1)
	assert.Equal(t, 8.0, points[0].Y)

	// The same window yields nothing for a different identity.
	assert.Empty(t, DwellPoints(events, "Milo"))
}

func TestDwellOutsideWindowDiscarded(t *testing.T) {
	start := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)
	virtualExit := start.Add(-virtualExitLead)

	// Motion before the lookback window opens.
	early := internal.NewEvent(virtualExit.Add(-40*time.Minute), 0, "Cat Detected")
	early.Identity = "Luna"
	events := []internal.Event{
		*early,
		machineEvent(start, CycleStartActivity),
	}
	assert.Empty(t, DwellPoints(events, "Luna"))

	// Motion exactly at the virtual exit gives a zero dwell, rejected by the
	// strict lower bound.
	atExit := internal.NewEvent(virtualExit, 0, "Cat Detected")
	atExit.Identity = "Luna"
	events = []internal.Event{
		*atExit,
		machineEvent(start, CycleStartActivity),
	}
	assert.Empty(t, DwellPoints(events, "Luna"))
}
