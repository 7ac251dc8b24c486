package service

import (
	"strings"
	"time"

	"github.com/dafioram/litter-tracker/internal"
)

// Machine marker activities emitted by the device.
const (
	CycleStartActivity     = "Clean Cycle In Progress"
	CycleEndActivity       = "Clean Cycle Complete"
	CycleInterruptActivity = "Cycle interrupted"
)

const (
	// A cycle outside (60s, 300s) is a sensor glitch or a stuck machine,
	// not a real clean run.
	minCycleDuration = 60 * time.Second
	maxCycleDuration = 300 * time.Second

	// Dwell estimation: the animal is assumed to have left the box this
	// long before the machine started its cycle, and the matching motion
	// event is searched this far before that exit instant.
	virtualExitLead = 15 * time.Minute
	dwellLookback   = 30 * time.Minute
	maxDwell        = 30 * time.Minute
)

// Cycle is one paired machine clean run.
type Cycle struct {
	Start    internal.Event
	End      internal.Event
	Duration time.Duration
}

// ValidCycles pairs each cycle-complete marker with the most recent preceding
// unmatched cycle-start marker and keeps only runs with a plausible duration
// and no interruption in between. Invalid and interrupted runs are dropped
// from the result entirely. events must be time-ordered.
func ValidCycles(events []internal.Event) []Cycle {
	var interrupts []time.Time
	for _, e := range events {
		if e.Activity == CycleInterruptActivity {
			interrupts = append(interrupts, e.Timestamp)
		}
	}

	var cycles []Cycle
	var openStarts []internal.Event
	for _, e := range events {
		switch e.Activity {
		case CycleStartActivity:
			openStarts = append(openStarts, e)
		case CycleEndActivity:
			if len(openStarts) == 0 {
				continue
			}
			start := openStarts[len(openStarts)-1]
			openStarts = openStarts[:len(openStarts)-1]

			dur := e.Timestamp.Sub(start.Timestamp)
			if dur <= minCycleDuration || dur >= maxCycleDuration {
				continue
			}
			if interruptedBetween(interrupts, start.Timestamp, e.Timestamp) {
				continue
			}
			cycles = append(cycles, Cycle{Start: start, End: e, Duration: dur})
		}
	}
	return cycles
}

func interruptedBetween(interrupts []time.Time, start, end time.Time) bool {
	for _, t := range interrupts {
		if t.After(start) && t.Before(end) {
			return true
		}
	}
	return false
}

// CyclePoints renders valid cycles as chart points, duration in minutes.
func CyclePoints(events []internal.Event) []Point {
	cycles := ValidCycles(events)
	points := make([]Point, 0, len(cycles))
	for _, c := range cycles {
		points = append(points, Point{
			X: chartTime(c.Start.Timestamp),
			Y: round2(c.Duration.Minutes()),
		})
	}
	return points
}

// DwellPoints estimates, per cycle start, how long the given identity
// lingered before its virtual exit. Estimates outside (0, 30) minutes are
// discarded. events must be time-ordered and include all identities; the
// motion candidates are matched against identity afterwards, mirroring how
// the look-back window is defined on the whole stream.
func DwellPoints(events []internal.Event, identity string) []Point {
	var points []Point
	for _, e := range events {
		if e.Activity != CycleStartActivity {
			continue
		}
		virtualExit := e.Timestamp.Add(-virtualExitLead)
		windowStart := virtualExit.Add(-dwellLookback)

		var last *internal.Event
		for i := range events {
			c := &events[i]
			if c.Timestamp.Before(windowStart) || c.Timestamp.After(virtualExit) {
				continue
			}
			if !strings.Contains(strings.ToLower(c.Activity), "cat detected") {
				continue
			}
			last = c
		}
		if last == nil || last.Identity != identity {
			continue
		}

		dwell := virtualExit.Sub(last.Timestamp)
		if dwell <= 0 || dwell >= maxDwell {
			continue
		}
		points = append(points, Point{
			X: chartTime(e.Timestamp),
			Y: round1(dwell.Minutes()),
		})
	}
	return points
}
