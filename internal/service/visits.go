package service

import (
	"math"
	"sort"
	"time"

	"github.com/dafioram/litter-tracker/internal"
)

// visitGap separates two visits: a new visit opens when an event arrives more
// than this long after the open visit's anchor. The anchor is fixed when the
// visit opens.
const visitGap = 10 * time.Minute

// CountVisits groups a time-ordered, single-identity event stream into
// visits. This is the one grouping implementation; the 30-day summary, the
// dashboard and the per-day frequency series all go through it.
func CountVisits(events []internal.Event) int {
	visits := 0
	var anchor time.Time
	for _, e := range events {
		if visits == 0 || e.Timestamp.Sub(anchor) > visitGap {
			visits++
			anchor = e.Timestamp
		}
	}
	return visits
}

// VisitStats returns the visit count over events and the average visits per
// active day. The divisor is days since the first event in the range plus
// one, capped at windowDays and floored at 1. events must be time-ordered.
func VisitStats(events []internal.Event, now time.Time, windowDays int) (int, float64) {
	visits := CountVisits(events)
	if len(events) == 0 {
		return visits, 0
	}
	daysTracked := int(now.Sub(events[0].Timestamp).Hours() / 24)
	divisor := daysTracked + 1
	if divisor > windowDays {
		divisor = windowDays
	}
	if divisor < 1 {
		divisor = 1
	}
	return visits, round1(float64(visits) / float64(divisor))
}

// DailyVisits buckets events per calendar day and counts visits within each
// day independently. Keys come back sorted ascending.
func DailyVisits(events []internal.Event) ([]string, []int) {
	byDay := make(map[string][]internal.Event)
	for _, e := range events {
		byDay[e.Date] = append(byDay[e.Date], e)
	}
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	counts := make([]int, len(days))
	for i, day := range days {
		counts[i] = CountVisits(byDay[day])
	}
	return days, counts
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
