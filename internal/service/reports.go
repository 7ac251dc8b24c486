package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dafioram/litter-tracker/internal"
)

// Fallback chart colors for the reserved identities.
const (
	colorUnknown = "#999999"
	colorSystem  = "#ffcd56"
	colorDefault = "#333"
)

// A machine cycle consumes roughly 1/17 of a waste bag.
const cyclesPerBag = 17.0

// Point is one chart-ready sample.
type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Dataset is a chart series for one identity.
type Dataset struct {
	Label           string  `json:"label"`
	Data            []Point `json:"data"`
	BorderColor     string  `json:"borderColor,omitempty"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Tension         float64 `json:"tension,omitempty"`
	Fill            bool    `json:"fill"`
}

// FreqDataset carries the daily-labeled visit counts.
type FreqDataset struct {
	Label           string `json:"label"`
	Data            []int  `json:"data"`
	BackgroundColor string `json:"backgroundColor,omitempty"`
}

// Analysis bundles every chart the analysis view renders.
type Analysis struct {
	Weight  ChartData     `json:"weight_data"`
	Scatter ChartData     `json:"scatter_data"`
	Machine ChartData     `json:"machine_data"`
	Dwell   ChartData     `json:"dwell_data"`
	Freq    FreqChartData `json:"freq_data"`
}

type ChartData struct {
	Datasets []Dataset `json:"datasets"`
}

type FreqChartData struct {
	Labels   []string      `json:"labels"`
	Datasets []FreqDataset `json:"datasets"`
}

// CatSummary is the per-identity dashboard card.
type CatSummary struct {
	CurrentWeight float64 `json:"current_weight"`
	Age           string  `json:"age_descriptor"`
	Visits30d     int     `json:"visit_count_30d"`
	AvgPerDay     float64 `json:"avg_visits_per_day"`
	TargetWeight  float64 `json:"target_weight"`
	Color         string  `json:"display_color"`
}

// Dashboard is the summary view payload.
type Dashboard struct {
	Cats           map[string]CatSummary `json:"cats"`
	CycleCount     int                   `json:"cycle_count"`
	InterruptCount int                   `json:"interrupt_count"`
	ReviewCount    int                   `json:"review_count"`
	BagsUsed       float64               `json:"bags_used"`
	LastEntry      *internal.Event       `json:"last_entry,omitempty"`
	DataAgeDays    int                   `json:"data_age_days"`
	AgeStatus      string                `json:"age_status"`
}

// CatReport is the single-animal report payload.
type CatReport struct {
	Cat           string   `json:"cat"`
	Color         string   `json:"color"`
	CurrentWeight float64  `json:"current_weight"`
	Age           string   `json:"age_descriptor"`
	Visits30d     int      `json:"visit_count_30d"`
	AvgPerDay     float64  `json:"avg_visits_per_day"`
	WeightSeries  []Point  `json:"weight_series"`
	FreqLabels    []string `json:"freq_labels"`
	FreqValues    []int    `json:"freq_values"`
	Flags         []string `json:"flags"`
}

func chartTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

// AgeString renders a birthday ("2006-01-02") as a rough age. Unset or
// malformed birthdays come back as "N/A" rather than failing the view.
func AgeString(birthday string, now time.Time) string {
	if birthday == "" {
		return "N/A"
	}
	bday, err := time.Parse(internal.DateKey, birthday)
	if err != nil {
		return "N/A"
	}
	years := now.Year() - bday.Year()
	if now.Month() < bday.Month() || (now.Month() == bday.Month() && now.Day() < bday.Day()) {
		years--
	}
	months := (now.Year()-bday.Year())*12 + int(now.Month()) - int(bday.Month())
	if years > 0 {
		return fmt.Sprintf("%d yr %d mo", years, months%12)
	}
	return fmt.Sprintf("%d months", months)
}

// BuildDashboard assembles the summary from this year's events. events must
// be time-ordered ascending; reviewCount comes from a flagged-filter query.
func BuildDashboard(events []internal.Event, profiles []internal.Profile, reviewCount int, now time.Time) *Dashboard {
	d := &Dashboard{
		Cats:        map[string]CatSummary{},
		ReviewCount: reviewCount,
		AgeStatus:   "good",
	}

	cutoff30 := now.AddDate(0, 0, -30)
	for _, e := range events {
		if e.Timestamp.Before(cutoff30) {
			continue
		}
		if strings.Contains(e.Activity, "Clean Cycle") {
			d.CycleCount++
		}
		if strings.Contains(strings.ToLower(e.Activity), "interrupted") {
			d.InterruptCount++
		}
	}
	d.BagsUsed = round1(float64(d.CycleCount) / cyclesPerBag)

	if len(events) > 0 {
		last := events[len(events)-1]
		d.LastEntry = &last
		d.DataAgeDays = int(now.Sub(last.Timestamp).Hours() / 24)
		switch {
		case d.DataAgeDays > 25:
			d.AgeStatus = "danger"
		case d.DataAgeDays > 15:
			d.AgeStatus = "warning"
		}
	}

	for _, p := range profiles {
		summary := CatSummary{
			Age:          AgeString(p.Birthday, now),
			TargetWeight: p.TargetWeight,
			Color:        p.Color,
		}

		var catEvents, recent []internal.Event
		for _, e := range events {
			if e.Identity != p.Name {
				continue
			}
			catEvents = append(catEvents, e)
			if e.Timestamp.After(cutoff30) {
				recent = append(recent, e)
			}
		}
		for i := len(catEvents) - 1; i >= 0; i-- {
			if catEvents[i].Weight > 0.5 {
				summary.CurrentWeight = round2(catEvents[i].Weight)
				break
			}
		}
		summary.Visits30d, summary.AvgPerDay = VisitStats(recent, now, 30)

		d.Cats[p.Name] = summary
	}
	return d
}

// colorMap assigns chart colors per identity, with fixed colors for the
// reserved ones.
func colorMap(profiles []internal.Profile) map[string]string {
	colors := map[string]string{
		internal.IdentityUnknown: colorUnknown,
		internal.IdentitySystem:  colorSystem,
	}
	for _, p := range profiles {
		colors[p.Name] = p.Color
	}
	return colors
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func colorFor(colors map[string]string, identity string) string {
	if c, ok := colors[identity]; ok {
		return c
	}
	return colorDefault
}

// identityOrder returns identities in first-appearance order so series order
// is stable across recomputations.
func identityOrder(events []internal.Event) []string {
	seen := map[string]bool{}
	var order []string
	for _, e := range events {
		if !seen[e.Identity] {
			seen[e.Identity] = true
			order = append(order, e.Identity)
		}
	}
	return order
}

// BuildAnalysis derives every chart series from this year's Error-free event
// stream. events must be time-ordered ascending.
func BuildAnalysis(events []internal.Event, profiles []internal.Profile) *Analysis {
	a := &Analysis{}
	colors := colorMap(profiles)

	// Weight over time, known animals only.
	for _, cat := range identityOrder(events) {
		if cat == internal.IdentityUnknown || cat == internal.IdentitySystem {
			continue
		}
		var points []Point
		for _, e := range events {
			if e.Identity == cat && e.Weight > 0.5 {
				points = append(points, Point{X: chartTime(e.Timestamp), Y: e.Weight})
			}
		}
		if len(points) == 0 {
			continue
		}
		a.Weight.Datasets = append(a.Weight.Datasets, Dataset{
			Label:           cat,
			Data:            points,
			BorderColor:     colorFor(colors, cat),
			BackgroundColor: colorFor(colors, cat),
			Tension:         0.3,
		})
	}

	// Time-of-day scatter; weight-recording rows are duplicates of the visit
	// they belong to and are skipped.
	for _, cat := range identityOrder(events) {
		if cat == internal.IdentitySystem {
			continue
		}
		var points []Point
		for _, e := range events {
			if e.Identity != cat || strings.Contains(strings.ToLower(e.Activity), "weight recorded") {
				continue
			}
			decimal := float64(e.Timestamp.Hour()) + float64(e.Timestamp.Minute())/60
			points = append(points, Point{X: chartTime(e.Timestamp), Y: decimal})
		}
		if len(points) == 0 {
			continue
		}
		a.Scatter.Datasets = append(a.Scatter.Datasets, Dataset{
			Label:           cat,
			Data:            points,
			BackgroundColor: colorFor(colors, cat),
		})
	}

	a.Machine.Datasets = append(a.Machine.Datasets, Dataset{
		Label:           "Cycle Duration (min)",
		Data:            CyclePoints(events),
		BorderColor:     colorSystem,
		BackgroundColor: colorSystem,
	})

	for _, cat := range sortedKeys(colors) {
		if cat == internal.IdentitySystem {
			continue
		}
		points := DwellPoints(events, cat)
		if len(points) == 0 {
			continue
		}
		a.Dwell.Datasets = append(a.Dwell.Datasets, Dataset{
			Label:           cat,
			Data:            points,
			BackgroundColor: colorFor(colors, cat),
		})
	}

	days, _ := DailyVisits(events)
	a.Freq.Labels = days
	for _, cat := range sortedKeys(colors) {
		if cat == internal.IdentitySystem {
			continue
		}
		var catEvents []internal.Event
		for _, e := range events {
			if e.Identity == cat {
				catEvents = append(catEvents, e)
			}
		}
		counts := make([]int, len(days))
		catDays, catCounts := DailyVisits(catEvents)
		total := 0
		for i, day := range catDays {
			for j, d := range days {
				if d == day {
					counts[j] = catCounts[i]
					total += catCounts[i]
				}
			}
		}
		if total == 0 {
			continue
		}
		a.Freq.Datasets = append(a.Freq.Datasets, FreqDataset{
			Label:           cat,
			Data:            counts,
			BackgroundColor: colorFor(colors, cat),
		})
	}

	return a
}

// BuildReport assembles the single-animal report from that identity's events
// over the last year. events must be time-ordered ascending and already
// filtered to the profile's name.
func BuildReport(events []internal.Event, profile *internal.Profile, now time.Time) *CatReport {
	r := &CatReport{
		Cat:   profile.Name,
		Color: profile.Color,
		Age:   AgeString(profile.Birthday, now),
	}

	for _, e := range events {
		if e.Weight > 0.5 {
			r.CurrentWeight = e.Weight
			r.WeightSeries = append(r.WeightSeries, Point{X: chartTime(e.Timestamp), Y: e.Weight})
		}
	}

	cutoff30 := now.AddDate(0, 0, -30)
	var recent []internal.Event
	for _, e := range events {
		if !e.Timestamp.Before(cutoff30) {
			recent = append(recent, e)
		}
	}
	r.Visits30d, r.AvgPerDay = VisitStats(recent, now, 30)

	r.FreqLabels, r.FreqValues = DailyVisits(recent)
	for i, day := range r.FreqLabels {
		if r.FreqValues[i] > 8 {
			r.Flags = append(r.Flags, fmt.Sprintf("%s: High frequency (%d visits)", day, r.FreqValues[i]))
		}
	}
	return r
}
