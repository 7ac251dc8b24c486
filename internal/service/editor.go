package service

import (
	"context"
	"sort"
	"time"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/storage"
)

// IdentityBlacklisted marks suppressed entries merged into the editor feed.
// It is a display value only and never stored.
const IdentityBlacklisted = "Blacklisted"

// EditorPage is one day's combined feed of active and blacklisted entries,
// newest first, with day navigation.
type EditorPage struct {
	Date     string           `json:"date"`
	PrevDate string           `json:"prev_date"`
	NextDate string           `json:"next_date"`
	Entries  []internal.Event `json:"entries"`
}

// BuildEditorPage loads the feed for date; an empty date falls back to the
// most recent day with data, then to today.
func BuildEditorPage(ctx context.Context, events storage.EventRepository, blacklist storage.BlacklistRepository, date string, now time.Time) (*EditorPage, error) {
	if date == "" {
		latest, err := events.QueryEvents(ctx, storage.EventFilter{Limit: 1}, storage.Desc)
		if err != nil {
			return nil, err
		}
		if len(latest) > 0 {
			date = latest[0].Date
		} else {
			date = now.Format(internal.DateKey)
		}
	}

	entries, err := events.QueryEvents(ctx, storage.EventFilter{Date: date}, storage.Desc)
	if err != nil {
		return nil, err
	}

	suppressed, err := blacklist.ListBlacklistByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	for _, b := range suppressed {
		e := internal.NewEvent(b.Timestamp, b.Weight, b.Reason+" [Blacklisted]")
		e.Identity = IdentityBlacklisted
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Timestamp.After(entries[j].Timestamp) })

	page := &EditorPage{Date: date, Entries: entries}
	if page.PrevDate, err = adjacentOrCalendar(ctx, events, date, storage.Desc); err != nil {
		return nil, err
	}
	if page.NextDate, err = adjacentOrCalendar(ctx, events, date, storage.Asc); err != nil {
		return nil, err
	}
	return page, nil
}

// adjacentOrCalendar prefers the nearest day that has data and falls back to
// the calendar neighbor.
func adjacentOrCalendar(ctx context.Context, events storage.EventRepository, date string, order storage.Order) (string, error) {
	adj, err := events.AdjacentDate(ctx, date, order)
	if err != nil {
		return "", err
	}
	if adj != "" {
		return adj, nil
	}
	day, err := time.Parse(internal.DateKey, date)
	if err != nil {
		return "", err
	}
	if order == storage.Desc {
		return day.AddDate(0, 0, -1).Format(internal.DateKey), nil
	}
	return day.AddDate(0, 0, 1).Format(internal.DateKey), nil
}
