package internal

import "time"

// Reserved identity values. Anything else is a profile name. Identity is a
// plain string on purpose: deleting a profile must leave historical events
// valid under their stale identity.
const (
	IdentityUnknown = "Unknown"
	IdentityError   = "Error"
	IdentitySystem  = "System"
)

// TimestampKey is the storage-key layout for event timestamps.
const TimestampKey = "2006-01-02 15:04:05"

// DateKey is the layout used for the per-day date column.
const DateKey = "2006-01-02"

// Event is one normalized device log entry. The timestamp is its sole
// identity: re-ingesting the same timestamp is a no-op.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	Date       string            `json:"date"`
	Time       string            `json:"time"`
	Weight     float64           `json:"weight"`
	Activity   string            `json:"activity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Identity   string            `json:"identity"`
	FlagReason string            `json:"flag_reason,omitempty"`
}

// Key returns the natural storage key for the event.
func (e *Event) Key() string {
	return e.Timestamp.Format(TimestampKey)
}

// NewEvent fills the derived date/time columns from the timestamp.
func NewEvent(ts time.Time, weight float64, activity string) *Event {
	return &Event{
		Timestamp: ts,
		Date:      ts.Format(DateKey),
		Time:      ts.Format("15:04:05"),
		Weight:    weight,
		Activity:  activity,
	}
}

// Profile is a registered animal. Birthday is an optional "2006-01-02" string.
type Profile struct {
	Name         string  `json:"name"`
	TargetWeight float64 `json:"target_weight"`
	Color        string  `json:"color"`
	Birthday     string  `json:"birthday,omitempty"`
}

// BlacklistEntry suppresses a (timestamp, weight) observation from ever being
// re-ingested. Reason stores the original activity text.
type BlacklistEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Weight    float64   `json:"weight"`
	Reason    string    `json:"reason"`
}

// Key returns the event key the entry suppresses.
func (b *BlacklistEntry) Key() string {
	return b.Timestamp.Format(TimestampKey)
}

// UploadRecord is an append-only audit entry for one ingested log file.
type UploadRecord struct {
	ID           string    `json:"id"`
	UploadDate   time.Time `json:"upload_date"`
	Filename     string    `json:"filename"`
	EntriesAdded int       `json:"entries_added"`
}
