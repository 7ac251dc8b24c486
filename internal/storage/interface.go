package storage

import (
	"context"
	"errors"
	"time"

	"github.com/dafioram/litter-tracker/internal"
)

// Order selects the timestamp ordering of a query result.
type Order int

const (
	Asc Order = iota
	Desc
)

// EventFilter narrows a ledger read. Zero values mean "no constraint".
// Flagged selects the review queue: events under the Unknown or Error
// identity, plus any event still carrying a flag reason. System events never
// appear. Reassigning an identity clears the reason, which is how an event
// leaves review.
type EventFilter struct {
	Identity string
	Date     string
	From     time.Time
	To       time.Time
	Flagged  bool
	Limit    int
}

// ErrNotFound is returned by corrections targeting a missing record.
var ErrNotFound = errors.New("record not found")

// EventRepository is the active side of the ledger. InsertEvent is idempotent
// by timestamp key: a duplicate reports inserted=false with a nil error.
type EventRepository interface {
	InsertEvent(ctx context.Context, e *internal.Event) (inserted bool, err error)
	QueryEvents(ctx context.Context, f EventFilter, order Order) ([]internal.Event, error)
	UpdateEventIdentity(ctx context.Context, key, identity string) error
	DeleteEvent(ctx context.Context, key string) error
	AdjacentDate(ctx context.Context, date string, order Order) (string, error)
}

// BlacklistRepository holds suppression records. BlacklistEvent atomically
// moves an active event onto the blacklist; RestoreFromBlacklist rebuilds it
// as an Unknown event marked restored.
type BlacklistRepository interface {
	BlacklistEvent(ctx context.Context, key string) error
	RestoreFromBlacklist(ctx context.Context, key string) (*internal.Event, error)
	ListBlacklist(ctx context.Context) ([]internal.BlacklistEntry, error)
	ListBlacklistByDate(ctx context.Context, date string) ([]internal.BlacklistEntry, error)
}

// ProfileRepository is independent of historical events: deleting a profile
// must not touch events classified under its name.
type ProfileRepository interface {
	UpsertProfile(ctx context.Context, p *internal.Profile) error
	DeleteProfile(ctx context.Context, name string) error
	GetProfile(ctx context.Context, name string) (*internal.Profile, error)
	ListProfiles(ctx context.Context) ([]internal.Profile, error)
}

// UploadRepository is append-only audit history.
type UploadRepository interface {
	RecordUpload(ctx context.Context, u *internal.UploadRecord) error
	ListUploads(ctx context.Context) ([]internal.UploadRecord, error)
}

// Snapshotter copies the current ledger into dir after an ingestion. Failure
// is a side-channel concern: callers log it and move on.
type Snapshotter interface {
	Snapshot(dir string) error
}
