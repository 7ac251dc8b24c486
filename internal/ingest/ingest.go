package ingest

import (
	"context"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dafioram/litter-tracker/internal"
	"github.com/dafioram/litter-tracker/internal/config"
	"github.com/dafioram/litter-tracker/internal/metrics"
	"github.com/dafioram/litter-tracker/internal/storage"
)

// ErrNoProfiles rejects an upload before any profile exists; classification
// would mark every animal row Unknown.
var ErrNoProfiles = internal.NewAppError(400, "at least one profile is required before uploading data")

// Result summarizes one ingested batch.
type Result struct {
	Added      int  `json:"added"`
	Skipped    int  `json:"skipped"`
	Suppressed int  `json:"suppressed"`
	Duplicates int  `json:"duplicates"`
	BackupOK   bool `json:"backup_ok"`
}

// Ingestor runs the parse → classify → correlate → commit pipeline. Batches
// are serialized through a mutex: one upload is fully committed before the
// next begins.
type Ingestor struct {
	mu        sync.Mutex
	logger    internal.Logger
	events    storage.EventRepository
	blacklist storage.BlacklistRepository
	profiles  storage.ProfileRepository
	uploads   storage.UploadRepository
	snap      storage.Snapshotter
	parser    *Parser
	tolerance float64
	backupDir string
}

func NewIngestor(store storage.Store, cfg *config.Config, logger internal.Logger) *Ingestor {
	return &Ingestor{
		logger:    logger,
		events:    store,
		blacklist: store,
		profiles:  store,
		uploads:   store,
		snap:      store,
		parser:    NewParser(cfg.TimezoneOffset),
		tolerance: cfg.WeightTolerance,
		backupDir: cfg.BackupDir,
	}
}

// suppressionKey matches the blacklist on the (timestamp, weight) pair.
func suppressionKey(key string, weight float64) string {
	return key + "|" + strconv.FormatFloat(weight, 'g', -1, 64)
}

// IngestLog processes one raw log stream end to end. Unparseable rows lower
// the added count silently; a failed backup snapshot is logged and does not
// fail the upload.
func (ing *Ingestor) IngestLog(ctx context.Context, source string, r io.Reader) (*Result, error) {
	ing.mu.Lock()
	defer ing.mu.Unlock()

	profiles, err := ing.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}

	suppressed, err := ing.suppressionSet(ctx)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	var rows []Row
	sc := ing.parser.Scan(r)
	for sc.Next() {
		row := sc.Row()
		metrics.RowsParsed.Inc()
		key := row.Timestamp.Format(internal.TimestampKey)
		if suppressed[suppressionKey(key, row.Weight)] {
			res.Suppressed++
			metrics.RowsSuppressed.Inc()
			continue
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	res.Skipped = sc.Skipped()
	metrics.RowsSkipped.Add(float64(res.Skipped))

	// Correlation depends on batch order, not arrival order.
	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })

	for i, row := range rows {
		cls := Classify(row, profiles, ing.tolerance)
		cls = Correlate(rows, i, cls, profiles, ing.tolerance)

		e := internal.NewEvent(row.Timestamp, row.Weight, row.Activity)
		e.Metadata = map[string]string{"raw_val": row.RawValue}
		e.Identity = cls.Identity
		e.FlagReason = cls.Reason

		inserted, err := ing.events.InsertEvent(ctx, e)
		if err != nil {
			return nil, err
		}
		if inserted {
			res.Added++
			metrics.EventsIngested.Inc()
		} else {
			res.Duplicates++
			metrics.DuplicatesIgnored.Inc()
		}
	}

	record := &internal.UploadRecord{
		ID:           uuid.NewString(),
		UploadDate:   time.Now(),
		Filename:     source,
		EntriesAdded: res.Added,
	}
	if err := ing.uploads.RecordUpload(ctx, record); err != nil {
		return nil, err
	}
	metrics.UploadsTotal.Inc()

	if err := ing.snap.Snapshot(ing.backupDir); err != nil {
		ing.logger.Warnf("post-ingestion backup failed: %v", err)
	} else {
		res.BackupOK = true
	}

	ing.logger.Infof("ingested %s: added=%d skipped=%d suppressed=%d duplicates=%d",
		source, res.Added, res.Skipped, res.Suppressed, res.Duplicates)
	return res, nil
}

func (ing *Ingestor) suppressionSet(ctx context.Context) (map[string]bool, error) {
	entries, err := ing.blacklist.ListBlacklist(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(entries))
	for _, b := range entries {
		set[suppressionKey(b.Key(), b.Weight)] = true
	}
	return set, nil
}
