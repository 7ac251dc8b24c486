package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dafioram/litter-tracker/internal"
)

// writeTimeout bounds how long a write waits on lock contention before it
// fails instead of blocking the caller indefinitely.
const writeTimeout = 5 * time.Second

// PostgresStorage implements the ledger on pgx. Every statement is
// parameterized; filter values are never spliced into query text.
type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	s := &PostgresStorage{pool: pool, logger: logger}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (p *PostgresStorage) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS events (
			ts TIMESTAMP PRIMARY KEY,
			date TEXT NOT NULL,
			time TEXT NOT NULL,
			weight DOUBLE PRECISION NOT NULL,
			activity TEXT NOT NULL,
			metadata JSONB,
			identity TEXT NOT NULL,
			flag_reason TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS blacklist (
			ts TIMESTAMP PRIMARY KEY,
			weight DOUBLE PRECISION NOT NULL,
			reason TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			name TEXT PRIMARY KEY,
			target_weight DOUBLE PRECISION NOT NULL,
			color TEXT NOT NULL,
			birthday TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS uploads (
			id TEXT PRIMARY KEY,
			upload_date TIMESTAMP NOT NULL,
			filename TEXT NOT NULL,
			entries_added INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			p.logger.Errorf("migration failed: %v", err)
			return err
		}
	}
	return nil
}

func parseKey(key string) (time.Time, error) {
	return time.ParseInLocation(internal.TimestampKey, key, time.UTC)
}

// --- EventRepository ---

func (p *PostgresStorage) InsertEvent(ctx context.Context, e *internal.Event) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return false, err
	}
	tag, err := p.pool.Exec(ctx,
		`INSERT INTO events (ts, date, time, weight, activity, metadata, identity, flag_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (ts) DO NOTHING`,
		e.Timestamp, e.Date, e.Time, e.Weight, e.Activity, meta, e.Identity, e.FlagReason)
	if err != nil {
		p.logger.Errorf("failed to insert event: %v", err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *PostgresStorage) QueryEvents(ctx context.Context, f EventFilter, order Order) ([]internal.Event, error) {
	query := `SELECT ts, date, time, weight, activity, metadata, identity, flag_reason FROM events WHERE 1=1`
	var args []any
	n := 0
	arg := func(v any) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}

	if f.Identity != "" {
		query += ` AND identity = ` + arg(f.Identity)
	}
	if f.Date != "" {
		query += ` AND date = ` + arg(f.Date)
	}
	if !f.From.IsZero() {
		query += ` AND ts >= ` + arg(f.From)
	}
	if !f.To.IsZero() {
		query += ` AND ts < ` + arg(f.To)
	}
	if f.Flagged {
		query += ` AND (identity = ` + arg(internal.IdentityError) +
			` OR identity = ` + arg(internal.IdentityUnknown) +
			` OR flag_reason != '') AND identity != ` + arg(internal.IdentitySystem)
	}
	if order == Desc {
		query += ` ORDER BY ts DESC`
	} else {
		query += ` ORDER BY ts ASC`
	}
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query events: %v", err)
		return nil, err
	}
	defer rows.Close()

	var list []internal.Event
	for rows.Next() {
		var e internal.Event
		var meta []byte
		if err := rows.Scan(&e.Timestamp, &e.Date, &e.Time, &e.Weight, &e.Activity, &meta, &e.Identity, &e.FlagReason); err != nil {
			p.logger.Errorf("failed to scan event: %v", err)
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, err
			}
		}
		e.Timestamp = e.Timestamp.UTC()
		list = append(list, e)
	}
	return list, rows.Err()
}

func (p *PostgresStorage) UpdateEventIdentity(ctx context.Context, key, identity string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ts, err := parseKey(key)
	if err != nil {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE events SET identity = $1, flag_reason = '' WHERE ts = $2`, identity, ts)
	if err != nil {
		p.logger.Errorf("failed to update event identity: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) DeleteEvent(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ts, err := parseKey(key)
	if err != nil {
		return ErrNotFound
	}
	tag, err := p.pool.Exec(ctx, `DELETE FROM events WHERE ts = $1`, ts)
	if err != nil {
		p.logger.Errorf("failed to delete event: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) AdjacentDate(ctx context.Context, date string, order Order) (string, error) {
	var query string
	if order == Desc {
		query = `SELECT date FROM events WHERE date < $1 ORDER BY date DESC LIMIT 1`
	} else {
		query = `SELECT date FROM events WHERE date > $1 ORDER BY date ASC LIMIT 1`
	}
	var adjacent string
	err := p.pool.QueryRow(ctx, query, date).Scan(&adjacent)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return adjacent, nil
}

// --- BlacklistRepository ---

func (p *PostgresStorage) BlacklistEvent(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ts, err := parseKey(key)
	if err != nil {
		return ErrNotFound
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var weight float64
	var activity string
	err = tx.QueryRow(ctx, `SELECT weight, activity FROM events WHERE ts = $1`, ts).Scan(&weight, &activity)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO blacklist (ts, weight, reason) VALUES ($1, $2, $3) ON CONFLICT (ts) DO NOTHING`,
		ts, weight, activity); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM events WHERE ts = $1`, ts); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (p *PostgresStorage) RestoreFromBlacklist(ctx context.Context, key string) (*internal.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	ts, err := parseKey(key)
	if err != nil {
		return nil, ErrNotFound
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var b internal.BlacklistEntry
	err = tx.QueryRow(ctx, `SELECT ts, weight, reason FROM blacklist WHERE ts = $1`, ts).
		Scan(&b.Timestamp, &b.Weight, &b.Reason)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	e := internal.NewEvent(b.Timestamp.UTC(), b.Weight, b.Reason)
	e.Identity = internal.IdentityUnknown
	e.FlagReason = "Restored from Blacklist"
	meta, _ := json.Marshal(e.Metadata)
	if _, err := tx.Exec(ctx,
		`INSERT INTO events (ts, date, time, weight, activity, metadata, identity, flag_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (ts) DO NOTHING`,
		e.Timestamp, e.Date, e.Time, e.Weight, e.Activity, meta, e.Identity, e.FlagReason); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM blacklist WHERE ts = $1`, ts); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *PostgresStorage) ListBlacklist(ctx context.Context) ([]internal.BlacklistEntry, error) {
	return p.queryBlacklist(ctx, `SELECT ts, weight, reason FROM blacklist ORDER BY ts ASC`)
}

func (p *PostgresStorage) ListBlacklistByDate(ctx context.Context, date string) ([]internal.BlacklistEntry, error) {
	return p.queryBlacklist(ctx,
		`SELECT ts, weight, reason FROM blacklist WHERE ts >= $1::date AND ts < $1::date + INTERVAL '1 day' ORDER BY ts DESC`,
		date)
}

func (p *PostgresStorage) queryBlacklist(ctx context.Context, query string, args ...any) ([]internal.BlacklistEntry, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("failed to query blacklist: %v", err)
		return nil, err
	}
	defer rows.Close()

	var list []internal.BlacklistEntry
	for rows.Next() {
		var b internal.BlacklistEntry
		if err := rows.Scan(&b.Timestamp, &b.Weight, &b.Reason); err != nil {
			return nil, err
		}
		b.Timestamp = b.Timestamp.UTC()
		list = append(list, b)
	}
	return list, rows.Err()
}

// --- ProfileRepository ---

func (p *PostgresStorage) UpsertProfile(ctx context.Context, pr *internal.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := p.pool.Exec(ctx,
		`INSERT INTO profiles (name, target_weight, color, birthday) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET target_weight = $2, color = $3, birthday = $4`,
		pr.Name, pr.TargetWeight, pr.Color, pr.Birthday)
	if err != nil {
		p.logger.Errorf("failed to upsert profile: %v", err)
	}
	return err
}

func (p *PostgresStorage) DeleteProfile(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	tag, err := p.pool.Exec(ctx, `DELETE FROM profiles WHERE name = $1`, name)
	if err != nil {
		p.logger.Errorf("failed to delete profile: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) GetProfile(ctx context.Context, name string) (*internal.Profile, error) {
	var pr internal.Profile
	var birthday *string
	err := p.pool.QueryRow(ctx,
		`SELECT name, target_weight, color, birthday FROM profiles WHERE name = $1`, name).
		Scan(&pr.Name, &pr.TargetWeight, &pr.Color, &birthday)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if birthday != nil {
		pr.Birthday = *birthday
	}
	return &pr, nil
}

func (p *PostgresStorage) ListProfiles(ctx context.Context) ([]internal.Profile, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT name, target_weight, color, birthday FROM profiles ORDER BY name ASC`)
	if err != nil {
		p.logger.Errorf("failed to query profiles: %v", err)
		return nil, err
	}
	defer rows.Close()

	var list []internal.Profile
	for rows.Next() {
		var pr internal.Profile
		var birthday *string
		if err := rows.Scan(&pr.Name, &pr.TargetWeight, &pr.Color, &birthday); err != nil {
			return nil, err
		}
		if birthday != nil {
			pr.Birthday = *birthday
		}
		list = append(list, pr)
	}
	return list, rows.Err()
}

// --- UploadRepository ---

func (p *PostgresStorage) RecordUpload(ctx context.Context, u *internal.UploadRecord) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := p.pool.Exec(ctx,
		`INSERT INTO uploads (id, upload_date, filename, entries_added) VALUES ($1, $2, $3, $4)`,
		u.ID, u.UploadDate, u.Filename, u.EntriesAdded)
	if err != nil {
		p.logger.Errorf("failed to record upload: %v", err)
	}
	return err
}

func (p *PostgresStorage) ListUploads(ctx context.Context) ([]internal.UploadRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, upload_date, filename, entries_added FROM uploads ORDER BY upload_date DESC`)
	if err != nil {
		p.logger.Errorf("failed to query uploads: %v", err)
		return nil, err
	}
	defer rows.Close()

	var list []internal.UploadRecord
	for rows.Next() {
		var u internal.UploadRecord
		if err := rows.Scan(&u.ID, &u.UploadDate, &u.Filename, &u.EntriesAdded); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Snapshot is a no-op for postgres; database backups are an operational
// concern outside this process.
func (p *PostgresStorage) Snapshot(dir string) error {
	p.logger.Debugf("snapshot skipped for postgres backend")
	return nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

var (
	_ EventRepository     = (*PostgresStorage)(nil)
	_ BlacklistRepository = (*PostgresStorage)(nil)
	_ ProfileRepository   = (*PostgresStorage)(nil)
	_ UploadRepository    = (*PostgresStorage)(nil)
	_ Snapshotter         = (*PostgresStorage)(nil)
)
