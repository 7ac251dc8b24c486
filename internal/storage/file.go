package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafioram/litter-tracker/internal"
)

// FileStorage keeps the whole ledger in memory and persists each aggregate to
// its own JSON file. Writes are debounced through background save workers so
// an upload of a few thousand rows does not hit the disk per row; the files
// are replaced atomically via rename.
type FileStorage struct {
	mu        sync.RWMutex
	events    map[string]*internal.Event
	profiles  map[string]*internal.Profile
	blacklist map[string]*internal.BlacklistEntry
	uploads   []*internal.UploadRecord

	eventsFile    string
	profilesFile  string
	blacklistFile string
	uploadsFile   string

	saveEventsChan chan struct{}
	saveAuxChan    chan struct{}
	shutdownChan   chan struct{}
	saveDelay      time.Duration
	closeOnce      sync.Once

	// saveMu serializes disk writes: the save workers and the explicit
	// flushes in Snapshot and Close share the same tmp-and-rename paths.
	saveMu sync.Mutex

	logger internal.Logger
}

// NewFileStorage loads any existing data files and starts the save workers.
func NewFileStorage(eventsFile, profilesFile, blacklistFile, uploadsFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		events:         make(map[string]*internal.Event),
		profiles:       make(map[string]*internal.Profile),
		blacklist:      make(map[string]*internal.BlacklistEntry),
		eventsFile:     eventsFile,
		profilesFile:   profilesFile,
		blacklistFile:  blacklistFile,
		uploadsFile:    uploadsFile,
		saveEventsChan: make(chan struct{}, 1),
		saveAuxChan:    make(chan struct{}, 1),
		shutdownChan:   make(chan struct{}),
		saveDelay:      500 * time.Millisecond,
		logger:         logger,
	}

	if err := loadJSONFile(eventsFile, func(list []*internal.Event) {
		for _, e := range list {
			s.events[e.Key()] = e
		}
	}); err != nil {
		return nil, fmt.Errorf("storage: failed to load events: %w", err)
	}
	if err := loadJSONFile(profilesFile, func(list []*internal.Profile) {
		for _, p := range list {
			s.profiles[p.Name] = p
		}
	}); err != nil {
		return nil, fmt.Errorf("storage: failed to load profiles: %w", err)
	}
	if err := loadJSONFile(blacklistFile, func(list []*internal.BlacklistEntry) {
		for _, b := range list {
			s.blacklist[b.Key()] = b
		}
	}); err != nil {
		return nil, fmt.Errorf("storage: failed to load blacklist: %w", err)
	}
	if err := loadJSONFile(uploadsFile, func(list []*internal.UploadRecord) {
		s.uploads = list
	}); err != nil {
		return nil, fmt.Errorf("storage: failed to load uploads: %w", err)
	}

	go s.saveWorker(s.saveEventsChan, s.saveEvents)
	go s.saveWorker(s.saveAuxChan, s.saveAux)

	return s, nil
}

func loadJSONFile[T any](path string, apply func([]T)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	var list []T
	if err := json.NewDecoder(f).Decode(&list); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	apply(list)
	return nil
}

func atomicWriteFileJSON(path string, data interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// saveWorker batches save signals so bursts collapse into one disk write.
func (s *FileStorage) saveWorker(signal chan struct{}, save func() error) {
	timer := time.NewTimer(s.saveDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: save failed: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func signalSave(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *FileStorage) saveEvents() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	list := make([]*internal.Event, 0, len(s.events))
	for _, e := range s.events {
		list = append(list, e)
	}
	s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	return atomicWriteFileJSON(s.eventsFile, list)
}

func (s *FileStorage) saveAux() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	s.mu.RLock()
	profiles := make([]*internal.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		profiles = append(profiles, p)
	}
	blacklist := make([]*internal.BlacklistEntry, 0, len(s.blacklist))
	for _, b := range s.blacklist {
		blacklist = append(blacklist, b)
	}
	uploads := make([]*internal.UploadRecord, len(s.uploads))
	copy(uploads, s.uploads)
	s.mu.RUnlock()

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	sort.Slice(blacklist, func(i, j int) bool { return blacklist[i].Timestamp.Before(blacklist[j].Timestamp) })

	if err := atomicWriteFileJSON(s.profilesFile, profiles); err != nil {
		return err
	}
	if err := atomicWriteFileJSON(s.blacklistFile, blacklist); err != nil {
		return err
	}
	return atomicWriteFileJSON(s.uploadsFile, uploads)
}

// --- EventRepository ---

func (s *FileStorage) InsertEvent(ctx context.Context, e *internal.Event) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := e.Key()
	if _, exists := s.events[key]; exists {
		return false, nil
	}
	clone := *e
	s.events[key] = &clone
	signalSave(s.saveEventsChan)
	return true, nil
}

func (s *FileStorage) QueryEvents(ctx context.Context, f EventFilter, order Order) ([]internal.Event, error) {
	s.mu.RLock()
	list := make([]internal.Event, 0, len(s.events))
	for _, e := range s.events {
		if matchesFilter(e, f) {
			list = append(list, *e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		if order == Desc {
			return list[i].Timestamp.After(list[j].Timestamp)
		}
		return list[i].Timestamp.Before(list[j].Timestamp)
	})
	if f.Limit > 0 && len(list) > f.Limit {
		list = list[:f.Limit]
	}
	return list, nil
}

func matchesFilter(e *internal.Event, f EventFilter) bool {
	if f.Identity != "" && e.Identity != f.Identity {
		return false
	}
	if f.Date != "" && e.Date != f.Date {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Timestamp.Before(f.To) {
		return false
	}
	if f.Flagged {
		if e.Identity == internal.IdentitySystem {
			return false
		}
		if e.FlagReason == "" && e.Identity != internal.IdentityError && e.Identity != internal.IdentityUnknown {
			return false
		}
	}
	return true
}

func (s *FileStorage) UpdateEventIdentity(ctx context.Context, key, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[key]
	if !ok {
		return ErrNotFound
	}
	e.Identity = identity
	e.FlagReason = ""
	signalSave(s.saveEventsChan)
	return nil
}

func (s *FileStorage) DeleteEvent(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[key]; !ok {
		return ErrNotFound
	}
	delete(s.events, key)
	signalSave(s.saveEventsChan)
	return nil
}

func (s *FileStorage) AdjacentDate(ctx context.Context, date string, order Order) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best := ""
	for _, e := range s.events {
		if order == Desc {
			if e.Date < date && (best == "" || e.Date > best) {
				best = e.Date
			}
		} else {
			if e.Date > date && (best == "" || e.Date < best) {
				best = e.Date
			}
		}
	}
	return best, nil
}

// --- BlacklistRepository ---

func (s *FileStorage) BlacklistEvent(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[key]
	if !ok {
		return ErrNotFound
	}
	s.blacklist[key] = &internal.BlacklistEntry{
		Timestamp: e.Timestamp,
		Weight:    e.Weight,
		Reason:    e.Activity,
	}
	delete(s.events, key)
	signalSave(s.saveEventsChan)
	signalSave(s.saveAuxChan)
	return nil
}

func (s *FileStorage) RestoreFromBlacklist(ctx context.Context, key string) (*internal.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.blacklist[key]
	if !ok {
		return nil, ErrNotFound
	}
	e := internal.NewEvent(b.Timestamp, b.Weight, b.Reason)
	e.Identity = internal.IdentityUnknown
	e.FlagReason = "Restored from Blacklist"
	s.events[key] = e
	delete(s.blacklist, key)
	signalSave(s.saveEventsChan)
	signalSave(s.saveAuxChan)
	restored := *e
	return &restored, nil
}

func (s *FileStorage) ListBlacklist(ctx context.Context) ([]internal.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]internal.BlacklistEntry, 0, len(s.blacklist))
	for _, b := range s.blacklist {
		list = append(list, *b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	return list, nil
}

func (s *FileStorage) ListBlacklistByDate(ctx context.Context, date string) ([]internal.BlacklistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []internal.BlacklistEntry
	for key, b := range s.blacklist {
		if strings.HasPrefix(key, date) {
			list = append(list, *b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
	return list, nil
}

// --- ProfileRepository ---

func (s *FileStorage) UpsertProfile(ctx context.Context, p *internal.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	s.profiles[p.Name] = &clone
	signalSave(s.saveAuxChan)
	return nil
}

// DeleteProfile removes only the profile. Events classified under its name
// keep the stale identity string.
func (s *FileStorage) DeleteProfile(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[name]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, name)
	signalSave(s.saveAuxChan)
	return nil
}

func (s *FileStorage) GetProfile(ctx context.Context, name string) (*internal.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[name]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *FileStorage) ListProfiles(ctx context.Context) ([]internal.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]internal.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		list = append(list, *p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// --- UploadRepository ---

func (s *FileStorage) RecordUpload(ctx context.Context, u *internal.UploadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *u
	s.uploads = append(s.uploads, &clone)
	signalSave(s.saveAuxChan)
	return nil
}

func (s *FileStorage) ListUploads(ctx context.Context) ([]internal.UploadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]internal.UploadRecord, 0, len(s.uploads))
	for _, u := range s.uploads {
		list = append(list, *u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].UploadDate.After(list[j].UploadDate) })
	return list, nil
}

// --- Snapshotter ---

// Snapshot flushes pending state and copies the data files into dir with a
// timestamped prefix.
func (s *FileStorage) Snapshot(dir string) error {
	if err := s.saveEvents(); err != nil {
		return err
	}
	if err := s.saveAux(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	stamp := time.Now().Format("20060102_150405")
	for _, src := range []string{s.eventsFile, s.profilesFile, s.blacklistFile, s.uploadsFile} {
		data, err := os.ReadFile(src)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		dst := filepath.Join(dir, stamp+"_"+filepath.Base(src))
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

// Close stops the save workers and flushes pending data synchronously.
func (s *FileStorage) Close() error {
	s.closeOnce.Do(func() { close(s.shutdownChan) })
	if err := s.saveEvents(); err != nil {
		return err
	}
	return s.saveAux()
}

var (
	_ EventRepository     = (*FileStorage)(nil)
	_ BlacklistRepository = (*FileStorage)(nil)
	_ ProfileRepository   = (*FileStorage)(nil)
	_ UploadRepository    = (*FileStorage)(nil)
	_ Snapshotter         = (*FileStorage)(nil)
)
