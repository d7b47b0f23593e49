// ABOUTME: Durable record-per-booking storage, one JSON file per booked slot
// ABOUTME: Filenames are the sortable UTC form of the slot begin time

package bookings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// timeKeyLayout is the canonical filename form of a slot begin time. It sorts
// lexicographically in chronological order and is unambiguous in UTC.
const timeKeyLayout = "20060102T150405Z"

// Record is the on-disk representation of one booked slot.
type Record struct {
	Begin    time.Time         `json:"begin"`
	Payload  map[string]string `json:"payload"`
	Ref      string            `json:"ref,omitempty"`
	BookedAt time.Time         `json:"booked_at"`
}

// Store keeps one file per booked slot in a flat directory. No other files are
// expected there; unknown entries fail Load rather than being skipped.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore opens (creating if needed) the booking directory.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating booking directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: logger.With("component", "bookings"),
	}, nil
}

// TimeKey returns the canonical filename stem for a slot begin time.
func TimeKey(begin time.Time) string {
	return begin.UTC().Format(timeKeyLayout)
}

func (s *Store) path(begin time.Time) string {
	return filepath.Join(s.dir, TimeKey(begin)+".json")
}

// Save writes the record for its slot, replacing any existing one. The write
// is atomic (temp file + rename) and synced to disk before Save returns, so a
// crash immediately after a successful Save cannot lose the booking.
func (s *Store) Save(rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding booking record: %w", err)
	}

	final := s.path(rec.Begin)
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating booking record: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing booking record: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("syncing booking record: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing booking record: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("publishing booking record: %w", err)
	}

	s.logger.Debug("booking record saved", "path", final)
	return nil
}

// Delete removes the record for a slot begin time. Deleting a record that does
// not exist is not an error; cancellation is idempotent.
func (s *Store) Delete(begin time.Time) error {
	err := os.Remove(s.path(begin))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting booking record: %w", err)
	}
	if err == nil {
		s.logger.Debug("booking record deleted", "key", TimeKey(begin))
	}
	return nil
}

// Load reads every record in the directory, ordered by slot begin time.
func (s *Store) Load() ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading booking directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			return nil, fmt.Errorf("unexpected directory %q in booking directory", e.Name())
		}
		if strings.HasSuffix(e.Name(), ".tmp") {
			// Leftover from a crashed write; the rename never happened, so the
			// booking was never confirmed.
			s.logger.Warn("removing stale temp record", "name", e.Name())
			os.Remove(filepath.Join(s.dir, e.Name()))
			continue
		}
		if !strings.HasSuffix(e.Name(), ".json") {
			return nil, fmt.Errorf("unexpected file %q in booking directory", e.Name())
		}
		names = append(names, e.Name())
	}
	sort.Strings(names) // filename order == chronological order

	records := make([]*Record, 0, len(names))
	for _, name := range names {
		path := filepath.Join(s.dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading booking record %q: %w", name, err)
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decoding booking record %q: %w", name, err)
		}
		records = append(records, &rec)
	}
	return records, nil
}
