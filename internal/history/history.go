// Package history persists completed exercises as one JSON array in a kv.Store.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samber/lo"

	"github.com/verte-zerg/lugemine/internal/kv"
	"github.com/verte-zerg/lugemine/internal/model"
)

const (
	// Key is the storage key of the history blob.
	Key = "lugemine_history"
	// BackupKey keeps the last malformed blob that Append replaced.
	BackupKey = Key + ".bak"
)

// Store reads and writes the history blob. Writes are read-modify-write of the
// whole list; one process is assumed to own the store.
type Store struct {
	kv     kv.Store
	logger *slog.Logger
}

// New returns a history store over kvStore. A nil logger discards output.
func New(kvStore kv.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{kv: kvStore, logger: logger}
}

// List returns every record in insertion order. A malformed blob is logged and
// treated as empty.
func (s *Store) List(ctx context.Context) ([]model.Record, error) {
	records, _, err := s.load(ctx)
	return records, err
}

// Append adds rec to the end of the list. A malformed blob is copied to
// BackupKey before it is replaced.
func (s *Store) Append(ctx context.Context, rec model.Record) error {
	records, malformed, err := s.load(ctx)
	if err != nil {
		return err
	}
	if malformed != nil {
		if err := s.kv.Set(ctx, BackupKey, malformed); err != nil {
			return fmt.Errorf("back up malformed history: %w", err)
		}
		s.logger.Warn("replacing malformed history blob", "backup", BackupKey, "bytes", len(malformed))
	}
	if rec.Mistakes == nil {
		rec.Mistakes = []string{}
	}
	records = append(records, rec)
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := s.kv.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	s.logger.Debug("history record appended", "exercise", rec.ExerciseTitle, "count", len(records))
	return nil
}

// load reads the blob. When it cannot be decoded the raw bytes are returned
// alongside an empty list.
func (s *Store) load(ctx context.Context) ([]model.Record, []byte, error) {
	data, err := s.kv.Get(ctx, Key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read history: %w", err)
	}
	var records []model.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.Warn("history blob is malformed, treating as empty", "err", err)
		return nil, data, nil
	}
	return records, nil, nil
}

// Record implements the session recorder.
func (s *Store) Record(ctx context.Context, rec model.Record) error {
	return s.Append(ctx, rec)
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, Key); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// Sorted returns a copy of records, newest first.
func Sorted(records []model.Record) []model.Record {
	out := append([]model.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// Filter keeps records matching the difficulty and since filters, then keeps
// the newest cfg.Last of them. The result is in input order.
func Filter(records []model.Record, cfg model.HistoryConfig) []model.Record {
	out := lo.Filter(records, func(rec model.Record, _ int) bool {
		if cfg.Difficulty != "" && rec.Difficulty != cfg.Difficulty {
			return false
		}
		if cfg.Since != nil && rec.Date.Before(*cfg.Since) {
			return false
		}
		return true
	})
	if cfg.Last > 0 && len(out) > cfg.Last {
		newest := Sorted(out)[:cfg.Last]
		keep := lo.SliceToMap(newest, func(rec model.Record) (recordKey, bool) {
			return keyOf(rec), true
		})
		out = lo.Filter(out, func(rec model.Record, _ int) bool {
			return keep[keyOf(rec)]
		})
	}
	return out
}

type recordKey struct {
	date  int64
	title string
}

func keyOf(rec model.Record) recordKey {
	return recordKey{date: rec.Date.UnixNano(), title: rec.ExerciseTitle}
}
