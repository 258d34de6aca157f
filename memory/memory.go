// Package memory provides an in-process dagcheck.Store.
//
// Entries live only as long as the process; it backs the validation history
// when no database is configured and serves as the store in tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meikuraledutech/dagcheck"
)

var _ dagcheck.Store = (*Store)(nil)

// Store is a mutex-guarded map of history entries.
type Store struct {
	mu      sync.RWMutex
	records map[string]dagcheck.Record
	now     func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		records: make(map[string]dagcheck.Record),
		now:     time.Now,
	}
}

// CreateSchema is a no-op.
func (s *Store) CreateSchema(context.Context) error { return nil }

// DropSchema removes every entry.
func (s *Store) DropSchema(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.records)
	return nil
}

func (s *Store) RecordValidation(_ context.Context, rec *dagcheck.Record) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	return rec.ID, nil
}

// GetValidation returns nil, nil if id is unknown.
func (s *Store) GetValidation(_ context.Context, id string) (*dagcheck.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// ListValidations returns up to limit entries, newest first.
func (s *Store) ListValidations(_ context.Context, limit int) ([]dagcheck.Record, error) {
	s.mu.RLock()
	out := make([]dagcheck.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b dagcheck.Record) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DeleteValidation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return dagcheck.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}
