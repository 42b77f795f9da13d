// Package memory is an in-process completion store for tests and
// single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/migrator/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps records in a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	cfg     store.Config
	records map[string]*store.Record
}

// New creates an empty memory store.
func New(opts ...store.Option) *Store {
	return &Store{
		cfg:     store.NewConfig(opts...),
		records: make(map[string]*store.Record),
	}
}

func (s *Store) IsMigrated(_ context.Context, address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[store.Key(s.cfg.Namespace, address)]
	return ok && rec.Migrated, nil
}

func (s *Store) GetRecord(_ context.Context, address string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[store.Key(s.cfg.Namespace, address)]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) MarkMigrated(_ context.Context, rec *store.Record) error {
	if err := store.Prepare(s.cfg.Namespace, rec); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := store.Key(s.cfg.Namespace, rec.Address)
	if _, exists := s.records[key]; exists {
		return nil
	}
	cp := *rec
	s.records[key] = &cp
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*store.Record)
	return nil
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Store) Migrate(context.Context) error { return nil }

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }
