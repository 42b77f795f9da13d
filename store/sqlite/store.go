// Package sqlite implements the completion store on SQLite via Grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/migrator/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
	cfg store.Config
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB, opts ...store.Option) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
		cfg: store.NewConfig(opts...),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the records table using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("migrator/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("migrator/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) IsMigrated(ctx context.Context, address string) (bool, error) {
	var count int64
	err := s.sdb.NewRaw(`
		SELECT COUNT(*) FROM migrator_records
		WHERE record_key = ? AND migrated = 1
	`, store.Key(s.cfg.Namespace, address)).Scan(ctx, &count)
	if err != nil {
		return false, fmt.Errorf("migrator/sqlite: is migrated: %w", err)
	}
	return count > 0, nil
}

func (s *Store) GetRecord(ctx context.Context, address string) (*store.Record, error) {
	m := new(recordModel)
	err := s.sdb.NewSelect(m).
		Where("record_key = ?", store.Key(s.cfg.Namespace, address)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, store.ErrRecordNotFound
		}
		return nil, fmt.Errorf("migrator/sqlite: get record: %w", err)
	}
	return fromRecordModel(m)
}

func (s *Store) MarkMigrated(ctx context.Context, rec *store.Record) error {
	if err := store.Prepare(s.cfg.Namespace, rec); err != nil {
		return err
	}
	_, err := s.sdb.NewInsert(toRecordModel(rec)).
		OnConflict("(record_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("migrator/sqlite: mark migrated: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.sdb.NewDelete((*recordModel)(nil)).
		Where("namespace = ?", s.cfg.Namespace).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("migrator/sqlite: clear: %w", err)
	}
	return nil
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
