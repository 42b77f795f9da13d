// Package mongo implements the completion store on MongoDB via Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/migrator/store"
)

const colRecords = "migrator_records"

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM. Documents are
// keyed by namespace and address in _id, so the primary index enforces
// one record per address.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
	cfg store.Config
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB, opts ...store.Option) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
		cfg: store.NewConfig(opts...),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for the records collection.
func (s *Store) Migrate(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "namespace", Value: 1}}},
		{
			Keys:    bson.D{{Key: "record_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := s.mdb.Collection(colRecords).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("migrator/mongo: migrate %s indexes: %w", colRecords, err)
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
	rec, err := s.GetRecord(ctx, address)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return rec.Migrated, nil
}

func (s *Store) GetRecord(ctx context.Context, address string) (*store.Record, error) {
	var m recordModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": store.Key(s.cfg.Namespace, address)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, store.ErrRecordNotFound
		}
		return nil, fmt.Errorf("migrator/mongo: get record: %w", err)
	}
	return fromRecordModel(&m)
}

// MarkMigrated upserts with $setOnInsert so an existing record is left as is.
func (s *Store) MarkMigrated(ctx context.Context, rec *store.Record) error {
	if err := store.Prepare(s.cfg.Namespace, rec); err != nil {
		return err
	}
	m := toRecordModel(rec)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.RecordKey}).
		SetUpdate(bson.M{"$setOnInsert": bson.M{
			"record_id":    m.ID,
			"namespace":    m.Namespace,
			"address":      m.Address,
			"migrated":     m.Migrated,
			"session_id":   m.SessionID,
			"burn_outcome": m.BurnOutcome,
			"burn_tx_hash": m.BurnTxHash,
			"created_at":   m.CreatedAt,
			"updated_at":   m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("migrator/mongo: mark migrated: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mdb.NewDelete((*recordModel)(nil)).
		Filter(bson.M{"namespace": s.cfg.Namespace}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("migrator/mongo: clear: %w", err)
	}
	return nil
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
