// Package store defines the completion store: the durable record of which
// addresses have finished migrating.
//
// A record is monotonic. Once an address is marked migrated it stays
// migrated; only Clear, meant for reset tooling, removes records.
package store

import (
	"context"
	"errors"

	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/types"
)

// DefaultNamespace scopes records written by the migrator.
const DefaultNamespace = "kin_migration_module"

// Sentinel errors returned by store implementations.
var (
	ErrRecordNotFound = errors.New("store: record not found")
	ErrInvalidRecord  = errors.New("store: record has no address")
)

// Record marks one address as migrated.
type Record struct {
	types.Entity

	ID          id.RecordID  `json:"id"`
	Namespace   string       `json:"namespace"`
	Address     string       `json:"address"`
	Migrated    bool         `json:"migrated"`
	SessionID   id.SessionID `json:"session_id"`
	BurnOutcome string       `json:"burn_outcome,omitempty"`
	BurnTxHash  string       `json:"burn_tx_hash,omitempty"`
}

// Key returns the storage key for address within namespace.
func Key(namespace, address string) string {
	return namespace + ":" + address
}

// Store persists completion records.
type Store interface {
	// IsMigrated reports whether address has a record. Absence is false.
	IsMigrated(ctx context.Context, address string) (bool, error)
	// GetRecord returns the record for address or ErrRecordNotFound.
	GetRecord(ctx context.Context, address string) (*Record, error)
	// MarkMigrated writes rec if no record exists for its address. Writing
	// an address that is already recorded is a successful no-op.
	MarkMigrated(ctx context.Context, rec *Record) error
	// Clear deletes every record in the store's namespace.
	Clear(ctx context.Context) error

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Config holds options shared by all backends.
type Config struct {
	Namespace string
}

// Option configures a backend.
type Option func(*Config)

// WithNamespace scopes records to ns instead of DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(c *Config) {
		if ns != "" {
			c.Namespace = ns
		}
	}
}

// NewConfig applies opts over the defaults.
func NewConfig(opts ...Option) Config {
	c := Config{Namespace: DefaultNamespace}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Prepare validates rec and fills the fields a backend writes: ID,
// namespace, migrated flag and timestamps.
func Prepare(ns string, rec *Record) error {
	if rec == nil || rec.Address == "" {
		return ErrInvalidRecord
	}
	if rec.ID.IsNil() {
		rec.ID = id.NewRecordID()
	}
	if rec.CreatedAt.IsZero() {
		rec.Entity = types.NewEntity()
	}
	rec.Namespace = ns
	rec.Migrated = true
	return nil
}
