// Package redis implements the completion store on Redis.
//
// Each record is a JSON value under "<namespace>:<address>", written with
// SETNX so the first writer wins.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/migrator/store"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

const scanBatch = 500

// Store implements store.Store on a Redis client.
type Store struct {
	client goredis.UniversalClient
	cfg    store.Config
}

// New creates a store over client. Close closes the client.
func New(client goredis.UniversalClient, opts ...store.Option) *Store {
	return &Store{
		client: client,
		cfg:    store.NewConfig(opts...),
	}
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.UniversalClient { return s.client }

// Migrate is a no-op; Redis needs no schema.
func (s *Store) Migrate(context.Context) error { return nil }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
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
	raw, err := s.client.Get(ctx, store.Key(s.cfg.Namespace, address)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrRecordNotFound
		}
		return nil, fmt.Errorf("migrator/redis: get record: %w", err)
	}

	var rec store.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("migrator/redis: decode record: %w", err)
	}
	return &rec, nil
}

func (s *Store) MarkMigrated(ctx context.Context, rec *store.Record) error {
	if err := store.Prepare(s.cfg.Namespace, rec); err != nil {
		return err
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("migrator/redis: encode record: %w", err)
	}
	if err := s.client.SetNX(ctx, store.Key(s.cfg.Namespace, rec.Address), payload, 0).Err(); err != nil {
		return fmt.Errorf("migrator/redis: mark migrated: %w", err)
	}
	return nil
}

// Clear deletes every key under the namespace using SCAN.
func (s *Store) Clear(ctx context.Context) error {
	pattern := store.Key(s.cfg.Namespace, "*")
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("migrator/redis: clear scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("migrator/redis: clear delete: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
