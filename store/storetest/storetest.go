// Package storetest is a conformance suite every store.Store backend
// should pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/store"
)

// Factory returns an empty, migrated store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run exercises s against the completion store contract.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("AbsentIsFalse", func(t *testing.T) {
		s := newStore(t)
		defer s.Close() //nolint:errcheck // best-effort cleanup in tests

		ok, err := s.IsMigrated(context.Background(), "GABSENT")
		if err != nil {
			t.Fatalf("IsMigrated failed: %v", err)
		}
		if ok {
			t.Error("expected false for an absent record")
		}

		if _, err := s.GetRecord(context.Background(), "GABSENT"); !errors.Is(err, store.ErrRecordNotFound) {
			t.Errorf("expected ErrRecordNotFound, got %v", err)
		}
	})

	t.Run("MarkThenRead", func(t *testing.T) {
		s := newStore(t)
		defer s.Close() //nolint:errcheck // best-effort cleanup in tests
		ctx := context.Background()

		sess := id.NewSessionID()
		rec := &store.Record{Address: "GMARKED", SessionID: sess, BurnOutcome: "burned", BurnTxHash: "abc"}
		if err := s.MarkMigrated(ctx, rec); err != nil {
			t.Fatalf("MarkMigrated failed: %v", err)
		}

		ok, err := s.IsMigrated(ctx, "GMARKED")
		if err != nil || !ok {
			t.Fatalf("IsMigrated: got %v (%v), want true", ok, err)
		}

		got, err := s.GetRecord(ctx, "GMARKED")
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if got.SessionID.String() != sess.String() {
			t.Errorf("SessionID: got %q, want %q", got.SessionID, sess)
		}
		if got.BurnTxHash != "abc" || !got.Migrated {
			t.Errorf("unexpected record: %+v", got)
		}
	})

	t.Run("WriteOnce", func(t *testing.T) {
		s := newStore(t)
		defer s.Close() //nolint:errcheck // best-effort cleanup in tests
		ctx := context.Background()

		first := id.NewSessionID()
		if err := s.MarkMigrated(ctx, &store.Record{Address: "GONCE", SessionID: first}); err != nil {
			t.Fatalf("first MarkMigrated failed: %v", err)
		}
		if err := s.MarkMigrated(ctx, &store.Record{Address: "GONCE", SessionID: id.NewSessionID()}); err != nil {
			t.Fatalf("second MarkMigrated failed: %v", err)
		}

		got, err := s.GetRecord(ctx, "GONCE")
		if err != nil {
			t.Fatalf("GetRecord failed: %v", err)
		}
		if got.SessionID.String() != first.String() {
			t.Errorf("record was overwritten: got session %q, want %q", got.SessionID, first)
		}
	})

	t.Run("RejectsEmptyAddress", func(t *testing.T) {
		s := newStore(t)
		defer s.Close() //nolint:errcheck // best-effort cleanup in tests

		if err := s.MarkMigrated(context.Background(), &store.Record{}); !errors.Is(err, store.ErrInvalidRecord) {
			t.Errorf("expected ErrInvalidRecord, got %v", err)
		}
	})

	t.Run("ConcurrentMarks", func(t *testing.T) {
		s := newStore(t)
		defer s.Close() //nolint:errcheck // best-effort cleanup in tests
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 32)
		for i := range 32 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				addr := fmt.Sprintf("GCONC%d", i%4)
				if err := s.MarkMigrated(ctx, &store.Record{Address: addr}); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent MarkMigrated failed: %v", err)
		}

		for i := range 4 {
			ok, err := s.IsMigrated(ctx, fmt.Sprintf("GCONC%d", i))
			if err != nil || !ok {
				t.Errorf("GCONC%d: got %v (%v), want true", i, ok, err)
			}
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s := newStore(t)
		defer s.Close() //nolint:errcheck // best-effort cleanup in tests
		ctx := context.Background()

		if err := s.MarkMigrated(ctx, &store.Record{Address: "GCLEAR"}); err != nil {
			t.Fatalf("MarkMigrated failed: %v", err)
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		ok, err := s.IsMigrated(ctx, "GCLEAR")
		if err != nil || ok {
			t.Errorf("after Clear: got %v (%v), want false", ok, err)
		}
	})
}
