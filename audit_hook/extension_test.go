package audithook_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	audithook "github.com/xraph/migrator/audit_hook"
	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/state"
	"github.com/xraph/migrator/version"
)

type sink struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
	err    error
}

func (s *sink) Record(_ context.Context, evt *audithook.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return s.err
}

func (s *sink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Action
	}
	return out
}

func TestExtensionRecordsEvents(t *testing.T) {
	s := &sink{}
	e := audithook.New(s)
	ctx := context.Background()

	_ = e.OnBurnCompleted(ctx, "GADDR", burner.Burned, "abc")
	_ = e.OnBurnFailed(ctx, "GADDR", errors.New("tx_bad_seq"))
	_ = e.OnClientReady(ctx, "GADDR", version.Current, state.PathMigrated)

	if len(s.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(s.events))
	}

	burned := s.events[0]
	if burned.Action != audithook.ActionBurnCompleted || burned.ResourceID != "GADDR" {
		t.Errorf("unexpected burn event: %+v", burned)
	}
	if burned.Metadata["tx_hash"] != "abc" || burned.Metadata["outcome"] != "burned" {
		t.Errorf("unexpected burn metadata: %v", burned.Metadata)
	}

	failed := s.events[1]
	if failed.Severity != audithook.SeverityCritical || failed.Outcome != audithook.OutcomeFailure {
		t.Errorf("unexpected failure event: %+v", failed)
	}
	if failed.Reason != "tx_bad_seq" {
		t.Errorf("reason: got %q, want tx_bad_seq", failed.Reason)
	}

	if s.events[2].Metadata["path"] != "migrated" {
		t.Errorf("ready path: got %v, want migrated", s.events[2].Metadata["path"])
	}
}

func TestActionFilters(t *testing.T) {
	tests := []struct {
		name string
		opt  audithook.Option
		want []string
	}{
		{
			name: "enabled only",
			opt:  audithook.WithEnabledActions(audithook.ActionMigrationStarted),
			want: []string{audithook.ActionMigrationStarted},
		},
		{
			name: "disabled",
			opt:  audithook.WithDisabledActions(audithook.ActionMigrationStarted),
			want: []string{audithook.ActionVersionResolved, audithook.ActionRecordDisagreement},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sink{}
			e := audithook.New(s, tt.opt)
			ctx := context.Background()

			_ = e.OnVersionResolved(ctx, "GADDR", version.Legacy)
			_ = e.OnMigrationStarted(ctx, "GADDR")
			_ = e.OnRecordDisagreement(ctx, "GADDR", version.Legacy)

			got := s.actions()
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("action %d: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	e := audithook.New(audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
		return errors.New("backend down")
	}))

	if err := e.OnMigrationFailed(context.Background(), "GADDR", errors.New("boom")); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
