// Package audithook bridges migrator lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/plugin"
	"github.com/xraph/migrator/state"
	"github.com/xraph/migrator/version"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin               = (*Extension)(nil)
	_ plugin.OnSessionStarted     = (*Extension)(nil)
	_ plugin.OnClientReady        = (*Extension)(nil)
	_ plugin.OnMigrationFailed    = (*Extension)(nil)
	_ plugin.OnVersionResolved    = (*Extension)(nil)
	_ plugin.OnVersionCheckFailed = (*Extension)(nil)
	_ plugin.OnRecordDisagreement = (*Extension)(nil)
	_ plugin.OnMigrationStarted   = (*Extension)(nil)
	_ plugin.OnMigrationCompleted = (*Extension)(nil)
	_ plugin.OnBurnCompleted      = (*Extension)(nil)
	_ plugin.OnBurnFailed         = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges migrator lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Session hooks
// ──────────────────────────────────────────────────

// OnSessionStarted implements plugin.OnSessionStarted.
func (e *Extension) OnSessionStarted(ctx context.Context, sessionID id.SessionID, address string) error {
	return e.record(ctx, ActionSessionStarted, SeverityInfo, OutcomeSuccess,
		ResourceSession, sessionID.String(), CategoryMigration, nil,
		"address", address,
	)
}

// OnClientReady implements plugin.OnClientReady.
func (e *Extension) OnClientReady(ctx context.Context, address string, v version.Version, reason state.Path) error {
	return e.record(ctx, ActionSessionReady, SeverityInfo, OutcomeSuccess,
		ResourceAccount, address, CategoryMigration, nil,
		"version", v.String(),
		"path", reason.String(),
	)
}

// OnMigrationFailed implements plugin.OnMigrationFailed.
func (e *Extension) OnMigrationFailed(ctx context.Context, address string, err error) error {
	return e.record(ctx, ActionSessionFailed, SeverityError, OutcomeFailure,
		ResourceAccount, address, CategoryMigration, err,
	)
}

// ──────────────────────────────────────────────────
// Version hooks
// ──────────────────────────────────────────────────

// OnVersionResolved implements plugin.OnVersionResolved.
func (e *Extension) OnVersionResolved(ctx context.Context, address string, v version.Version) error {
	return e.record(ctx, ActionVersionResolved, SeverityInfo, OutcomeSuccess,
		ResourceAccount, address, CategoryMigration, nil,
		"version", v.String(),
	)
}

// OnVersionCheckFailed implements plugin.OnVersionCheckFailed.
func (e *Extension) OnVersionCheckFailed(ctx context.Context, address string, err error) error {
	return e.record(ctx, ActionVersionCheckFailed, SeverityWarning, OutcomeFailure,
		ResourceAccount, address, CategoryMigration, err,
	)
}

// OnRecordDisagreement implements plugin.OnRecordDisagreement.
func (e *Extension) OnRecordDisagreement(ctx context.Context, address string, resolved version.Version) error {
	return e.record(ctx, ActionRecordDisagreement, SeverityWarning, OutcomeFailure,
		ResourceRecord, address, CategoryMigration, nil,
		"resolved_version", resolved.String(),
	)
}

// ──────────────────────────────────────────────────
// Migration hooks
// ──────────────────────────────────────────────────

// OnMigrationStarted implements plugin.OnMigrationStarted.
func (e *Extension) OnMigrationStarted(ctx context.Context, address string) error {
	return e.record(ctx, ActionMigrationStarted, SeverityInfo, OutcomeSuccess,
		ResourceAccount, address, CategoryMigration, nil,
	)
}

// OnMigrationCompleted implements plugin.OnMigrationCompleted.
func (e *Extension) OnMigrationCompleted(ctx context.Context, address string, elapsed time.Duration) error {
	return e.record(ctx, ActionMigrationCompleted, SeverityInfo, OutcomeSuccess,
		ResourceRecord, address, CategoryMigration, nil,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Burn hooks
// ──────────────────────────────────────────────────

// OnBurnCompleted implements plugin.OnBurnCompleted.
func (e *Extension) OnBurnCompleted(ctx context.Context, address string, outcome burner.Outcome, txHash string) error {
	return e.record(ctx, ActionBurnCompleted, SeverityInfo, OutcomeSuccess,
		ResourceAccount, address, CategoryLedger, nil,
		"outcome", outcome.String(),
		"tx_hash", txHash,
	)
}

// OnBurnFailed implements plugin.OnBurnFailed. A failed burn leaves the
// account on the legacy ledger with a current account already created.
func (e *Extension) OnBurnFailed(ctx context.Context, address string, err error) error {
	return e.record(ctx, ActionBurnFailed, SeverityCritical, OutcomeFailure,
		ResourceAccount, address, CategoryLedger, err,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
