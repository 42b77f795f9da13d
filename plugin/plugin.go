// Package plugin is the migrator's event notifier. Plugins implement any
// subset of the hook interfaces below and are dispatched in the order the
// session performs its steps.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/state"
	"github.com/xraph/migrator/version"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the migrator is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, m any) error
}

// OnShutdown is called when the migrator shuts down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Session hooks
// ──────────────────────────────────────────────────

// OnSessionStarted is called when a session is accepted.
type OnSessionStarted interface {
	Plugin
	OnSessionStarted(ctx context.Context, sessionID id.SessionID, address string) error
}

// OnClientReady is called when a session hands a bound account to the caller.
type OnClientReady interface {
	Plugin
	OnClientReady(ctx context.Context, address string, v version.Version, reason state.Path) error
}

// OnMigrationFailed is called when a session ends in failure on any path.
type OnMigrationFailed interface {
	Plugin
	OnMigrationFailed(ctx context.Context, address string, err error) error
}

// ──────────────────────────────────────────────────
// Version check hooks
// ──────────────────────────────────────────────────

// OnVersionCheckStarted is called before the version provider is queried.
type OnVersionCheckStarted interface {
	Plugin
	OnVersionCheckStarted(ctx context.Context, address string) error
}

// OnVersionResolved is called with the provider's answer.
type OnVersionResolved interface {
	Plugin
	OnVersionResolved(ctx context.Context, address string, v version.Version) error
}

// OnVersionCheckFailed is called when the provider fails.
type OnVersionCheckFailed interface {
	Plugin
	OnVersionCheckFailed(ctx context.Context, address string, err error) error
}

// OnRecordDisagreement is called when the completion record says migrated
// but the provider still answers legacy after a re-check.
type OnRecordDisagreement interface {
	Plugin
	OnRecordDisagreement(ctx context.Context, address string, resolved version.Version) error
}

// ──────────────────────────────────────────────────
// Migration hooks
// ──────────────────────────────────────────────────

// OnMigrationStarted is called when a session begins migrating an account.
type OnMigrationStarted interface {
	Plugin
	OnMigrationStarted(ctx context.Context, address string) error
}

// OnMigrationCompleted is called once the completion record is written.
type OnMigrationCompleted interface {
	Plugin
	OnMigrationCompleted(ctx context.Context, address string, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Burn hooks
// ──────────────────────────────────────────────────

// OnBurnStarted is called before the legacy account's burn state is checked.
type OnBurnStarted interface {
	Plugin
	OnBurnStarted(ctx context.Context, address string) error
}

// OnBurnCompleted is called with the burn outcome. txHash is empty when the
// account was already burned.
type OnBurnCompleted interface {
	Plugin
	OnBurnCompleted(ctx context.Context, address string, outcome burner.Outcome, txHash string) error
}

// OnBurnFailed is called when the burn check or submission fails.
type OnBurnFailed interface {
	Plugin
	OnBurnFailed(ctx context.Context, address string, err error) error
}
