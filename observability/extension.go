// Package observability provides a metrics plugin for the migrator that
// records session and burn event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/plugin"
	"github.com/xraph/migrator/state"
	"github.com/xraph/migrator/version"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin               = (*MetricsExtension)(nil)
	_ plugin.OnInit               = (*MetricsExtension)(nil)
	_ plugin.OnSessionStarted     = (*MetricsExtension)(nil)
	_ plugin.OnClientReady        = (*MetricsExtension)(nil)
	_ plugin.OnMigrationFailed    = (*MetricsExtension)(nil)
	_ plugin.OnVersionResolved    = (*MetricsExtension)(nil)
	_ plugin.OnVersionCheckFailed = (*MetricsExtension)(nil)
	_ plugin.OnRecordDisagreement = (*MetricsExtension)(nil)
	_ plugin.OnMigrationStarted   = (*MetricsExtension)(nil)
	_ plugin.OnMigrationCompleted = (*MetricsExtension)(nil)
	_ plugin.OnBurnCompleted      = (*MetricsExtension)(nil)
	_ plugin.OnBurnFailed         = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records migration lifecycle metrics.
// Register it as a migrator plugin to track sessions automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Session metrics
	SessionsStarted Counter
	SessionsFailed  Counter

	// Ready metrics, one per path
	ReadyAlreadyCurrent Counter
	ReadyMigrated       Counter
	ReadyStaysLegacy    Counter

	// Version metrics
	VersionLegacy       Counter
	VersionCurrent      Counter
	VersionCheckFailed  Counter
	RecordDisagreements Counter

	// Migration metrics
	MigrationsStarted   Counter
	MigrationsCompleted Counter
	MigrationLatency    Histogram

	// Burn metrics
	BurnsSubmitted     Counter
	BurnsAlreadyBurned Counter
	BurnsNoTrustline   Counter
	BurnsFailed        Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		SessionsStarted: factory.Counter("migrator.session.started"),
		SessionsFailed:  factory.Counter("migrator.session.failed"),

		ReadyAlreadyCurrent: factory.Counter("migrator.ready.already_current"),
		ReadyMigrated:       factory.Counter("migrator.ready.migrated"),
		ReadyStaysLegacy:    factory.Counter("migrator.ready.stays_legacy"),

		VersionLegacy:       factory.Counter("migrator.version.legacy"),
		VersionCurrent:      factory.Counter("migrator.version.current"),
		VersionCheckFailed:  factory.Counter("migrator.version.check_failed"),
		RecordDisagreements: factory.Counter("migrator.record.disagreements"),

		MigrationsStarted:   factory.Counter("migrator.migration.started"),
		MigrationsCompleted: factory.Counter("migrator.migration.completed"),
		MigrationLatency:    factory.Histogram("migrator.migration.latency_ms"),

		BurnsSubmitted:     factory.Counter("migrator.burn.submitted"),
		BurnsAlreadyBurned: factory.Counter("migrator.burn.already_burned"),
		BurnsNoTrustline:   factory.Counter("migrator.burn.no_trustline"),
		BurnsFailed:        factory.Counter("migrator.burn.failed"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(context.Context, any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Session hooks
// ──────────────────────────────────────────────────

// OnSessionStarted implements plugin.OnSessionStarted.
func (m *MetricsExtension) OnSessionStarted(context.Context, id.SessionID, string) error {
	m.SessionsStarted.Inc()
	return nil
}

// OnClientReady implements plugin.OnClientReady.
func (m *MetricsExtension) OnClientReady(_ context.Context, _ string, _ version.Version, reason state.Path) error {
	switch reason {
	case state.PathAlreadyCurrent:
		m.ReadyAlreadyCurrent.Inc()
	case state.PathMigrated:
		m.ReadyMigrated.Inc()
	case state.PathStaysLegacy:
		m.ReadyStaysLegacy.Inc()
	}
	return nil
}

// OnMigrationFailed implements plugin.OnMigrationFailed.
func (m *MetricsExtension) OnMigrationFailed(context.Context, string, error) error {
	m.SessionsFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Version hooks
// ──────────────────────────────────────────────────

// OnVersionResolved implements plugin.OnVersionResolved.
func (m *MetricsExtension) OnVersionResolved(_ context.Context, _ string, v version.Version) error {
	if v == version.Current {
		m.VersionCurrent.Inc()
	} else {
		m.VersionLegacy.Inc()
	}
	return nil
}

// OnVersionCheckFailed implements plugin.OnVersionCheckFailed.
func (m *MetricsExtension) OnVersionCheckFailed(context.Context, string, error) error {
	m.VersionCheckFailed.Inc()
	return nil
}

// OnRecordDisagreement implements plugin.OnRecordDisagreement.
func (m *MetricsExtension) OnRecordDisagreement(context.Context, string, version.Version) error {
	m.RecordDisagreements.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Migration hooks
// ──────────────────────────────────────────────────

// OnMigrationStarted implements plugin.OnMigrationStarted.
func (m *MetricsExtension) OnMigrationStarted(context.Context, string) error {
	m.MigrationsStarted.Inc()
	return nil
}

// OnMigrationCompleted implements plugin.OnMigrationCompleted.
func (m *MetricsExtension) OnMigrationCompleted(_ context.Context, _ string, elapsed time.Duration) error {
	m.MigrationsCompleted.Inc()
	m.MigrationLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// ──────────────────────────────────────────────────
// Burn hooks
// ──────────────────────────────────────────────────

// OnBurnCompleted implements plugin.OnBurnCompleted.
func (m *MetricsExtension) OnBurnCompleted(_ context.Context, _ string, outcome burner.Outcome, _ string) error {
	switch outcome {
	case burner.AlreadyBurned:
		m.BurnsAlreadyBurned.Inc()
	case burner.NoTrustline:
		m.BurnsNoTrustline.Inc()
	default:
		m.BurnsSubmitted.Inc()
	}
	return nil
}

// OnBurnFailed implements plugin.OnBurnFailed.
func (m *MetricsExtension) OnBurnFailed(context.Context, string, error) error {
	m.BurnsFailed.Inc()
	return nil
}
