package migrator

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/plugin"
)

// Option configures a Migrator.
type Option func(*Migrator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Migrator) {
		m.logger = logger
		m.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(m *Migrator) {
		_ = m.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(m *Migrator) {
		m.plugins.WithTimeout(d)
	}
}

// WithAccountSource sets where sessions started without an address look
// up the most recently used local account.
func WithAccountSource(src account.Source) Option {
	return func(m *Migrator) {
		m.source = src
	}
}

// WithSessionTimeout gives every session a deadline. Zero means none.
func WithSessionTimeout(d time.Duration) Option {
	return func(m *Migrator) {
		m.sessionTimeout = d
	}
}

// WithDisagreementPolicy sets how a migrated record that the version
// provider still calls legacy is handled.
func WithDisagreementPolicy(p DisagreementPolicy) Option {
	return func(m *Migrator) {
		m.policy = p
	}
}

// WithTracer sets the tracer sessions record spans on.
func WithTracer(t trace.Tracer) Option {
	return func(m *Migrator) {
		m.tracer = t
	}
}

// DisagreementPolicy decides the binding when the completion record says
// migrated but the version provider answers legacy twice in a row.
type DisagreementPolicy int

const (
	// TrustRecord binds to the current ledger. The legacy account is
	// presumed burned, so it is never migrated again.
	TrustRecord DisagreementPolicy = iota
	// TrustResolver binds to the legacy ledger without migrating again.
	TrustResolver
)

func (p DisagreementPolicy) String() string {
	switch p {
	case TrustRecord:
		return "trust_record"
	case TrustResolver:
		return "trust_resolver"
	default:
		return "unknown"
	}
}

// ParseDisagreementPolicy parses "trust_record" or "trust_resolver".
// An empty string is TrustRecord.
func ParseDisagreementPolicy(s string) (DisagreementPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "trust_record":
		return TrustRecord, nil
	case "trust_resolver":
		return TrustResolver, nil
	default:
		return 0, fmt.Errorf("migrator: unknown disagreement policy %q", s)
	}
}
