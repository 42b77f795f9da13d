package extension

import (
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/xraph/grove"

	"github.com/xraph/migrator"
	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/plugin"
	"github.com/xraph/migrator/store"
	"github.com/xraph/migrator/version"
)

// Option configures the migrator Forge extension.
type Option func(*Extension)

// WithStore sets the completion store. It takes precedence over
// WithGroveDatabase and WithRedis.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDatabase builds the completion store on db. driver is one of
// DriverPostgres, DriverSQLite or DriverMongo.
func WithGroveDatabase(db *grove.DB, driver string) Option {
	return func(e *Extension) {
		e.groveDB = db
		e.groveDriver = driver
	}
}

// WithRedis builds the completion store on a redis client.
func WithRedis(client goredis.UniversalClient) Option {
	return func(e *Extension) {
		e.redis = client
	}
}

// WithVersionProvider sets the service that answers which ledger an account
// is on.
func WithVersionProvider(p version.Provider) Option {
	return func(e *Extension) {
		e.provider = p
	}
}

// WithLegacyClient sets the legacy ledger client.
func WithLegacyClient(c account.Client) Option {
	return func(e *Extension) {
		e.legacy = c
	}
}

// WithCurrentClient sets the current ledger client.
func WithCurrentClient(c account.Client) Option {
	return func(e *Extension) {
		e.current = c
	}
}

// WithMigratorOption passes a migrator.Option through to the underlying engine.
func WithMigratorOption(opt migrator.Option) Option {
	return func(e *Extension) {
		e.migratorOpts = append(e.migratorOpts, opt)
	}
}

// WithPlugin registers a migrator plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.migratorOpts = append(e.migratorOpts, migrator.WithPlugin(p))
	}
}

// WithAccountSource sets where sessions started without an address find
// the local account.
func WithAccountSource(src account.Source) Option {
	return func(e *Extension) {
		e.migratorOpts = append(e.migratorOpts, migrator.WithAccountSource(src))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents store schema migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithNamespace sets the completion record namespace.
func WithNamespace(ns string) Option {
	return func(e *Extension) { e.config.Namespace = ns }
}

// WithSessionTimeout bounds each migration session.
func WithSessionTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.SessionTimeout = d }
}

// WithPluginTimeout bounds each plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}

// WithDisagreementPolicy sets the policy by name.
func WithDisagreementPolicy(policy string) Option {
	return func(e *Extension) { e.config.DisagreementPolicy = policy }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
