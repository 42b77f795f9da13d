// Package extension provides the Forge extension adapter for the migrator.
//
// It implements the forge.Extension interface to integrate the migrator
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.migrator" or "migrator" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/migrator"
	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/store"
	"github.com/xraph/migrator/store/memory"
	"github.com/xraph/migrator/store/mongo"
	"github.com/xraph/migrator/store/postgres"
	redisstore "github.com/xraph/migrator/store/redis"
	"github.com/xraph/migrator/store/sqlite"
	"github.com/xraph/migrator/version"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "migrator"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Legacy to current ledger account migration"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Grove drivers accepted by WithGroveDatabase.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts the migrator as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	engine       *migrator.Migrator
	store        store.Store
	provider     version.Provider
	legacy       account.Client
	current      account.Client
	migratorOpts []migrator.Option

	groveDB     *grove.DB
	groveDriver string
	redis       goredis.UniversalClient
}

// New creates a new migrator Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Migrator.
// This is nil until Register is called.
func (e *Extension) Engine() *migrator.Migrator { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// builds the migrator, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.build(); err != nil {
		return err
	}

	return vessel.Provide(fapp.Container(), func() (*migrator.Migrator, error) {
		return e.engine, nil
	})
}

// build constructs the store and the engine from the resolved config.
func (e *Extension) build() error {
	s, err := e.buildStore()
	if err != nil {
		return err
	}
	e.store = s

	opts, err := e.buildMigratorOpts()
	if err != nil {
		return err
	}

	eng, err := migrator.New(e.store, e.provider, e.legacy, e.current, opts...)
	if err != nil {
		return err
	}
	e.engine = eng
	return nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("migrator: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Init(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension]. It waits for a running session.
func (e *Extension) Stop(ctx context.Context) error {
	if e.engine != nil {
		if err := e.engine.Shutdown(ctx); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("migrator: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildStore picks the programmatic store, then a grove database, then
// redis, falling back to memory.
func (e *Extension) buildStore() (store.Store, error) {
	if e.store != nil {
		return e.store, nil
	}

	ns := store.WithNamespace(e.config.Namespace)
	switch {
	case e.groveDB != nil || e.groveDriver != "":
		if e.groveDB == nil {
			return nil, fmt.Errorf("migrator: grove driver %q set without a database", e.groveDriver)
		}
		switch e.groveDriver {
		case DriverPostgres:
			return postgres.New(e.groveDB, ns), nil
		case DriverSQLite:
			return sqlite.New(e.groveDB, ns), nil
		case DriverMongo:
			return mongo.New(e.groveDB, ns), nil
		default:
			return nil, fmt.Errorf("migrator: unsupported grove driver %q", e.groveDriver)
		}
	case e.redis != nil:
		return redisstore.New(e.redis, ns), nil
	default:
		return memory.New(ns), nil
	}
}

// buildMigratorOpts constructs migrator.Option values from the resolved config.
func (e *Extension) buildMigratorOpts() ([]migrator.Option, error) {
	policy, err := migrator.ParseDisagreementPolicy(e.config.DisagreementPolicy)
	if err != nil {
		return nil, err
	}

	opts := make([]migrator.Option, 0, len(e.migratorOpts)+3)
	opts = append(opts,
		migrator.WithDisagreementPolicy(policy),
		migrator.WithSessionTimeout(e.config.SessionTimeout),
	)
	if e.config.PluginTimeout > 0 {
		opts = append(opts, migrator.WithPluginTimeout(e.config.PluginTimeout))
	}

	// Pass-through options last so they win over config.
	opts = append(opts, e.migratorOpts...)

	return opts, nil
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("migrator: configuration is required but not found in config files; " +
				"ensure 'extensions.migrator' or 'migrator' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("migrator: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("namespace", e.config.Namespace),
		forge.F("session_timeout", e.config.SessionTimeout),
		forge.F("plugin_timeout", e.config.PluginTimeout),
		forge.F("disagreement_policy", e.config.DisagreementPolicy),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.migrator", "migrator"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("migrator: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("migrator: loaded config from file", forge.F("key", key))
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Namespace == "" {
		cfg.Namespace = defaults.Namespace
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	if cfg.DisagreementPolicy == "" {
		cfg.DisagreementPolicy = defaults.DisagreementPolicy
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if yamlConfig.Namespace == "" {
		yamlConfig.Namespace = programmaticConfig.Namespace
	}
	if yamlConfig.SessionTimeout == 0 {
		yamlConfig.SessionTimeout = programmaticConfig.SessionTimeout
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if yamlConfig.DisagreementPolicy == "" {
		yamlConfig.DisagreementPolicy = programmaticConfig.DisagreementPolicy
	}

	return mergeWithDefaults(yamlConfig)
}
