package extension

import "time"

// Config holds the migrator extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.migrator" or "migrator" keys).
type Config struct {
	// DisableMigrate prevents store schema migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Namespace scopes completion records (default: "kin_migration_module").
	// It applies to stores the extension builds itself.
	Namespace string `json:"namespace" mapstructure:"namespace" yaml:"namespace"`

	// SessionTimeout bounds each migration session. Zero means no deadline.
	SessionTimeout time.Duration `json:"session_timeout" mapstructure:"session_timeout" yaml:"session_timeout"`

	// PluginTimeout bounds each plugin hook call (default: 5s).
	PluginTimeout time.Duration `json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`

	// DisagreementPolicy is "trust_record" (default) or "trust_resolver".
	DisagreementPolicy string `json:"disagreement_policy" mapstructure:"disagreement_policy" yaml:"disagreement_policy"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Namespace:          "kin_migration_module",
		PluginTimeout:      5 * time.Second,
		DisagreementPolicy: "trust_record",
	}
}
