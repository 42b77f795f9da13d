package extension

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/migrator"
	"github.com/xraph/migrator/account/accounttest"
	"github.com/xraph/migrator/store"
	"github.com/xraph/migrator/store/memory"
	"github.com/xraph/migrator/version"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{SessionTimeout: time.Minute})

	if cfg.Namespace != "kin_migration_module" {
		t.Errorf("namespace: got %q", cfg.Namespace)
	}
	if cfg.PluginTimeout != 5*time.Second {
		t.Errorf("plugin timeout: got %v", cfg.PluginTimeout)
	}
	if cfg.DisagreementPolicy != "trust_record" {
		t.Errorf("policy: got %q", cfg.DisagreementPolicy)
	}
	if cfg.SessionTimeout != time.Minute {
		t.Errorf("session timeout: got %v", cfg.SessionTimeout)
	}
}

func TestMergeConfigurations(t *testing.T) {
	tests := []struct {
		name         string
		file, code   Config
		wantNS       string
		wantPolicy   string
		wantDisabled bool
	}{
		{
			name:       "file wins",
			file:       Config{Namespace: "from_file", DisagreementPolicy: "trust_resolver"},
			code:       Config{Namespace: "from_code"},
			wantNS:     "from_file",
			wantPolicy: "trust_resolver",
		},
		{
			name:         "code fills gaps",
			file:         Config{},
			code:         Config{Namespace: "from_code", DisableMigrate: true},
			wantNS:       "from_code",
			wantPolicy:   "trust_record",
			wantDisabled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeConfigurations(tt.file, tt.code)
			if got.Namespace != tt.wantNS {
				t.Errorf("namespace: got %q, want %q", got.Namespace, tt.wantNS)
			}
			if got.DisagreementPolicy != tt.wantPolicy {
				t.Errorf("policy: got %q, want %q", got.DisagreementPolicy, tt.wantPolicy)
			}
			if got.DisableMigrate != tt.wantDisabled {
				t.Errorf("disable migrate: got %v, want %v", got.DisableMigrate, tt.wantDisabled)
			}
		})
	}
}

func newTestExtension(opts ...Option) *Extension {
	base := []Option{
		WithVersionProvider(version.Static(version.Current)),
		WithLegacyClient(accounttest.NewLedger(version.Legacy)),
		WithCurrentClient(accounttest.NewLedger(version.Current)),
	}
	e := New(append(base, opts...)...)
	e.config = mergeWithDefaults(e.config)
	return e
}

func TestBuildDefaultsToMemoryStore(t *testing.T) {
	e := newTestExtension(WithNamespace("wallet_a"))
	if err := e.build(); err != nil {
		t.Fatalf("build failed: %v", err)
	}

	if _, ok := e.store.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", e.store)
	}

	addr := accounttest.NewAddress()
	if err := e.store.MarkMigrated(context.Background(), &store.Record{Address: addr}); err != nil {
		t.Fatalf("MarkMigrated failed: %v", err)
	}
	rec, err := e.store.GetRecord(context.Background(), addr)
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if rec.Namespace != "wallet_a" {
		t.Errorf("namespace: got %q, want wallet_a", rec.Namespace)
	}
	if err := e.Health(context.Background()); err != nil {
		t.Errorf("Health failed: %v", err)
	}
}

func TestBuildKeepsProgrammaticStore(t *testing.T) {
	s := memory.New()
	e := newTestExtension(WithStore(s))
	if err := e.build(); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if e.Engine().Store() != s {
		t.Error("engine should use the programmatic store")
	}
}

func TestBuildRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		e    *Extension
	}{
		{"unknown policy", newTestExtension(WithDisagreementPolicy("coin_flip"))},
		{"unknown grove driver", newTestExtension(WithGroveDatabase(nil, "oracle"))},
		{"missing clients", func() *Extension {
			e := New(WithVersionProvider(version.Static(version.Current)))
			e.config = mergeWithDefaults(e.config)
			return e
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.e.build(); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestStartRequiresRegister(t *testing.T) {
	e := New()
	if err := e.Start(context.Background()); err == nil {
		t.Error("expected an error before Register")
	}
}

func TestBuildAppliesPassThroughOptions(t *testing.T) {
	e := newTestExtension(WithMigratorOption(migrator.WithSessionTimeout(time.Second)))
	if err := e.build(); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if e.Engine() == nil {
		t.Fatal("engine not built")
	}
}
