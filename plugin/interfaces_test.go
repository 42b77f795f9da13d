package plugin

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/state"
	"github.com/xraph/migrator/version"
)

type everyHook struct{}

func (everyHook) Name() string { return "every" }
func (everyHook) OnInit(context.Context, any) error { return nil }
func (everyHook) OnShutdown(context.Context) error { return nil }
func (everyHook) OnSessionStarted(context.Context, id.SessionID, string) error { return nil }
func (everyHook) OnClientReady(context.Context, string, version.Version, state.Path) error {
	return nil
}
func (everyHook) OnMigrationFailed(context.Context, string, error) error { return nil }
func (everyHook) OnVersionCheckStarted(context.Context, string) error { return nil }
func (everyHook) OnVersionResolved(context.Context, string, version.Version) error { return nil }
func (everyHook) OnVersionCheckFailed(context.Context, string, error) error { return nil }
func (everyHook) OnRecordDisagreement(context.Context, string, version.Version) error { return nil }
func (everyHook) OnMigrationStarted(context.Context, string) error { return nil }
func (everyHook) OnMigrationCompleted(context.Context, string, time.Duration) error { return nil }
func (everyHook) OnBurnStarted(context.Context, string) error { return nil }
func (everyHook) OnBurnCompleted(context.Context, string, burner.Outcome, string) error {
	return nil
}
func (everyHook) OnBurnFailed(context.Context, string, error) error { return nil }

func TestImplementedInterfacesCoversEveryHook(t *testing.T) {
	want := []string{
		"OnInit", "OnShutdown", "OnSessionStarted", "OnClientReady", "OnMigrationFailed",
		"OnVersionCheckStarted", "OnVersionResolved", "OnVersionCheckFailed", "OnRecordDisagreement",
		"OnMigrationStarted", "OnMigrationCompleted",
		"OnBurnStarted", "OnBurnCompleted", "OnBurnFailed",
	}

	got := getImplementedInterfaces(everyHook{})
	if len(got) != len(want) {
		t.Fatalf("interfaces: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("interface %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
