package plugin_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/plugin"
	"github.com/xraph/migrator/version"
)

type recorder struct {
	name string
	mu   sync.Mutex
	seen []string
	err  error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(ev string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, ev)
	return r.err
}

func (r *recorder) events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func (r *recorder) OnMigrationStarted(context.Context, string) error { return r.add("migration_started") }

func (r *recorder) OnVersionResolved(_ context.Context, _ string, v version.Version) error {
	return r.add("resolved:" + v.String())
}

func (r *recorder) OnBurnCompleted(_ context.Context, _ string, o burner.Outcome, _ string) error {
	return r.add("burn:" + o.String())
}

type panicky struct{}

func (panicky) Name() string { return "panicky" }

func (panicky) OnMigrationStarted(context.Context, string) error { panic("boom") }

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnMigrationStarted(ctx context.Context, _ string) error {
	time.Sleep(200 * time.Millisecond)
	return nil
}

func TestRegisterDuplicate(t *testing.T) {
	r := plugin.NewRegistry()
	if err := r.Register(&recorder{name: "a"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&recorder{name: "a"}); err == nil {
		t.Fatal("expected duplicate registration error")
	}
	if r.Count() != 1 {
		t.Errorf("Count: got %d, want 1", r.Count())
	}
}

func TestEmitOrder(t *testing.T) {
	r := plugin.NewRegistry()
	rec := &recorder{name: "rec"}
	if err := r.Register(rec); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx := context.Background()
	r.EmitVersionResolved(ctx, "G", version.Legacy)
	r.EmitMigrationStarted(ctx, "G")
	r.EmitBurnCompleted(ctx, "G", burner.Burned, "hash")

	want := []string{"resolved:legacy", "migration_started", "burn:burned"}
	got := rec.events()
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFailuresAreSwallowed(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(50 * time.Millisecond)
	rec := &recorder{name: "failing", err: errors.New("sink down")}
	for _, p := range []plugin.Plugin{panicky{}, slow{}, rec} {
		if err := r.Register(p); err != nil {
			t.Fatalf("Register(%s) failed: %v", p.Name(), err)
		}
	}

	r.EmitMigrationStarted(context.Background(), "G")

	if got := rec.events(); len(got) != 1 {
		t.Errorf("expected later plugin to still be called, got %v", got)
	}
}

func TestUnregister(t *testing.T) {
	r := plugin.NewRegistry()
	rec := &recorder{name: "rec"}
	if err := r.Register(rec); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if !r.Unregister("rec") {
		t.Fatal("expected Unregister to report removal")
	}
	if r.Unregister("rec") {
		t.Error("second Unregister should report false")
	}

	r.EmitMigrationStarted(context.Background(), "G")
	if got := rec.events(); len(got) != 0 {
		t.Errorf("expected no events after unregister, got %v", got)
	}
	if r.Get("rec") != nil {
		t.Error("Get should return nil after unregister")
	}
}

type lagging struct {
	recorder
	delay time.Duration
}

func (l *lagging) OnMigrationStarted(context.Context, string) error {
	time.Sleep(l.delay)
	return l.add("migration_started")
}

func waitForEvents(t *testing.T, rec interface{ events() []string }, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := rec.events()
		if len(got) >= n || time.Now().After(deadline) {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestTimedOutHookKeepsPluginOrder(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(10 * time.Millisecond)
	p := &lagging{recorder: recorder{name: "lagging"}, delay: 50 * time.Millisecond}
	if err := r.Register(p); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ctx := context.Background()
	started := time.Now()
	r.EmitVersionResolved(ctx, "G", version.Legacy)
	r.EmitMigrationStarted(ctx, "G")
	elapsed := time.Since(started)
	r.EmitBurnCompleted(ctx, "G", burner.Burned, "hash")

	want := []string{"resolved:legacy", "migration_started", "burn:burned"}
	got := waitForEvents(t, p, len(want))
	if len(got) != len(want) {
		t.Fatalf("events: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if elapsed >= 50*time.Millisecond {
		t.Errorf("emits waited on the slow hook: %v", elapsed)
	}
}

type deadlineCheck struct {
	mu          sync.Mutex
	hasDeadline bool
	remaining   time.Duration
}

func (d *deadlineCheck) Name() string { return "deadline" }

func (d *deadlineCheck) OnMigrationStarted(ctx context.Context, _ string) error {
	deadline, ok := ctx.Deadline()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasDeadline = ok
	d.remaining = time.Until(deadline)
	return nil
}

func TestHookContextCarriesTimeout(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(time.Second)
	d := &deadlineCheck{}
	if err := r.Register(d); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	r.EmitMigrationStarted(context.Background(), "G")

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.hasDeadline {
		t.Fatal("hook context has no deadline")
	}
	if d.remaining <= 0 || d.remaining > time.Second {
		t.Errorf("remaining: got %v, want within (0, 1s]", d.remaining)
	}
}
