package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/id"
	"github.com/xraph/migrator/state"
	"github.com/xraph/migrator/version"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages registered plugins and dispatches events to them.
// Hook errors, panics and timeouts are logged and never reach the session.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration
	lanes   map[string]*lane

	// Type-cached plugin lists for dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onSessionStarted      []OnSessionStarted
	onClientReady         []OnClientReady
	onMigrationFailed     []OnMigrationFailed
	onVersionCheckStarted []OnVersionCheckStarted
	onVersionResolved     []OnVersionResolved
	onVersionCheckFailed  []OnVersionCheckFailed
	onRecordDisagreement  []OnRecordDisagreement
	onMigrationStarted    []OnMigrationStarted
	onMigrationCompleted  []OnMigrationCompleted
	onBurnStarted         []OnBurnStarted
	onBurnCompleted       []OnBurnCompleted
	onBurnFailed          []OnBurnFailed
}

var _ burner.Notifier = (*Registry)(nil)

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)
	r.rebuild()

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", getImplementedInterfaces(p),
	)

	return nil
}

// Unregister removes the named plugin. It reports whether one was removed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.plugins {
		if p.Name() == name {
			r.plugins = append(r.plugins[:i:i], r.plugins[i+1:]...)
			delete(r.lanes, name)
			r.rebuild()
			r.logger.Info("plugin unregistered", "name", name)
			return true
		}
	}
	return false
}

// rebuild recomputes the hook caches. Caller holds r.mu. Fresh slices are
// allocated so snapshots taken by in-flight emits stay valid.
func (r *Registry) rebuild() {
	r.onInit = nil
	r.onShutdown = nil
	r.onSessionStarted = nil
	r.onClientReady = nil
	r.onMigrationFailed = nil
	r.onVersionCheckStarted = nil
	r.onVersionResolved = nil
	r.onVersionCheckFailed = nil
	r.onRecordDisagreement = nil
	r.onMigrationStarted = nil
	r.onMigrationCompleted = nil
	r.onBurnStarted = nil
	r.onBurnCompleted = nil
	r.onBurnFailed = nil

	for _, p := range r.plugins {
		if v, ok := p.(OnInit); ok {
			r.onInit = append(r.onInit, v)
		}
		if v, ok := p.(OnShutdown); ok {
			r.onShutdown = append(r.onShutdown, v)
		}
		if v, ok := p.(OnSessionStarted); ok {
			r.onSessionStarted = append(r.onSessionStarted, v)
		}
		if v, ok := p.(OnClientReady); ok {
			r.onClientReady = append(r.onClientReady, v)
		}
		if v, ok := p.(OnMigrationFailed); ok {
			r.onMigrationFailed = append(r.onMigrationFailed, v)
		}
		if v, ok := p.(OnVersionCheckStarted); ok {
			r.onVersionCheckStarted = append(r.onVersionCheckStarted, v)
		}
		if v, ok := p.(OnVersionResolved); ok {
			r.onVersionResolved = append(r.onVersionResolved, v)
		}
		if v, ok := p.(OnVersionCheckFailed); ok {
			r.onVersionCheckFailed = append(r.onVersionCheckFailed, v)
		}
		if v, ok := p.(OnRecordDisagreement); ok {
			r.onRecordDisagreement = append(r.onRecordDisagreement, v)
		}
		if v, ok := p.(OnMigrationStarted); ok {
			r.onMigrationStarted = append(r.onMigrationStarted, v)
		}
		if v, ok := p.(OnMigrationCompleted); ok {
			r.onMigrationCompleted = append(r.onMigrationCompleted, v)
		}
		if v, ok := p.(OnBurnStarted); ok {
			r.onBurnStarted = append(r.onBurnStarted, v)
		}
		if v, ok := p.(OnBurnCompleted); ok {
			r.onBurnCompleted = append(r.onBurnCompleted, v)
		}
		if v, ok := p.(OnBurnFailed); ok {
			r.onBurnFailed = append(r.onBurnFailed, v)
		}
	}
}

// getImplementedInterfaces returns the hook names p implements.
func getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnSessionStarted)(nil)).Elem(), "OnSessionStarted")
	checkInterface(reflect.TypeOf((*OnClientReady)(nil)).Elem(), "OnClientReady")
	checkInterface(reflect.TypeOf((*OnMigrationFailed)(nil)).Elem(), "OnMigrationFailed")
	checkInterface(reflect.TypeOf((*OnVersionCheckStarted)(nil)).Elem(), "OnVersionCheckStarted")
	checkInterface(reflect.TypeOf((*OnVersionResolved)(nil)).Elem(), "OnVersionResolved")
	checkInterface(reflect.TypeOf((*OnVersionCheckFailed)(nil)).Elem(), "OnVersionCheckFailed")
	checkInterface(reflect.TypeOf((*OnRecordDisagreement)(nil)).Elem(), "OnRecordDisagreement")
	checkInterface(reflect.TypeOf((*OnMigrationStarted)(nil)).Elem(), "OnMigrationStarted")
	checkInterface(reflect.TypeOf((*OnMigrationCompleted)(nil)).Elem(), "OnMigrationCompleted")
	checkInterface(reflect.TypeOf((*OnBurnStarted)(nil)).Elem(), "OnBurnStarted")
	checkInterface(reflect.TypeOf((*OnBurnCompleted)(nil)).Elem(), "OnBurnCompleted")
	checkInterface(reflect.TypeOf((*OnBurnFailed)(nil)).Elem(), "OnBurnFailed")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, m any) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInit", plugins, func(ctx context.Context, p OnInit) error {
		return p.OnInit(ctx, m)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	dispatch(ctx, r, "OnShutdown", plugins, func(ctx context.Context, p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitSessionStarted calls OnSessionStarted for all plugins that implement it.
func (r *Registry) EmitSessionStarted(ctx context.Context, sessionID id.SessionID, address string) {
	r.mu.RLock()
	plugins := r.onSessionStarted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnSessionStarted", plugins, func(ctx context.Context, p OnSessionStarted) error {
		return p.OnSessionStarted(ctx, sessionID, address)
	})
}

// EmitClientReady calls OnClientReady for all plugins that implement it.
func (r *Registry) EmitClientReady(ctx context.Context, address string, v version.Version, reason state.Path) {
	r.mu.RLock()
	plugins := r.onClientReady
	r.mu.RUnlock()

	dispatch(ctx, r, "OnClientReady", plugins, func(ctx context.Context, p OnClientReady) error {
		return p.OnClientReady(ctx, address, v, reason)
	})
}

// EmitMigrationFailed calls OnMigrationFailed for all plugins that implement it.
func (r *Registry) EmitMigrationFailed(ctx context.Context, address string, err error) {
	r.mu.RLock()
	plugins := r.onMigrationFailed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnMigrationFailed", plugins, func(ctx context.Context, p OnMigrationFailed) error {
		return p.OnMigrationFailed(ctx, address, err)
	})
}

// EmitVersionCheckStarted calls OnVersionCheckStarted for all plugins that implement it.
func (r *Registry) EmitVersionCheckStarted(ctx context.Context, address string) {
	r.mu.RLock()
	plugins := r.onVersionCheckStarted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnVersionCheckStarted", plugins, func(ctx context.Context, p OnVersionCheckStarted) error {
		return p.OnVersionCheckStarted(ctx, address)
	})
}

// EmitVersionResolved calls OnVersionResolved for all plugins that implement it.
func (r *Registry) EmitVersionResolved(ctx context.Context, address string, v version.Version) {
	r.mu.RLock()
	plugins := r.onVersionResolved
	r.mu.RUnlock()

	dispatch(ctx, r, "OnVersionResolved", plugins, func(ctx context.Context, p OnVersionResolved) error {
		return p.OnVersionResolved(ctx, address, v)
	})
}

// EmitVersionCheckFailed calls OnVersionCheckFailed for all plugins that implement it.
func (r *Registry) EmitVersionCheckFailed(ctx context.Context, address string, err error) {
	r.mu.RLock()
	plugins := r.onVersionCheckFailed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnVersionCheckFailed", plugins, func(ctx context.Context, p OnVersionCheckFailed) error {
		return p.OnVersionCheckFailed(ctx, address, err)
	})
}

// EmitRecordDisagreement calls OnRecordDisagreement for all plugins that implement it.
func (r *Registry) EmitRecordDisagreement(ctx context.Context, address string, resolved version.Version) {
	r.mu.RLock()
	plugins := r.onRecordDisagreement
	r.mu.RUnlock()

	dispatch(ctx, r, "OnRecordDisagreement", plugins, func(ctx context.Context, p OnRecordDisagreement) error {
		return p.OnRecordDisagreement(ctx, address, resolved)
	})
}

// EmitMigrationStarted calls OnMigrationStarted for all plugins that implement it.
func (r *Registry) EmitMigrationStarted(ctx context.Context, address string) {
	r.mu.RLock()
	plugins := r.onMigrationStarted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnMigrationStarted", plugins, func(ctx context.Context, p OnMigrationStarted) error {
		return p.OnMigrationStarted(ctx, address)
	})
}

// EmitMigrationCompleted calls OnMigrationCompleted for all plugins that implement it.
func (r *Registry) EmitMigrationCompleted(ctx context.Context, address string, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onMigrationCompleted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnMigrationCompleted", plugins, func(ctx context.Context, p OnMigrationCompleted) error {
		return p.OnMigrationCompleted(ctx, address, elapsed)
	})
}

// EmitBurnStarted calls OnBurnStarted for all plugins that implement it.
func (r *Registry) EmitBurnStarted(ctx context.Context, address string) {
	r.mu.RLock()
	plugins := r.onBurnStarted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnBurnStarted", plugins, func(ctx context.Context, p OnBurnStarted) error {
		return p.OnBurnStarted(ctx, address)
	})
}

// EmitBurnCompleted calls OnBurnCompleted for all plugins that implement it.
func (r *Registry) EmitBurnCompleted(ctx context.Context, address string, outcome burner.Outcome, txHash string) {
	r.mu.RLock()
	plugins := r.onBurnCompleted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnBurnCompleted", plugins, func(ctx context.Context, p OnBurnCompleted) error {
		return p.OnBurnCompleted(ctx, address, outcome, txHash)
	})
}

// EmitBurnFailed calls OnBurnFailed for all plugins that implement it.
func (r *Registry) EmitBurnFailed(ctx context.Context, address string, err error) {
	r.mu.RLock()
	plugins := r.onBurnFailed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnBurnFailed", plugins, func(ctx context.Context, p OnBurnFailed) error {
		return p.OnBurnFailed(ctx, address, err)
	})
}

// dispatch calls fn for each plugin in order, logging failures.
func dispatch[P Plugin](ctx context.Context, r *Registry, hook string, plugins []P, fn func(context.Context, P) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func(hookCtx context.Context) error {
			return fn(hookCtx, p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// lane serializes the hook calls of one plugin. tail is closed when the
// most recently queued call returns.
type lane struct {
	mu   sync.Mutex
	tail chan struct{}
}

// enqueue returns the call to wait for and registers done as the new tail.
func (l *lane) enqueue(done chan struct{}) (prev chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev, l.tail = l.tail, done
	return prev
}

func (r *Registry) laneFor(name string) *lane {
	r.mu.RLock()
	l := r.lanes[name]
	r.mu.RUnlock()
	if l != nil {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lanes == nil {
		r.lanes = make(map[string]*lane)
	}
	if l = r.lanes[name]; l == nil {
		l = &lane{}
		r.lanes[name] = l
	}
	return l
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins must never stall a migration session. A call that outlives the
// timeout keeps running, and the plugin's next call starts only after it
// returns, so each plugin sees events in emit order.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func(context.Context) error) error {
	result := make(chan error, 1)
	finished := make(chan struct{})
	prev := r.laneFor(pluginName).enqueue(finished)

	go func() {
		defer close(finished)
		if prev != nil {
			<-prev
		}
		hookCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		result <- invoke(hookCtx, pluginName, fn)
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-result:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// invoke runs fn, turning a panic into an error.
func invoke(ctx context.Context, pluginName string, fn func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("plugin panic: %s: %v", pluginName, rec)
		}
	}()
	return fn(ctx)
}
