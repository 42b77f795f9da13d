package migrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/plugin"
	"github.com/xraph/migrator/state"
	"github.com/xraph/migrator/store"
	"github.com/xraph/migrator/version"
)

const tracerName = "github.com/xraph/migrator"

// Migrator coordinates moving accounts from the legacy ledger to the
// current one. At most one session runs per Migrator at a time.
type Migrator struct {
	store    store.Store
	resolver *version.Resolver
	legacy   account.Client
	current  account.Client
	burner   *burner.Burner
	plugins  *plugin.Registry
	logger   *slog.Logger
	tracer   trace.Tracer
	source   account.Source

	sessionTimeout time.Duration
	policy         DisagreementPolicy

	active atomic.Pointer[Session]

	// lifecycle guards closed and wg.Add so Shutdown never waits
	// on a group that Start is still adding to.
	lifecycle sync.Mutex
	closed    bool
	wg        sync.WaitGroup
}

// New creates a Migrator. legacy and current must report matching versions.
func New(s store.Store, provider version.Provider, legacy, current account.Client, opts ...Option) (*Migrator, error) {
	switch {
	case s == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case provider == nil:
		return nil, fmt.Errorf("%w: version provider", ErrMissingDependency)
	case legacy == nil || legacy.Version() != version.Legacy:
		return nil, fmt.Errorf("%w: legacy ledger client", ErrMissingDependency)
	case current == nil || current.Version() != version.Current:
		return nil, fmt.Errorf("%w: current ledger client", ErrMissingDependency)
	}

	m := &Migrator{
		store:   s,
		legacy:  legacy,
		current: current,
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
		policy:  TrustRecord,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.resolver = version.NewResolver(provider, version.WithLogger(m.logger))
	m.burner = burner.New(burner.WithLogger(m.logger), burner.WithNotifier(m.plugins))

	return m, nil
}

// Plugins returns the plugin registry.
func (m *Migrator) Plugins() *plugin.Registry { return m.plugins }

// Store returns the completion store.
func (m *Migrator) Store() store.Store { return m.store }

// Init prepares the store and initializes plugins.
func (m *Migrator) Init(ctx context.Context) error {
	if err := m.store.Migrate(ctx); err != nil {
		return err
	}

	m.plugins.EmitInit(ctx, m)

	m.logger.Info("migrator initialized",
		"session_timeout", m.sessionTimeout,
		"disagreement_policy", m.policy.String(),
		"plugins", m.plugins.Count(),
	)
	return nil
}

// Shutdown rejects new sessions, waits for the running one to finish or
// ctx to end, then shuts plugins down and closes the store.
func (m *Migrator) Shutdown(ctx context.Context) error {
	m.lifecycle.Lock()
	m.closed = true
	m.lifecycle.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.plugins.EmitShutdown(ctx)
	return m.store.Close()
}

// Active returns the running session, or nil.
func (m *Migrator) Active() *Session {
	return m.active.Load()
}

// IsMigrated reports whether the store holds a completion record for address.
func (m *Migrator) IsMigrated(ctx context.Context, address string) (bool, error) {
	return m.store.IsMigrated(ctx, address)
}

// Reset deletes every completion record. It refuses while a session runs.
func (m *Migrator) Reset(ctx context.Context) error {
	if m.active.Load() != nil {
		return ErrMigrationInProcess
	}
	m.logger.Warn("clearing completion records")
	return m.store.Clear(ctx)
}

// Start begins a session for address, or for the most recently used local
// account when address is empty. It returns ErrMigrationInProcess at once
// if another session is running; otherwise the work happens on a new
// goroutine and the outcome arrives through cb. ctx bounds the whole
// session.
func (m *Migrator) Start(ctx context.Context, address string, cb Callbacks) (*Session, error) {
	if cb == nil {
		cb = CallbackFuncs{}
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.closed {
		return nil, ErrShutdown
	}

	sess := newSession(address)
	if !m.active.CompareAndSwap(nil, sess) {
		return nil, ErrMigrationInProcess
	}

	m.wg.Add(1)
	go m.run(ctx, sess, cb)

	return sess, nil
}

// run drives one session. The deferred finalizer releases the session
// token and fires the terminal callback on every exit path, panics included.
func (m *Migrator) run(ctx context.Context, sess *Session, cb Callbacks) {
	defer m.wg.Done()

	if m.sessionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.sessionTimeout)
		defer cancel()
	}

	ctx, span := m.tracer.Start(ctx, "migrator.session",
		trace.WithAttributes(attribute.String("migrator.session_id", sess.id.String())),
	)

	var (
		handle *account.Handle
		err    error
	)
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("migration session panicked", "session_id", sess.id.String(), "panic", r)
			handle, err = nil, fmt.Errorf("%w: %v", ErrSessionPanic, r)
		}
		m.finish(ctx, span, sess, cb, handle, err)
	}()

	handle, err = m.execute(ctx, sess, cb)
}

func (m *Migrator) execute(ctx context.Context, sess *Session, cb Callbacks) (*account.Handle, error) {
	address, err := m.resolveAddress(ctx, sess)
	if err != nil {
		return nil, err
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("migrator.address", address))
	m.plugins.EmitSessionStarted(ctx, sess.id, address)
	m.logger.Info("migration session started", "session_id", sess.id.String(), "address", address)

	m.transition(ctx, sess, state.Resolving)
	v, err := m.resolveVersion(ctx, address)
	if err != nil {
		return nil, err
	}

	migrated, err := m.store.IsMigrated(ctx, address)
	if err != nil {
		return nil, err
	}

	switch {
	case v == version.Current:
		m.choose(ctx, sess, state.PathAlreadyCurrent, state.AlreadyCurrent)
		return account.NewHandle(address, m.current), nil
	case migrated:
		return m.reconcile(ctx, sess, address)
	default:
		m.choose(ctx, sess, state.PathMigrated, state.NeedsMigration)
		return m.migrate(ctx, sess, address, cb)
	}
}

func (m *Migrator) resolveAddress(ctx context.Context, sess *Session) (string, error) {
	address := sess.Address()
	if address == "" {
		if m.source == nil {
			return "", ErrNoLocalAccount
		}
		found, err := m.source.LastActiveAddress(ctx)
		if err != nil {
			return "", fmt.Errorf("migrator: look up local account: %w", err)
		}
		if found == "" {
			return "", ErrNoLocalAccount
		}
		address = found
		sess.setAddress(address)
	}

	if err := account.ValidateAddress(address); err != nil {
		return "", err
	}
	return address, nil
}

func (m *Migrator) resolveVersion(ctx context.Context, address string) (version.Version, error) {
	m.plugins.EmitVersionCheckStarted(ctx, address)

	v, err := m.resolver.Resolve(ctx, address)
	if err != nil {
		m.plugins.EmitVersionCheckFailed(context.WithoutCancel(ctx), address, err)
		return 0, err
	}

	m.plugins.EmitVersionResolved(ctx, address, v)
	return v, nil
}

// reconcile handles a completion record paired with a legacy answer. The
// provider is asked once more; a persistent disagreement is reported and
// settled by the policy. The account is never migrated a second time.
func (m *Migrator) reconcile(ctx context.Context, sess *Session, address string) (*account.Handle, error) {
	m.logger.Warn("completion record disagrees with resolved version, re-checking",
		"session_id", sess.id.String(),
		"address", address,
	)

	v, err := m.resolveVersion(ctx, address)
	if err != nil {
		return nil, err
	}
	if v == version.Current {
		m.choose(ctx, sess, state.PathAlreadyCurrent, state.AlreadyCurrent)
		return account.NewHandle(address, m.current), nil
	}

	m.logger.Warn("completion record still disagrees with resolved version",
		"session_id", sess.id.String(),
		"address", address,
		"policy", m.policy.String(),
	)
	m.plugins.EmitRecordDisagreement(ctx, address, v)

	if m.policy == TrustResolver {
		m.choose(ctx, sess, state.PathStaysLegacy, state.StaysLegacy)
		return account.NewHandle(address, m.legacy), nil
	}
	m.choose(ctx, sess, state.PathAlreadyCurrent, state.AlreadyCurrent)
	return account.NewHandle(address, m.current), nil
}

// migrate moves address to the current ledger. The completion record is
// written only after the burn succeeds.
func (m *Migrator) migrate(ctx context.Context, sess *Session, address string, cb Callbacks) (*account.Handle, error) {
	started := time.Now()

	m.plugins.EmitMigrationStarted(ctx, address)
	cb.OnMigrationStart()

	m.transition(ctx, sess, state.Creating)
	legacyStatus, err := m.legacy.AccountStatus(ctx, address)
	if err != nil {
		return nil, err
	}
	if legacyStatus == account.NotCreated {
		return nil, &account.NotFoundError{Address: address, Ledger: version.Legacy}
	}

	currentStatus, err := m.current.AccountStatus(ctx, address)
	if err != nil {
		return nil, err
	}
	if currentStatus == account.NotCreated {
		if err := m.current.CreateAccount(ctx, address); err != nil {
			return nil, err
		}
		currentStatus = account.NotActivated
	}

	m.transition(ctx, sess, state.ActivatingCheck)
	if legacyStatus == account.Activated && currentStatus != account.Activated {
		if err := m.current.Activate(ctx, address); err != nil {
			return nil, err
		}
	}

	m.transition(ctx, sess, state.Burning)
	receipt, err := m.burner.BurnWithReceipt(ctx, account.NewHandle(address, m.legacy))
	if err != nil {
		return nil, err
	}

	m.transition(ctx, sess, state.Persisting)
	rec := &store.Record{
		Address:     address,
		SessionID:   sess.id,
		BurnOutcome: receipt.Outcome.String(),
		BurnTxHash:  receipt.TxHash,
	}
	if err := m.store.MarkMigrated(ctx, rec); err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	m.plugins.EmitMigrationCompleted(ctx, address, elapsed)
	m.logger.Info("account migrated",
		"session_id", sess.id.String(),
		"address", address,
		"burn_outcome", receipt.Outcome.String(),
		"elapsed", elapsed,
	)

	return account.NewHandle(address, m.current), nil
}

func (m *Migrator) transition(ctx context.Context, sess *Session, st state.State) {
	sess.setState(st)
	trace.SpanFromContext(ctx).AddEvent("migrator.state",
		trace.WithAttributes(attribute.String("migrator.state", st.String())),
	)
	m.logger.Debug("migration session step", "session_id", sess.id.String(), "state", st.String())
}

func (m *Migrator) choose(ctx context.Context, sess *Session, p state.Path, st state.State) {
	sess.setPath(p, st)
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("migrator.path", p.String()))
	m.logger.Debug("migration session path", "session_id", sess.id.String(), "path", p.String())
}

// finish records the outcome, releases the session token and invokes the
// terminal callback.
func (m *Migrator) finish(ctx context.Context, span trace.Span, sess *Session, cb Callbacks, h *account.Handle, err error) {
	defer close(sess.done)
	defer span.End()

	ctx = context.WithoutCancel(ctx)
	failedIn := sess.complete(h, err)
	m.active.CompareAndSwap(sess, nil)

	address := sess.Address()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.logger.Error("migration session failed",
			"session_id", sess.id.String(),
			"address", address,
			"state", failedIn.String(),
			"error", err,
		)
		m.plugins.EmitMigrationFailed(ctx, address, err)
		m.callback(sess, func() { cb.OnError(err) })
		return
	}

	path := sess.Path()
	m.logger.Info("migration session ready",
		"session_id", sess.id.String(),
		"address", address,
		"version", h.Version().String(),
		"path", path.String(),
	)
	m.plugins.EmitClientReady(ctx, address, h.Version(), path)
	m.callback(sess, func() { cb.OnReady(h) })
}

// callback runs a caller callback, containing any panic it raises.
func (m *Migrator) callback(sess *Session, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("migration callback panicked", "session_id", sess.id.String(), "panic", r)
		}
	}()
	fn()
}

