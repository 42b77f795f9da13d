// Package migrator coordinates the one-time move of user accounts from a
// legacy ledger to a current ledger while both are live.
//
// For each account the Migrator decides which ledger the caller should use,
// performs the migration at most once, rejects concurrent sessions, records
// completion durably and reports every step to registered plugins. It is a
// library: the ledger SDKs, the version service and the storage backend are
// injected.
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/migrator"
//	    "github.com/xraph/migrator/store/postgres"
//	)
//
//	m, err := migrator.New(postgres.New(db), versionService, legacyClient, currentClient,
//	    migrator.WithLogger(logger),
//	    migrator.WithSessionTimeout(2*time.Minute),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := m.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Shutdown(ctx)
//
//	_, err = m.Start(ctx, address, migrator.CallbackFuncs{
//	    MigrationStart: func() { showSpinner() },
//	    Ready:          func(h *migrator.Handle) { useAccount(h) },
//	    Error:          func(err error) { report(err) },
//	})
//	if errors.Is(err, migrator.ErrMigrationInProcess) {
//	    // a session is already running
//	}
//
// # Sessions
//
// Start returns immediately. Version resolution, account creation on the
// current ledger, the legacy burn and the completion write all run on a
// session goroutine, in that order. A session ends with exactly one of
// OnReady or OnError; by then the Migrator accepts a new Start.
//
// # Paths
//
// After resolution a session takes one of three paths:
//
//   - already current: the account is bound to the current ledger
//   - migrated: the account is created and activated on the current
//     ledger, burned on the legacy ledger, then recorded as migrated
//   - stays legacy: only when the completion record and the version
//     provider disagree and the TrustResolver policy is set
//
// Nothing is retried inside a session. Errors reach OnError unchanged and
// can be matched with errors.Is against the sentinels in this package.
//
// # TypeID
//
// Sessions and records use TypeIDs:
//
//	msess_01h2xcejqtf2nbrexx3vqjhp41  // Session ID
//	mrec_01h455vb4pex5vsknk084sn02q   // Record ID
package migrator
