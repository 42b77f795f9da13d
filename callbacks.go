package migrator

import "github.com/xraph/migrator/account"

// Callbacks receives a session's lifecycle. Exactly one of OnReady or
// OnError is called per session. OnMigrationStart is called at most once,
// before the terminal callback, and only when the session migrates.
//
// Callbacks run on the session goroutine. The session has already released
// its single-flight token when OnReady or OnError runs, so either may call
// Start again.
type Callbacks interface {
	OnMigrationStart()
	OnReady(h *account.Handle)
	OnError(err error)
}

// CallbackFuncs adapts plain functions to Callbacks. Nil fields are skipped.
type CallbackFuncs struct {
	MigrationStart func()
	Ready          func(h *account.Handle)
	Error          func(err error)
}

// OnMigrationStart implements Callbacks.
func (f CallbackFuncs) OnMigrationStart() {
	if f.MigrationStart != nil {
		f.MigrationStart()
	}
}

// OnReady implements Callbacks.
func (f CallbackFuncs) OnReady(h *account.Handle) {
	if f.Ready != nil {
		f.Ready(h)
	}
}

// OnError implements Callbacks.
func (f CallbackFuncs) OnError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}
