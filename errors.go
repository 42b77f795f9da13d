package migrator

import (
	"context"
	"errors"

	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/burner"
	"github.com/xraph/migrator/version"
)

// Sentinel errors for migrator-level failures.
var (
	ErrMigrationInProcess = errors.New("migrator: migration already in process")
	ErrNoLocalAccount     = errors.New("migrator: no local account to migrate")
	ErrShutdown           = errors.New("migrator: shut down")
	ErrSessionPanic       = errors.New("migrator: session panicked")
	ErrMissingDependency  = errors.New("migrator: missing dependency")
)

// Errors surfaced from the collaborating packages. Callers can match a
// session failure against these without importing each package.
var (
	ErrFailedToResolveVersion = version.ErrFailedToResolveVersion
	ErrAccountNotFound        = account.ErrAccountNotFound
	ErrAccountNotActivated    = account.ErrAccountNotActivated
	ErrInsufficientFunds      = account.ErrInsufficientFunds
	ErrTransactionFailed      = account.ErrTransactionFailed
	ErrInvalidAddress         = account.ErrInvalidAddress
	ErrBurnTransactionFailed  = burner.ErrBurnTransactionFailed
)

// IsRetryable reports whether starting a new session may succeed where
// this one failed. Account-state errors need user action first.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrMigrationInProcess) ||
		errors.Is(err, ErrFailedToResolveVersion) ||
		errors.Is(err, ErrBurnTransactionFailed) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsAccountStateError reports whether err describes the account's state on
// a ledger.
func IsAccountStateError(err error) bool {
	return account.IsStateError(err)
}
