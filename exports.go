package migrator

import (
	"github.com/xraph/migrator/account"
	"github.com/xraph/migrator/state"
	"github.com/xraph/migrator/version"
)

// Re-exported so callers rarely need the leaf packages.

// Version is re-exported from the version package.
type Version = version.Version

// Handle is re-exported from the account package.
type Handle = account.Handle

// State is re-exported from the state package.
type State = state.State

// Path is re-exported from the state package.
type Path = state.Path

// Versions.
const (
	Legacy  = version.Legacy
	Current = version.Current
)
