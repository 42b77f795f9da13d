// Package state names the steps of a migration session.
package state

// State is the step a session is currently in.
type State int

const (
	Idle State = iota
	Resolving
	AlreadyCurrent
	NeedsMigration
	StaysLegacy
	Creating
	ActivatingCheck
	Burning
	Persisting
	Ready
	Failed
)

var stateNames = [...]string{
	Idle:            "idle",
	Resolving:       "resolving",
	AlreadyCurrent:  "already_current",
	NeedsMigration:  "needs_migration",
	StaysLegacy:     "stays_legacy",
	Creating:        "creating",
	ActivatingCheck: "activating_check",
	Burning:         "burning",
	Persisting:      "persisting",
	Ready:           "ready",
	Failed:          "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == Ready || s == Failed
}

// Path is the branch a session took after version resolution. It is also
// the reason reported when a client is handed to the caller.
type Path int

const (
	// PathAlreadyCurrent means the account was already on the current ledger.
	PathAlreadyCurrent Path = iota + 1
	// PathMigrated means this session performed the migration.
	PathMigrated
	// PathStaysLegacy means the account remains on the legacy ledger.
	PathStaysLegacy
)

func (p Path) String() string {
	switch p {
	case PathAlreadyCurrent:
		return "already_current"
	case PathMigrated:
		return "migrated"
	case PathStaysLegacy:
		return "stays_legacy"
	default:
		return "unknown"
	}
}
