package audithook

// Action constants for audit events.
const (
	// Session actions
	ActionSessionStarted = "session.started"
	ActionSessionReady   = "session.ready"
	ActionSessionFailed  = "session.failed"

	// Version actions
	ActionVersionResolved    = "version.resolved"
	ActionVersionCheckFailed = "version.check_failed"
	ActionRecordDisagreement = "record.disagreement"

	// Migration actions
	ActionMigrationStarted   = "migration.started"
	ActionMigrationCompleted = "migration.completed"

	// Burn actions
	ActionBurnCompleted = "burn.completed"
	ActionBurnFailed    = "burn.failed"
)

// Resource constants for audit events.
const (
	ResourceSession = "session"
	ResourceAccount = "account"
	ResourceRecord  = "record"
)

// Category constants for audit events.
const (
	CategoryMigration = "migration"
	CategoryLedger    = "ledger"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
