package migrator

import "github.com/xraph/migrator/id"

// ID is the identifier type for sessions and records.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
