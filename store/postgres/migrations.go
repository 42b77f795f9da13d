package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the completion store (PostgreSQL).
var Migrations = migrate.NewGroup("migrator")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_migrator_records",
			Version: "20260101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS migrator_records (
    record_key   TEXT PRIMARY KEY,
    id           TEXT NOT NULL,
    namespace    TEXT NOT NULL,
    address      TEXT NOT NULL,
    migrated     BOOLEAN NOT NULL DEFAULT TRUE,
    session_id   TEXT,
    burn_outcome TEXT NOT NULL DEFAULT '',
    burn_tx_hash TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_migrator_records_namespace ON migrator_records (namespace);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS migrator_records`)
				return err
			},
		},
	)
}
