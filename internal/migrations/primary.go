package migrations

import (
	"context"
	"database/sql"
)

// GetPrimaryMigrations returns the migrations for the primary store
func GetPrimaryMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_tamanhos_table",
			Up: func(ctx context.Context, tx *sql.Tx) error {
				return execAll(ctx, tx,
					`CREATE TABLE tamanhos (
						id INTEGER PRIMARY KEY AUTOINCREMENT,
						name TEXT NOT NULL,
						description TEXT NOT NULL DEFAULT '',
						created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
						updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
					)`,
					`CREATE INDEX idx_tamanhos_name ON tamanhos(name)`,
				)
			},
			Down: func(ctx context.Context, tx *sql.Tx) error {
				return execAll(ctx, tx, `DROP TABLE IF EXISTS tamanhos`)
			},
		},
		{
			Version: 2,
			Name:    "create_search_outbox_table",
			Up: func(ctx context.Context, tx *sql.Tx) error {
				return execAll(ctx, tx,
					`CREATE TABLE search_outbox (
						id TEXT PRIMARY KEY,
						entity_id INTEGER NOT NULL,
						operation TEXT NOT NULL CHECK (operation IN ('index', 'delete')),
						attempts INTEGER NOT NULL DEFAULT 0,
						last_error TEXT NOT NULL DEFAULT '',
						created_at INTEGER NOT NULL
					)`,
					`CREATE INDEX idx_search_outbox_created_at ON search_outbox(created_at)`,
				)
			},
			Down: func(ctx context.Context, tx *sql.Tx) error {
				return execAll(ctx, tx, `DROP TABLE IF EXISTS search_outbox`)
			},
		},
	}
}
