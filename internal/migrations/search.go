package migrations

import (
	"context"
	"database/sql"
)

// GetSearchMigrations returns the migrations for the search index database.
// The FTS5 rowid doubles as the entity id.
func GetSearchMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_tamanhos_index",
			Up: func(ctx context.Context, tx *sql.Tx) error {
				return execAll(ctx, tx,
					`CREATE VIRTUAL TABLE tamanhos_index USING fts5(
						name,
						description,
						document UNINDEXED,
						tokenize = 'unicode61 remove_diacritics 2'
					)`,
				)
			},
			Down: func(ctx context.Context, tx *sql.Tx) error {
				return execAll(ctx, tx, `DROP TABLE IF EXISTS tamanhos_index`)
			},
		},
	}
}
