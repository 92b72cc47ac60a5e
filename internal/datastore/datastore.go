// Package datastore owns the two SQLite databases behind the service: the
// primary store holding authoritative Tamanhos rows and their search outbox,
// and the search index database holding the FTS5 mirror.
package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rogrs/loja/internal/config"
	"github.com/rogrs/loja/internal/migrations"
)

// Datastore bundles the primary and index connections.
type Datastore struct {
	Primary *sql.DB
	Index   *sql.DB
}

// Versions reports the applied migration version per database.
type Versions struct {
	Primary int64
	Index   int64
}

// New opens both databases and runs their migrations.
func New(ctx context.Context, primaryPath, indexPath string) (*Datastore, error) {
	primary, err := config.OpenDatabase(primaryPath)
	if err != nil {
		return nil, fmt.Errorf("primary store: %w", err)
	}

	index, err := config.OpenDatabase(indexPath)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("search index: %w", err)
	}

	ds := &Datastore{Primary: primary, Index: index}
	if err := ds.Migrate(ctx); err != nil {
		ds.Close()
		return nil, err
	}
	return ds, nil
}

// Open is New using the paths from cfg.
func Open(ctx context.Context, cfg *config.Config) (*Datastore, error) {
	return New(ctx, cfg.Database.Path, cfg.Search.Path)
}

// Migrate applies pending migrations to both databases.
func (ds *Datastore) Migrate(ctx context.Context) error {
	if err := ds.primaryMigrator().RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to migrate primary store: %w", err)
	}
	if err := ds.indexMigrator().RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to migrate search index: %w", err)
	}
	return nil
}

// Rollback reverts the latest migration applied to the primary store.
func (ds *Datastore) Rollback(ctx context.Context) error {
	if err := ds.primaryMigrator().Rollback(ctx); err != nil {
		return fmt.Errorf("failed to roll back primary store: %w", err)
	}
	return nil
}

// Versions returns the current schema version of both databases.
func (ds *Datastore) Versions(ctx context.Context) (Versions, error) {
	var v Versions
	var err error
	if v.Primary, err = ds.primaryMigrator().GetCurrentVersion(ctx); err != nil {
		return Versions{}, fmt.Errorf("primary store version: %w", err)
	}
	if v.Index, err = ds.indexMigrator().GetCurrentVersion(ctx); err != nil {
		return Versions{}, fmt.Errorf("search index version: %w", err)
	}
	return v, nil
}

// Ping checks that both databases answer.
func (ds *Datastore) Ping(ctx context.Context) error {
	if err := ds.Primary.PingContext(ctx); err != nil {
		return fmt.Errorf("primary store: %w", err)
	}
	if err := ds.Index.PingContext(ctx); err != nil {
		return fmt.Errorf("search index: %w", err)
	}
	return nil
}

// Close closes both databases.
func (ds *Datastore) Close() error {
	return errors.Join(ds.Primary.Close(), ds.Index.Close())
}

func (ds *Datastore) primaryMigrator() *migrations.Migrator {
	return migrations.NewMigrator(ds.Primary, migrations.GetPrimaryMigrations()...)
}

func (ds *Datastore) indexMigrator() *migrations.Migrator {
	return migrations.NewMigrator(ds.Index, migrations.GetSearchMigrations()...)
}
