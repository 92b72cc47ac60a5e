package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rogrs/loja/internal/domain"
	"github.com/rogrs/loja/internal/page"
)

// TamanhosSortFields maps the sortable public fields to their columns.
var TamanhosSortFields = map[string]string{
	"id":          "id",
	"name":        "name",
	"description": "description",
}

// TamanhosRepository defines domain-specific operations for tamanhos
type TamanhosRepository interface {
	Repository[domain.Tamanhos, int64]

	// SaveTracked is Save that also returns the outbox entry written with the row
	SaveTracked(ctx context.Context, entity domain.Tamanhos) (domain.Tamanhos, OutboxEntry, error)

	// DeleteTracked is DeleteByID that also returns the outbox entry written with the delete
	DeleteTracked(ctx context.Context, id int64) (OutboxEntry, error)

	// ForEachBatch walks every row in id order, batch rows at a time
	ForEachBatch(ctx context.Context, batch int, fn func([]domain.Tamanhos) error) error

	// Close releases cached statements
	Close() error
}

const (
	insertTamanhosQuery = "INSERT INTO tamanhos (name, description) VALUES (?, ?)"
	upsertTamanhosQuery = `INSERT INTO tamanhos (id, name, description) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			updated_at = CURRENT_TIMESTAMP`
	selectTamanhosByIDQuery = "SELECT id, name, description FROM tamanhos WHERE id = ?"
	existsTamanhosQuery     = "SELECT EXISTS(SELECT 1 FROM tamanhos WHERE id = ?)"
	deleteTamanhosQuery     = "DELETE FROM tamanhos WHERE id = ?"
	countTamanhosQuery      = "SELECT COUNT(*) FROM tamanhos"
	batchTamanhosQuery      = "SELECT id, name, description FROM tamanhos WHERE id > ? ORDER BY id ASC LIMIT ?"
)

// tamanhosRepositoryImpl implements TamanhosRepository on the primary store
type tamanhosRepositoryImpl struct {
	db    *sql.DB
	stmts *PreparedStatementCache
}

// NewTamanhosRepository creates a new tamanhos repository
func NewTamanhosRepository(db *sql.DB) TamanhosRepository {
	return &tamanhosRepositoryImpl{
		db:    db,
		stmts: NewPreparedStatementCache(db),
	}
}

// Save creates a row when entity has no id, otherwise inserts or replaces the row with that id
func (r *tamanhosRepositoryImpl) Save(ctx context.Context, entity domain.Tamanhos) (domain.Tamanhos, error) {
	saved, _, err := r.SaveTracked(ctx, entity)
	return saved, err
}

// SaveTracked writes the row and an index outbox entry in one transaction
func (r *tamanhosRepositoryImpl) SaveTracked(ctx context.Context, entity domain.Tamanhos) (domain.Tamanhos, OutboxEntry, error) {
	if err := entity.Validate(); err != nil {
		return domain.Tamanhos{}, OutboxEntry{}, fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	var saved domain.Tamanhos
	var entry OutboxEntry
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		id, err := r.write(ctx, tx, entity)
		if err != nil {
			return err
		}
		saved = entity.WithID(id)
		entry, err = recordOutbox(ctx, tx, id, OperationIndex)
		return err
	})
	if err != nil {
		return domain.Tamanhos{}, OutboxEntry{}, fmt.Errorf("failed to save tamanhos: %w", err)
	}
	return saved, entry, nil
}

func (r *tamanhosRepositoryImpl) write(ctx context.Context, tx *sql.Tx, entity domain.Tamanhos) (int64, error) {
	if !entity.HasID() {
		stmt, err := r.stmts.InTx(ctx, tx, insertTamanhosQuery)
		if err != nil {
			return 0, err
		}
		res, err := stmt.ExecContext(ctx, entity.Name, entity.Description)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	stmt, err := r.stmts.InTx(ctx, tx, upsertTamanhosQuery)
	if err != nil {
		return 0, err
	}
	if _, err := stmt.ExecContext(ctx, entity.IDValue(), entity.Name, entity.Description); err != nil {
		return 0, err
	}
	return entity.IDValue(), nil
}

// FindByID retrieves a tamanhos by its ID
func (r *tamanhosRepositoryImpl) FindByID(ctx context.Context, id int64) (domain.Tamanhos, error) {
	stmt, err := r.stmts.Get(ctx, selectTamanhosByIDQuery)
	if err != nil {
		return domain.Tamanhos{}, fmt.Errorf("failed to find tamanhos: %w", err)
	}

	t, err := scanTamanhos(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tamanhos{}, fmt.Errorf("tamanhos with ID %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Tamanhos{}, fmt.Errorf("failed to find tamanhos: %w", err)
	}
	return t, nil
}

// FindAll retrieves one page of tamanhos
func (r *tamanhosRepositoryImpl) FindAll(ctx context.Context, req page.Request) (page.Page[domain.Tamanhos], error) {
	total, err := r.Count(ctx)
	if err != nil {
		return page.Page[domain.Tamanhos]{}, err
	}

	orderBy := "id ASC"
	if len(req.Sort) > 0 {
		orderBy = req.OrderBy(orderBy) + ", id ASC"
	}
	query := "SELECT id, name, description FROM tamanhos ORDER BY " + orderBy + " LIMIT ? OFFSET ?"

	rows, err := r.db.QueryContext(ctx, query, req.Limit(), req.Offset())
	if err != nil {
		return page.Page[domain.Tamanhos]{}, fmt.Errorf("failed to list tamanhos: %w", err)
	}
	defer rows.Close()

	content, err := collectTamanhos(rows)
	if err != nil {
		return page.Page[domain.Tamanhos]{}, fmt.Errorf("failed to list tamanhos: %w", err)
	}
	return page.New(content, req, total), nil
}

// DeleteByID removes a tamanhos by its ID
func (r *tamanhosRepositoryImpl) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.DeleteTracked(ctx, id)
	return err
}

// DeleteTracked removes the row and writes a delete outbox entry in one transaction.
// The entry is written even when no row matched so a stale document still gets removed.
func (r *tamanhosRepositoryImpl) DeleteTracked(ctx context.Context, id int64) (OutboxEntry, error) {
	var entry OutboxEntry
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := r.stmts.InTx(ctx, tx, deleteTamanhosQuery)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return err
		}
		entry, err = recordOutbox(ctx, tx, id, OperationDelete)
		return err
	})
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("failed to delete tamanhos: %w", err)
	}
	return entry, nil
}

// ExistsByID checks if a tamanhos exists by its ID
func (r *tamanhosRepositoryImpl) ExistsByID(ctx context.Context, id int64) (bool, error) {
	stmt, err := r.stmts.Get(ctx, existsTamanhosQuery)
	if err != nil {
		return false, fmt.Errorf("failed to check tamanhos existence: %w", err)
	}
	var exists bool
	if err := stmt.QueryRowContext(ctx, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check tamanhos existence: %w", err)
	}
	return exists, nil
}

// Count returns the number of stored tamanhos
func (r *tamanhosRepositoryImpl) Count(ctx context.Context) (int64, error) {
	stmt, err := r.stmts.Get(ctx, countTamanhosQuery)
	if err != nil {
		return 0, fmt.Errorf("failed to count tamanhos: %w", err)
	}
	var n int64
	if err := stmt.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tamanhos: %w", err)
	}
	return n, nil
}

// ForEachBatch walks every row in id order, batch rows at a time
func (r *tamanhosRepositoryImpl) ForEachBatch(ctx context.Context, batch int, fn func([]domain.Tamanhos) error) error {
	if batch <= 0 {
		batch = page.DefaultSize
	}
	stmt, err := r.stmts.Get(ctx, batchTamanhosQuery)
	if err != nil {
		return fmt.Errorf("failed to read tamanhos batch: %w", err)
	}

	var after int64
	for {
		rows, err := stmt.QueryContext(ctx, after, batch)
		if err != nil {
			return fmt.Errorf("failed to read tamanhos batch: %w", err)
		}
		items, err := collectTamanhos(rows)
		rows.Close()
		if err != nil {
			return fmt.Errorf("failed to read tamanhos batch: %w", err)
		}
		if len(items) == 0 {
			return nil
		}
		if err := fn(items); err != nil {
			return err
		}
		if len(items) < batch {
			return nil
		}
		after = items[len(items)-1].IDValue()
	}
}

// Close releases cached statements
func (r *tamanhosRepositoryImpl) Close() error {
	return r.stmts.Close()
}

func (r *tamanhosRepositoryImpl) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTamanhos(row rowScanner) (domain.Tamanhos, error) {
	var t domain.Tamanhos
	var id int64
	if err := row.Scan(&id, &t.Name, &t.Description); err != nil {
		return domain.Tamanhos{}, err
	}
	return t.WithID(id), nil
}

func collectTamanhos(rows *sql.Rows) ([]domain.Tamanhos, error) {
	var items []domain.Tamanhos
	for rows.Next() {
		t, err := scanTamanhos(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
