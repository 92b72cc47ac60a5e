// Package search keeps the full-text mirror of the primary store in an SQLite
// FTS5 table. Documents are the entity JSON; the FTS5 rowid is the entity id.
package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rogrs/loja/internal/domain"
	"github.com/rogrs/loja/internal/page"
)

// ErrMissingID is returned when a document without an id is indexed.
var ErrMissingID = errors.New("document has no id")

// SortFields maps the sortable public fields to index columns.
var SortFields = map[string]string{
	"id":   "rowid",
	"name": "name",
}

// TamanhosSearchRepository is the search index over tamanhos documents.
type TamanhosSearchRepository interface {
	// Save replaces the document with the entity's id
	Save(ctx context.Context, entity domain.Tamanhos) error

	// SaveAll replaces several documents in one transaction
	SaveAll(ctx context.Context, entities []domain.Tamanhos) error

	// DeleteByID removes a document; a missing document is not an error
	DeleteByID(ctx context.Context, id int64) error

	// Search runs a query string and returns one page of documents
	Search(ctx context.Context, query string, req page.Request) (page.Page[domain.Tamanhos], error)

	// DeleteAll empties the index
	DeleteAll(ctx context.Context) error

	// Count returns the number of indexed documents
	Count(ctx context.Context) (int64, error)
}

type tamanhosIndex struct {
	db *sql.DB
}

// NewTamanhosIndex returns the FTS5 backed search repository.
func NewTamanhosIndex(db *sql.DB) TamanhosSearchRepository {
	return &tamanhosIndex{db: db}
}

func (x *tamanhosIndex) Save(ctx context.Context, entity domain.Tamanhos) error {
	return x.SaveAll(ctx, []domain.Tamanhos{entity})
}

func (x *tamanhosIndex) SaveAll(ctx context.Context, entities []domain.Tamanhos) error {
	if len(entities) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entities {
		if !e.HasID() {
			return ErrMissingID
		}
		doc, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode document %d: %w", e.IDValue(), err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM tamanhos_index WHERE rowid = ?", e.IDValue()); err != nil {
			return fmt.Errorf("failed to replace document %d: %w", e.IDValue(), err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO tamanhos_index (rowid, name, description, document) VALUES (?, ?, ?, ?)",
			e.IDValue(), e.Name, e.Description, string(doc))
		if err != nil {
			return fmt.Errorf("failed to index document %d: %w", e.IDValue(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit index transaction: %w", err)
	}
	return nil
}

func (x *tamanhosIndex) DeleteByID(ctx context.Context, id int64) error {
	if _, err := x.db.ExecContext(ctx, "DELETE FROM tamanhos_index WHERE rowid = ?", id); err != nil {
		return fmt.Errorf("failed to delete document %d: %w", id, err)
	}
	return nil
}

func (x *tamanhosIndex) Search(ctx context.Context, query string, req page.Request) (page.Page[domain.Tamanhos], error) {
	expr := Translate(query)

	var where []string
	var args []any
	if expr.Match != "" {
		where = append(where, "tamanhos_index MATCH ?")
		args = append(args, expr.Match)
	}
	if expr.Exclude != "" {
		where = append(where, "rowid NOT IN (SELECT rowid FROM tamanhos_index WHERE tamanhos_index MATCH ?)")
		args = append(args, expr.Exclude)
	}
	filter := ""
	if len(where) > 0 {
		filter = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := x.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tamanhos_index"+filter, args...).Scan(&total); err != nil {
		return page.Page[domain.Tamanhos]{}, fmt.Errorf("failed to count search results: %w", err)
	}

	orderBy := "rowid ASC"
	switch {
	case len(req.Sort) > 0:
		orderBy = req.OrderBy(orderBy) + ", rowid ASC"
	case expr.Match != "":
		orderBy = "rank, rowid ASC"
	}

	rows, err := x.db.QueryContext(ctx,
		"SELECT document FROM tamanhos_index"+filter+" ORDER BY "+orderBy+" LIMIT ? OFFSET ?",
		append(args, req.Limit(), req.Offset())...)
	if err != nil {
		return page.Page[domain.Tamanhos]{}, fmt.Errorf("failed to search index: %w", err)
	}
	defer rows.Close()

	var content []domain.Tamanhos
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return page.Page[domain.Tamanhos]{}, fmt.Errorf("failed to scan document: %w", err)
		}
		var t domain.Tamanhos
		if err := json.Unmarshal([]byte(doc), &t); err != nil {
			return page.Page[domain.Tamanhos]{}, fmt.Errorf("failed to decode document: %w", err)
		}
		content = append(content, t)
	}
	if err := rows.Err(); err != nil {
		return page.Page[domain.Tamanhos]{}, fmt.Errorf("failed to iterate search results: %w", err)
	}

	return page.New(content, req, total), nil
}

func (x *tamanhosIndex) DeleteAll(ctx context.Context) error {
	if _, err := x.db.ExecContext(ctx, "DELETE FROM tamanhos_index"); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return nil
}

func (x *tamanhosIndex) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := x.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tamanhos_index").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}
