package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Operation is the index change an outbox entry asks for.
type Operation string

const (
	// OperationIndex mirrors the current primary row into the index.
	OperationIndex Operation = "index"
	// OperationDelete removes the document from the index.
	OperationDelete Operation = "delete"
)

// OutboxEntry is a pending search index change recorded alongside a primary write.
type OutboxEntry struct {
	ID        string
	EntityID  int64
	Operation Operation
	Attempts  int
	LastError string
	CreatedAt time.Time
}

// OutboxRepository tracks index changes that have not been confirmed yet.
type OutboxRepository interface {
	// Pending returns up to limit entries, oldest first
	Pending(ctx context.Context, limit int) ([]OutboxEntry, error)

	// Ack removes an entry once the index reflects it
	Ack(ctx context.Context, id string) error

	// RecordFailure bumps the attempt counter and stores the last error
	RecordFailure(ctx context.Context, id string, cause error) error

	// Count returns the number of pending entries
	Count(ctx context.Context) (int64, error)

	// Clear drops every pending entry
	Clear(ctx context.Context) error
}

type outboxRepositoryImpl struct {
	db *sql.DB
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepositoryImpl{db: db}
}

// recordOutbox inserts an entry inside the caller's transaction
func recordOutbox(ctx context.Context, tx *sql.Tx, entityID int64, op Operation) (OutboxEntry, error) {
	entry := OutboxEntry{
		ID:        uuid.NewString(),
		EntityID:  entityID,
		Operation: op,
		CreatedAt: time.Now().UTC(),
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO search_outbox (id, entity_id, operation, created_at) VALUES (?, ?, ?, ?)",
		entry.ID, entry.EntityID, string(entry.Operation), entry.CreatedAt.UnixNano())
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("failed to record outbox entry for %d: %w", entityID, err)
	}
	return entry, nil
}

// Pending returns up to limit entries, oldest first
func (r *outboxRepositoryImpl) Pending(ctx context.Context, limit int) ([]OutboxEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, entity_id, operation, attempts, last_error, created_at FROM search_outbox ORDER BY created_at ASC, id ASC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list outbox entries: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var op string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.EntityID, &op, &e.Attempts, &e.LastError, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		e.Operation = Operation(op)
		e.CreatedAt = time.Unix(0, createdAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox entries: %w", err)
	}
	return entries, nil
}

// Ack removes an entry once the index reflects it
func (r *outboxRepositoryImpl) Ack(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM search_outbox WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to ack outbox entry %s: %w", id, err)
	}
	return nil
}

// RecordFailure bumps the attempt counter and stores the last error
func (r *outboxRepositoryImpl) RecordFailure(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := r.db.ExecContext(ctx,
		"UPDATE search_outbox SET attempts = attempts + 1, last_error = ? WHERE id = ?", msg, id)
	if err != nil {
		return fmt.Errorf("failed to record outbox failure for %s: %w", id, err)
	}
	return nil
}

// Count returns the number of pending entries
func (r *outboxRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM search_outbox").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count outbox entries: %w", err)
	}
	return n, nil
}

// Clear drops every pending entry
func (r *outboxRepositoryImpl) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM search_outbox"); err != nil {
		return fmt.Errorf("failed to clear outbox: %w", err)
	}
	return nil
}
