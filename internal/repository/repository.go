package repository

import (
	"context"

	"github.com/rogrs/loja/internal/page"
)

// Repository defines the basic CRUD operations for any entity type.
// This follows a similar pattern to Spring Data's PagingAndSortingRepository interface.
type Repository[T any, ID comparable] interface {
	// Save creates or updates an entity
	Save(ctx context.Context, entity T) (T, error)

	// FindByID retrieves an entity by its ID
	// Returns ErrNotFound if the entity doesn't exist
	FindByID(ctx context.Context, id ID) (T, error)

	// FindAll retrieves one page of entities
	FindAll(ctx context.Context, req page.Request) (page.Page[T], error)

	// DeleteByID deletes an entity by its ID
	// Deleting a missing entity is not an error
	DeleteByID(ctx context.Context, id ID) error

	// ExistsByID checks if an entity exists by its ID
	ExistsByID(ctx context.Context, id ID) (bool, error)

	// Count returns the number of stored entities
	Count(ctx context.Context) (int64, error)
}
