package repository

import (
	"context"
	"errors"

	"userapi/internal/model"
)

var (
	// ErrNotFound is returned when no row matches the requested identifier.
	ErrNotFound = errors.New("user not found")
	// ErrConstraintViolation wraps integrity failures such as a duplicate email.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrStorageUnavailable wraps every other database failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// UserRepository defines data access for users.
// Implementations hold no business logic.
type UserRepository interface {
	// FindAll returns every stored user ordered by ID (insertion order).
	// The result is never nil.
	FindAll(ctx context.Context) ([]model.User, error)

	// FindByID returns a user by its ID or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// Save inserts a user without an ID, or overwrites the row with the given ID.
	// A non-zero ID with no matching row is inserted under a freshly assigned ID.
	// Returns the stored record.
	Save(ctx context.Context, user *model.User) (*model.User, error)

	// DeleteByID removes a user. It returns nil if the row was deleted or did not exist.
	DeleteByID(ctx context.Context, id int64) error
}
