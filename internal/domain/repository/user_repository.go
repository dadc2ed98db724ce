package repository

import (
	"context"

	"github.com/oksasatya/galactic-postbox/internal/domain/entity"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	// Create inserts u and, for custom addresses, the matching catalog row.
	// Unique violations are reported as *DuplicateError.
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	GetByAddress(ctx context.Context, address string) (*entity.User, error)
	// FindConflict returns the first of "username", "email", "address" already
	// taken by another user, or "" when all are free.
	FindConflict(ctx context.Context, username, email, address string) (string, error)
}
