package identity

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// FindByUsername matches the username case-insensitively
	FindByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	FindAll(ctx context.Context) ([]*User, error)
	Count(ctx context.Context) (int64, error)
}

// BranchRepository defines the interface for branch persistence
type BranchRepository interface {
	Create(ctx context.Context, branch *Branch) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	FindByCNPJ(ctx context.Context, cnpj string) (*Branch, error)
	// FindAll returns branches ordered by name; search matches name or CNPJ
	FindAll(ctx context.Context, search string) ([]*Branch, error)
	Count(ctx context.Context) (int64, error)
}
