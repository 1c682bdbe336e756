package repository

import (
	"context"

	"usersvc/internal/domain"
)

// UserUpdate carries the fields of a partial update. Nil fields are left
// untouched. Password changes arrive here already hashed.
type UserUpdate struct {
	Username     *string
	Email        *string
	FullName     *string
	PasswordHash *string
	IsActive     *bool
}

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, offset, limit int) ([]domain.User, error)
	Update(ctx context.Context, id int64, update UserUpdate) (*domain.User, error)
	Delete(ctx context.Context, id int64) error
}
