package user

import (
	"context"

	"solidarlink/internal/auth/models"
	id "solidarlink/pkg/domain"
)

// Store is the durable source of truth for user accounts.
//
// Errors: sentinel.ErrNotFound for missing users, sentinel.ErrConflict when
// saving a duplicate email.
type Store interface {
	Save(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, userID id.UserID) error
	List(ctx context.Context, filter models.Filter) ([]*models.User, error)
	Count(ctx context.Context) (int64, error)
}
