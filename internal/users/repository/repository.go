package repository

import (
	"context"

	"github.com/govind-sing/farmBridge-backend/internal/domain"
)

var ErrUserNotFound = domain.NewNotFoundError("user")

type UserRepository interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	// GetUsers returns the users that exist among ids, keyed by id.
	GetUsers(ctx context.Context, ids []string) (map[string]*domain.User, error)
	// UpsertProfile stores name, email, role and address for u.ID, creating
	// the profile on first write.
	UpsertProfile(ctx context.Context, u *domain.User) (*domain.User, error)
}
