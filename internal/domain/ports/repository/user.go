package repository

import (
	"context"

	"subscription-billing/internal/domain/model"
)

// UserRepository is the port for the user/permission directory.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
