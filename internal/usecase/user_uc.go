// File: internal/usecase/user_uc.go
package usecase

import (
	"context"

	"github.com/google/uuid"

	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
)

// UserUseCase manages the user directory. Every new user starts on the
// default free plan so a subscription record always exists after signup.
type UserUseCase struct {
	users repository.UserRepository
	plans *PlanUseCase
	subs  *SubscriptionUseCase
}

func NewUserUseCase(users repository.UserRepository, plans *PlanUseCase, subs *SubscriptionUseCase) *UserUseCase {
	return &UserUseCase{users: users, plans: plans, subs: subs}
}

// Register creates the user and auto-subscribes them to the default free
// plan.
func (uc *UserUseCase) Register(ctx context.Context, username string, permissions []string) (*model.User, error) {
	u, err := model.NewUser(uuid.NewString(), username, permissions)
	if err != nil {
		return nil, err
	}
	if err := uc.users.Save(ctx, repository.NoTX, u); err != nil {
		return nil, err
	}
	free, err := uc.plans.DefaultFree(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := uc.subs.Subscribe(ctx, u.ID, free.ID); err != nil {
		return nil, err
	}
	return u, nil
}

// Get retrieves a user by ID.
func (uc *UserUseCase) Get(ctx context.Context, id string) (*model.User, error) {
	return uc.users.FindByID(ctx, repository.NoTX, id)
}

// Count returns the number of registered users.
func (uc *UserUseCase) Count(ctx context.Context) (int, error) {
	return uc.users.CountUsers(ctx, repository.NoTX)
}
