// File: internal/usecase/stats_uc.go
package usecase

import (
	"context"

	"subscription-billing/internal/domain/ports/repository"
)

// StatsUseCase aggregates read-only numbers for the admin surface.
type StatsUseCase struct {
	users repository.UserRepository
	subs  repository.SubscriptionRepository
}

func NewStatsUseCase(users repository.UserRepository, subs repository.SubscriptionRepository) *StatsUseCase {
	return &StatsUseCase{users: users, subs: subs}
}

// Totals returns total users, subscriptions per plan, and the active
// subscription count.
func (uc *StatsUseCase) Totals(ctx context.Context) (int, map[string]int, int, error) {
	users, err := uc.users.CountUsers(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, 0, err
	}
	byPlan, err := uc.subs.CountByPlan(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, 0, err
	}
	active, err := uc.subs.CountActive(ctx, repository.NoTX)
	if err != nil {
		return 0, nil, 0, err
	}
	return users, byPlan, active, nil
}
