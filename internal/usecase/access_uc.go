// File: internal/usecase/access_uc.go
package usecase

import (
	"context"
	"errors"
	"sort"
	"time"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/ports/repository"
)

// AccessUseCase derives the permission set a user effectively holds: the
// base permissions from the directory, unioned with the subscription
// plan's grants while the subscription has effective access. Past the
// grace window, or while cancelled-and-expired, the plan contributes
// nothing.
type AccessUseCase struct {
	users     repository.UserRepository
	subs      repository.SubscriptionRepository
	plans     repository.PlanRepository
	graceDays int
}

func NewAccessUseCase(users repository.UserRepository, subs repository.SubscriptionRepository, plans repository.PlanRepository, graceDays int) *AccessUseCase {
	if graceDays <= 0 {
		graceDays = 2
	}
	return &AccessUseCase{users: users, subs: subs, plans: plans, graceDays: graceDays}
}

// EffectivePermissions returns the sorted union of base and plan
// permissions. A user without a subscription record keeps base
// permissions; the caller can distinguish that case via HasSubscription.
func (uc *AccessUseCase) EffectivePermissions(ctx context.Context, userID string) ([]string, error) {
	user, err := uc.users.FindByID(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(user.Permissions))
	for _, p := range user.Permissions {
		set[p] = struct{}{}
	}

	sub, err := uc.subs.FindByUser(ctx, repository.NoTX, userID)
	if err == nil && sub.HasAccess(time.Now(), uc.graceDays) {
		plan, perr := uc.plans.FindByID(ctx, repository.NoTX, sub.PlanID)
		if perr == nil {
			for _, p := range plan.Permissions {
				set[p] = struct{}{}
			}
		} else if !errors.Is(perr, domain.ErrNotFound) {
			return nil, perr
		}
	} else if err != nil && !errors.Is(err, domain.ErrNoSubscription) {
		return nil, err
	}

	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// HasPermission reports whether the permission is in the effective set.
func (uc *AccessUseCase) HasPermission(ctx context.Context, userID, perm string) (bool, error) {
	perms, err := uc.EffectivePermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}

// HasSubscription reports whether the user holds a subscription record.
// The missing-record case surfaces as (false, nil) so presentation layers
// can redirect to plan selection instead of treating it as a failure.
func (uc *AccessUseCase) HasSubscription(ctx context.Context, userID string) (bool, error) {
	_, err := uc.subs.FindByUser(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNoSubscription) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
