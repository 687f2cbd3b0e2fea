// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
)

// PlanUseCase is the read-mostly plan catalog. defaultPlanID optionally
// pins the bootstrap plan; empty means catalog-order convention.
type PlanUseCase struct {
	repo          repository.PlanRepository
	defaultPlanID string
}

func NewPlanUseCase(repo repository.PlanRepository, defaultPlanID string) *PlanUseCase {
	return &PlanUseCase{repo: repo, defaultPlanID: defaultPlanID}
}

// Create validates and saves a new plan.
func (uc *PlanUseCase) Create(ctx context.Context, name string, priceCents int64, recurrenceUnit model.TimeUnit, recurrencePeriod int, trialUnit model.TimeUnit, trialPeriod int, permissions []string) (*model.Plan, error) {
	p, err := model.NewPlan(uuid.NewString(), name, priceCents, recurrenceUnit, recurrencePeriod, trialUnit, trialPeriod, permissions)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Update saves changes to an existing plan.
func (uc *PlanUseCase) Update(ctx context.Context, p *model.Plan) error {
	if p.IsZero() {
		return domain.ErrInvalidArgument
	}
	return uc.repo.Save(ctx, repository.NoTX, p)
}

// Get retrieves a plan by ID.
func (uc *PlanUseCase) Get(ctx context.Context, id string) (*model.Plan, error) {
	return uc.repo.FindByID(ctx, repository.NoTX, id)
}

// List returns all plans in catalog order (price ascending, recurrence
// period descending).
func (uc *PlanUseCase) List(ctx context.Context) ([]*model.Plan, error) {
	return uc.repo.ListAll(ctx, repository.NoTX)
}

// Delete removes a plan. Historical ledger entries referencing it are
// untouched.
func (uc *PlanUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, repository.NoTX, id)
}

// DefaultFree returns the designated bootstrap plan every new user is
// subscribed to: the configured default when one is set and still in the
// catalog, otherwise the first plan in catalog order (the cheapest; ties
// broken by listing order).
func (uc *PlanUseCase) DefaultFree(ctx context.Context) (*model.Plan, error) {
	if uc.defaultPlanID != "" {
		p, err := uc.repo.FindByID(ctx, repository.NoTX, uc.defaultPlanID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}
	plans, err := uc.repo.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, domain.ErrNotFound
	}
	return plans[0], nil
}

// EstimatedDailyPrice estimates a plan's price per day in minor units,
// for upgrade/downgrade comparison only. One-time plans return 0.
func (uc *PlanUseCase) EstimatedDailyPrice(p *model.Plan) float64 {
	return p.PricePerDay()
}
