//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/usecase"
)

func TestPlanUseCase_Create(t *testing.T) {
	ctx := context.Background()
	repo := NewMockPlanRepo()
	uc := usecase.NewPlanUseCase(repo, "")

	t.Run("assigns an id and persists", func(t *testing.T) {
		p, err := uc.Create(ctx, "Gold", 1999, model.UnitMonth, 1, model.UnitNone, 0, []string{"billing.gold"})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if p.ID == "" {
			t.Error("plan should get a generated id")
		}
		if _, err := uc.Get(ctx, p.ID); err != nil {
			t.Errorf("created plan not findable: %v", err)
		}
	})

	t.Run("rejects a recurring plan without a period", func(t *testing.T) {
		if _, err := uc.Create(ctx, "Broken", 100, model.UnitMonth, 0, model.UnitNone, 0, nil); err != domain.ErrInvalidArgument {
			t.Errorf("want ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("rejects a negative price", func(t *testing.T) {
		if _, err := uc.Create(ctx, "Broken", -1, model.UnitMonth, 1, model.UnitNone, 0, nil); err != domain.ErrInvalidArgument {
			t.Errorf("want ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPlanUseCase_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewMockPlanRepo()
	uc := usecase.NewPlanUseCase(repo, "")
	repo.Save(ctx, nil, monthlyPlan())

	t.Run("persists changes to an existing plan", func(t *testing.T) {
		p, err := uc.Get(ctx, "plan-gold")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		p.PriceCents = 2499
		if err := uc.Update(ctx, p); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		got, _ := uc.Get(ctx, "plan-gold")
		if got.PriceCents != 2499 {
			t.Errorf("want the new price stored, got %d", got.PriceCents)
		}
	})

	t.Run("rejects a plan without an id", func(t *testing.T) {
		if err := uc.Update(ctx, &model.Plan{Name: "Nameless"}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("want ErrInvalidArgument, got %v", err)
		}
	})
}

func TestPlanUseCase_DefaultFree(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the first plan in catalog order", func(t *testing.T) {
		repo := NewMockPlanRepo()
		uc := usecase.NewPlanUseCase(repo, "")
		repo.Save(ctx, nil, monthlyPlan())
		repo.Save(ctx, nil, &model.Plan{ID: "plan-free", Name: "Free", PriceCents: 0})
		repo.Save(ctx, nil, weeklyTrialPlan())

		p, err := uc.DefaultFree(ctx)
		if err != nil {
			t.Fatalf("DefaultFree failed: %v", err)
		}
		if p.ID != "plan-free" {
			t.Errorf("want the cheapest plan first, got %q", p.ID)
		}
	})

	t.Run("a configured default wins over catalog order", func(t *testing.T) {
		repo := NewMockPlanRepo()
		uc := usecase.NewPlanUseCase(repo, "plan-gold")
		repo.Save(ctx, nil, monthlyPlan())
		repo.Save(ctx, nil, &model.Plan{ID: "plan-free", Name: "Free", PriceCents: 0})

		p, err := uc.DefaultFree(ctx)
		if err != nil {
			t.Fatalf("DefaultFree failed: %v", err)
		}
		if p.ID != "plan-gold" {
			t.Errorf("want the configured default, got %q", p.ID)
		}
	})

	t.Run("a dangling configured default falls back to catalog order", func(t *testing.T) {
		repo := NewMockPlanRepo()
		uc := usecase.NewPlanUseCase(repo, "plan-retired")
		repo.Save(ctx, nil, &model.Plan{ID: "plan-free", Name: "Free", PriceCents: 0})

		p, err := uc.DefaultFree(ctx)
		if err != nil {
			t.Fatalf("DefaultFree failed: %v", err)
		}
		if p.ID != "plan-free" {
			t.Errorf("want the catalog fallback, got %q", p.ID)
		}
	})

	t.Run("empty catalog reports not found", func(t *testing.T) {
		uc := usecase.NewPlanUseCase(NewMockPlanRepo(), "")
		if _, err := uc.DefaultFree(ctx); err != domain.ErrNotFound {
			t.Errorf("want ErrNotFound, got %v", err)
		}
	})
}

func TestPlanUseCase_EstimatedDailyPrice(t *testing.T) {
	uc := usecase.NewPlanUseCase(NewMockPlanRepo(), "")

	weekly := &model.Plan{ID: "w", Name: "Weekly", PriceCents: 700, RecurrenceUnit: model.UnitWeek, RecurrencePeriod: 1}
	if got := uc.EstimatedDailyPrice(weekly); got != 100 {
		t.Errorf("700/week should estimate 100/day, got %v", got)
	}

	daily := &model.Plan{ID: "d", Name: "Biweekly", PriceCents: 1400, RecurrenceUnit: model.UnitDay, RecurrencePeriod: 14}
	if got := uc.EstimatedDailyPrice(daily); got != 100 {
		t.Errorf("1400/14 days should estimate 100/day, got %v", got)
	}

	if got := uc.EstimatedDailyPrice(oneTimePlan()); got != 0 {
		t.Errorf("one-time plans have no daily price, got %v", got)
	}
}
