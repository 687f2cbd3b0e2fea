//go:build !integration

package usecase_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/usecase"
)

func newAccessFixture(ctx context.Context) (*MockUserRepo, *MockSubscriptionRepo, *MockPlanRepo, *usecase.AccessUseCase) {
	users := NewMockUserRepo()
	subs := NewMockSubscriptionRepo()
	plans := NewMockPlanRepo()
	users.Save(ctx, nil, &model.User{ID: "user-1", Username: "alice", Permissions: []string{"reports.view"}})
	plans.Save(ctx, nil, monthlyPlan()) // grants billing.gold
	return users, subs, plans, usecase.NewAccessUseCase(users, subs, plans, 2)
}

func TestAccessUseCase_EffectivePermissions(t *testing.T) {
	ctx := context.Background()

	t.Run("an active subscription unions in the plan grants", func(t *testing.T) {
		_, subs, _, uc := newAccessFixture(ctx)
		subs.Save(ctx, nil, &model.UserSubscription{
			UserID:  "user-1",
			PlanID:  "plan-gold",
			Expires: timePtr(time.Now().AddDate(0, 1, 0)),
			Active:  true,
		})

		perms, err := uc.EffectivePermissions(ctx, "user-1")
		if err != nil {
			t.Fatalf("EffectivePermissions failed: %v", err)
		}
		want := []string{"billing.gold", "reports.view"}
		if !reflect.DeepEqual(perms, want) {
			t.Errorf("want %v, got %v", want, perms)
		}
	})

	t.Run("no subscription means base permissions only", func(t *testing.T) {
		_, _, _, uc := newAccessFixture(ctx)

		perms, err := uc.EffectivePermissions(ctx, "user-1")
		if err != nil {
			t.Fatalf("EffectivePermissions failed: %v", err)
		}
		want := []string{"reports.view"}
		if !reflect.DeepEqual(perms, want) {
			t.Errorf("want %v, got %v", want, perms)
		}
	})

	t.Run("a subscription past its grace window grants nothing", func(t *testing.T) {
		_, subs, _, uc := newAccessFixture(ctx)
		subs.Save(ctx, nil, &model.UserSubscription{
			UserID:  "user-1",
			PlanID:  "plan-gold",
			Expires: timePtr(time.Now().AddDate(0, 0, -3)),
			Active:  true,
		})

		perms, err := uc.EffectivePermissions(ctx, "user-1")
		if err != nil {
			t.Fatalf("EffectivePermissions failed: %v", err)
		}
		want := []string{"reports.view"}
		if !reflect.DeepEqual(perms, want) {
			t.Errorf("expired plan must contribute nothing: want %v, got %v", want, perms)
		}
	})

	t.Run("a subscription inside the grace window still grants", func(t *testing.T) {
		_, subs, _, uc := newAccessFixture(ctx)
		subs.Save(ctx, nil, &model.UserSubscription{
			UserID:  "user-1",
			PlanID:  "plan-gold",
			Expires: timePtr(time.Now().AddDate(0, 0, -2)),
			Active:  true,
		})

		ok, err := uc.HasPermission(ctx, "user-1", "billing.gold")
		if err != nil {
			t.Fatalf("HasPermission failed: %v", err)
		}
		if !ok {
			t.Error("grace window should preserve plan grants")
		}
	})

	t.Run("a cancelled subscription grants nothing", func(t *testing.T) {
		_, subs, _, uc := newAccessFixture(ctx)
		subs.Save(ctx, nil, &model.UserSubscription{
			UserID:  "user-1",
			PlanID:  "plan-gold",
			Expires: timePtr(time.Now().AddDate(0, 1, 0)),
			Active:  false,
		})

		ok, err := uc.HasPermission(ctx, "user-1", "billing.gold")
		if err != nil {
			t.Fatalf("HasPermission failed: %v", err)
		}
		if ok {
			t.Error("inactive subscription must not grant plan permissions")
		}
	})

	t.Run("a dangling plan reference degrades to base permissions", func(t *testing.T) {
		_, subs, _, uc := newAccessFixture(ctx)
		subs.Save(ctx, nil, &model.UserSubscription{
			UserID:  "user-1",
			PlanID:  "plan-deleted",
			Expires: timePtr(time.Now().AddDate(0, 1, 0)),
			Active:  true,
		})

		perms, err := uc.EffectivePermissions(ctx, "user-1")
		if err != nil {
			t.Fatalf("a deleted plan must not break permission checks: %v", err)
		}
		want := []string{"reports.view"}
		if !reflect.DeepEqual(perms, want) {
			t.Errorf("want %v, got %v", want, perms)
		}
	})

	t.Run("unknown user fails", func(t *testing.T) {
		_, _, _, uc := newAccessFixture(ctx)
		if _, err := uc.EffectivePermissions(ctx, "ghost"); err != domain.ErrNotFound {
			t.Errorf("want ErrNotFound, got %v", err)
		}
	})
}

func TestAccessUseCase_HasSubscription(t *testing.T) {
	ctx := context.Background()
	_, subs, _, uc := newAccessFixture(ctx)

	ok, err := uc.HasSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("HasSubscription failed: %v", err)
	}
	if ok {
		t.Error("want false before any subscription exists")
	}

	subs.Save(ctx, nil, &model.UserSubscription{UserID: "user-1", PlanID: "plan-gold", Active: true})
	ok, err = uc.HasSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("HasSubscription failed: %v", err)
	}
	if !ok {
		t.Error("want true once the record exists")
	}
}
