// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
)

// LifecycleEvent describes one state change emitted by the state machine.
// Listeners run synchronously inside the transaction that caused the
// change, so a mutation and its audit entry commit or roll back together.
type LifecycleEvent struct {
	Kind       model.TransactionEvent
	UserID     string
	PlanID     *string
	PaymentRef *string
	Amount     *int64
	Comment    string
}

// EventListener receives lifecycle events. The ledger is the default
// listener; callers may register more (e.g. metrics).
type EventListener interface {
	HandleEvent(ctx context.Context, tx repository.Tx, ev LifecycleEvent) error
}

// ChangeCheck is one plan-change eligibility rule. It returns a
// human-readable objection, or "" when it has none. Business policies
// (e.g. "no downgrade until the cycle ends") register here; the engine
// itself imposes only the same-plan rule.
type ChangeCheck func(ctx context.Context, sub *model.UserSubscription, newPlan *model.Plan) string

// SubscriptionUseCase is the subscription lifecycle state machine. It owns
// the single subscription record per user and every transition between
// trial, active, cancelled, expired and removed.
type SubscriptionUseCase struct {
	subs      repository.SubscriptionRepository
	plans     repository.PlanRepository
	tm        repository.TransactionManager
	graceDays int
	listeners []EventListener
	checks    []ChangeCheck
	log       *zerolog.Logger
}

// NewSubscriptionUseCase constructs the state machine. graceDays <= 0
// falls back to the default grace window of 2 days.
func NewSubscriptionUseCase(subs repository.SubscriptionRepository, plans repository.PlanRepository, tm repository.TransactionManager, graceDays int, logger *zerolog.Logger) *SubscriptionUseCase {
	if graceDays <= 0 {
		graceDays = 2
	}
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &SubscriptionUseCase{
		subs:      subs,
		plans:     plans,
		tm:        tm,
		graceDays: graceDays,
		log:       &l,
	}
}

// AddListener registers a lifecycle event listener. Listeners fire in
// registration order, synchronously, inside the mutating transaction.
func (uc *SubscriptionUseCase) AddListener(l EventListener) {
	uc.listeners = append(uc.listeners, l)
}

// AddChangeCheck registers a plan-change eligibility rule.
func (uc *SubscriptionUseCase) AddChangeCheck(c ChangeCheck) {
	uc.checks = append(uc.checks, c)
}

// GraceDays exposes the configured grace window.
func (uc *SubscriptionUseCase) GraceDays() int { return uc.graceDays }

func (uc *SubscriptionUseCase) emit(ctx context.Context, tx repository.Tx, ev LifecycleEvent) error {
	for _, l := range uc.listeners {
		if err := l.HandleEvent(ctx, tx, ev); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the user's subscription record or domain.ErrNoSubscription.
// The missing-record case is an expected condition (the caller redirects
// to plan selection), not corruption.
func (uc *SubscriptionUseCase) Get(ctx context.Context, userID string) (*model.UserSubscription, error) {
	return uc.subs.FindByUser(ctx, repository.NoTX, userID)
}

// GetTx is Get inside the caller's transaction.
func (uc *SubscriptionUseCase) GetTx(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	return uc.subs.FindByUser(ctx, tx, userID)
}

// Subscribe puts the user on the given plan, opening its own per-user
// transaction. See SubscribeTx for the transition rules.
func (uc *SubscriptionUseCase) Subscribe(ctx context.Context, userID, planID string) (*model.UserSubscription, error) {
	var out *model.UserSubscription
	err := uc.tm.WithUserTx(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		s, err := uc.SubscribeTx(ctx, tx, userID, planID)
		out = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SubscribeTx applies the subscribe transition inside the caller's
// transaction (the reconciliation engine shares its per-notification tx):
//   - no record        -> create one, expiry from trial or recurrence,
//     active, emit Subscribed
//   - different plan   -> replace the singleton in place: switch the plan
//     reference, recompute expiry from the new plan, reactivate, emit
//     Subscribed
//   - same plan        -> idempotent re-activation; no event when already
//     active
//
// Exactly one record exists for the user afterwards.
func (uc *SubscriptionUseCase) SubscribeTx(ctx context.Context, tx repository.Tx, userID, planID string) (*model.UserSubscription, error) {
	plan, err := uc.plans.FindByID(ctx, tx, planID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	current, err := uc.subs.FindByUser(ctx, tx, userID)
	switch {
	case errors.Is(err, domain.ErrNoSubscription):
		s := model.NewUserSubscription(userID, plan, now)
		if err := uc.subs.Save(ctx, tx, s); err != nil {
			return nil, err
		}
		if err := uc.emit(ctx, tx, LifecycleEvent{Kind: model.EventSubscribed, UserID: userID, PlanID: &plan.ID}); err != nil {
			return nil, err
		}
		uc.log.Info().Str("user_id", userID).Str("plan_id", planID).Msg("subscription created")
		return s, nil
	case err != nil:
		return nil, err
	}

	if current.PlanID != plan.ID {
		current.PlanID = plan.ID
		current.Expires = plan.InitialExpiry(now)
		current.Active = true
		current.UpdatedAt = now
		if err := uc.subs.Save(ctx, tx, current); err != nil {
			return nil, err
		}
		if err := uc.emit(ctx, tx, LifecycleEvent{Kind: model.EventSubscribed, UserID: userID, PlanID: &plan.ID}); err != nil {
			return nil, err
		}
		uc.log.Info().Str("user_id", userID).Str("plan_id", planID).Msg("subscription plan switched")
		return current, nil
	}

	if !current.Active {
		return current, uc.activate(ctx, tx, current)
	}
	return current, nil
}

// Extend moves the expiry forward, opening its own per-user transaction.
func (uc *SubscriptionUseCase) Extend(ctx context.Context, userID string, explicit *time.Duration) (*model.UserSubscription, error) {
	var out *model.UserSubscription
	err := uc.tm.WithUserTx(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		s, err := uc.ExtendTx(ctx, tx, userID, explicit)
		out = s
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExtendTx extends the subscription inside the caller's transaction. With
// an explicit delta the expiry moves by exactly that duration (manual
// grace extension); otherwise the plan's recurrence period is added to the
// current expiry, which keeps early and late renewals cumulative. For
// one-time plans the expiry becomes permanently absent. Emits Recurred.
func (uc *SubscriptionUseCase) ExtendTx(ctx context.Context, tx repository.Tx, userID string, explicit *time.Duration) (*model.UserSubscription, error) {
	s, err := uc.subs.FindByUser(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if explicit != nil {
		s.ExtendBy(*explicit)
	} else {
		plan, err := uc.plans.FindByID(ctx, tx, s.PlanID)
		if err != nil {
			return nil, err
		}
		s.ExtendByPlan(plan)
	}
	s.UpdatedAt = time.Now()
	if err := uc.subs.Save(ctx, tx, s); err != nil {
		return nil, err
	}
	if err := uc.emit(ctx, tx, LifecycleEvent{Kind: model.EventRecurred, UserID: userID, PlanID: &s.PlanID}); err != nil {
		return nil, err
	}
	return s, nil
}

// Activate sets the subscription active, opening its own transaction.
func (uc *SubscriptionUseCase) Activate(ctx context.Context, userID string) error {
	return uc.tm.WithUserTx(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		return uc.ActivateTx(ctx, tx, userID)
	})
}

// ActivateTx sets active=true and emits Activated. No-op (and no event)
// when already active.
func (uc *SubscriptionUseCase) ActivateTx(ctx context.Context, tx repository.Tx, userID string) error {
	s, err := uc.subs.FindByUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if s.Active {
		return nil
	}
	return uc.activate(ctx, tx, s)
}

func (uc *SubscriptionUseCase) activate(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	s.Active = true
	s.UpdatedAt = time.Now()
	if err := uc.subs.Save(ctx, tx, s); err != nil {
		return err
	}
	return uc.emit(ctx, tx, LifecycleEvent{Kind: model.EventActivated, UserID: s.UserID, PlanID: &s.PlanID})
}

// Cancel deactivates the subscription, opening its own transaction.
func (uc *SubscriptionUseCase) Cancel(ctx context.Context, userID string) error {
	return uc.tm.WithUserTx(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		return uc.CancelTx(ctx, tx, userID)
	})
}

// CancelTx sets active=false and emits Cancelled. No-op when already
// inactive. The record is kept: the user retains access until the grace
// window elapses.
func (uc *SubscriptionUseCase) CancelTx(ctx context.Context, tx repository.Tx, userID string) error {
	s, err := uc.subs.FindByUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if !s.Active {
		return nil
	}
	s.Active = false
	s.UpdatedAt = time.Now()
	if err := uc.subs.Save(ctx, tx, s); err != nil {
		return err
	}
	if err := uc.emit(ctx, tx, LifecycleEvent{Kind: model.EventCancelled, UserID: userID, PlanID: &s.PlanID}); err != nil {
		return err
	}
	uc.log.Info().Str("user_id", userID).Msg("subscription cancelled")
	return nil
}

// Remove deletes the record, opening its own transaction.
func (uc *SubscriptionUseCase) Remove(ctx context.Context, userID string) error {
	return uc.tm.WithUserTx(ctx, userID, func(ctx context.Context, tx repository.Tx) error {
		return uc.RemoveTx(ctx, tx, userID)
	})
}

// RemoveTx hard-deletes the subscription record (end-of-term, distinct
// from soft cancel). The Removed ledger entry is emitted before the delete
// in the same transaction, so the trail survives the record.
func (uc *SubscriptionUseCase) RemoveTx(ctx context.Context, tx repository.Tx, userID string) error {
	s, err := uc.subs.FindByUser(ctx, tx, userID)
	if err != nil {
		return err
	}
	if err := uc.emit(ctx, tx, LifecycleEvent{Kind: model.EventRemoved, UserID: userID, PlanID: &s.PlanID}); err != nil {
		return err
	}
	if err := uc.subs.Delete(ctx, tx, userID); err != nil {
		return err
	}
	uc.log.Info().Str("user_id", userID).Msg("subscription removed")
	return nil
}

// TryChange checks whether the user may switch to newPlan. An empty list
// means the change is allowed. Switching to the current plan is allowed
// only as a re-subscribe while inactive; a genuinely different plan is put
// to the registered ChangeCheck rules and all objections are collected.
func (uc *SubscriptionUseCase) TryChange(ctx context.Context, userID, newPlanID string) ([]string, error) {
	s, err := uc.subs.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	newPlan, err := uc.plans.FindByID(ctx, repository.NoTX, newPlanID)
	if err != nil {
		return nil, err
	}

	if s.PlanID == newPlan.ID {
		if s.Active {
			return []string{"This is your current plan."}, nil
		}
		return nil, nil
	}

	var reasons []string
	for _, check := range uc.checks {
		if r := check(ctx, s, newPlan); r != "" {
			reasons = append(reasons, r)
		}
	}
	return reasons, nil
}

// FinishExpired removes every subscription whose grace window has elapsed.
// Each removal runs in its own per-user transaction so one failure does
// not abort the sweep. Returns the number of subscriptions removed.
func (uc *SubscriptionUseCase) FinishExpired(ctx context.Context) (int, error) {
	expired, err := uc.subs.FindExpired(ctx, repository.NoTX, time.Now(), uc.graceDays)
	if err != nil {
		return 0, err
	}
	removed := 0
	var firstErr error
	for _, s := range expired {
		if err := uc.Remove(ctx, s.UserID); err != nil {
			uc.log.Error().Err(err).Str("user_id", s.UserID).Msg("expiry removal failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed++
	}
	return removed, firstErr
}
