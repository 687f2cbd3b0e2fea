// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
	"subscription-billing/internal/infra/logging"
)

// DedupStore is a fast duplicate-reference check in front of the
// authoritative ledger lookup. MarkSeen returns false when the reference
// was already marked. A nil store disables the fast path.
type DedupStore interface {
	MarkSeen(ctx context.Context, ref string) (bool, error)
}

// ResolutionStatus tags the outcome of matching a notification to our
// records.
type ResolutionStatus int

const (
	ResolutionFound ResolutionStatus = iota
	ResolutionUnknownUser
	ResolutionUnknownPlan
)

// Resolution is the typed result of resolving a notification's user and
// plan identifiers — there is no placeholder subscription object.
type Resolution struct {
	Status ResolutionStatus
	User   *model.User
	Plan   *model.Plan
}

// Outcome summarizes what Process did with a notification.
type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeIncorrect  Outcome = "incorrect"
	OutcomeFlagged    Outcome = "flagged"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeUnexpected Outcome = "unexpected"
	OutcomeError      Outcome = "error"
)

// ReconcileUseCase consumes inbound payment notifications and drives the
// lifecycle state machine. Delivery is at-least-once and possibly out of
// order, so every path is idempotent and every path leaves exactly one
// ledger entry. Errors for one notification never affect another.
type ReconcileUseCase struct {
	users  repository.UserRepository
	plans  repository.PlanRepository
	subs   *SubscriptionUseCase
	ledger *LedgerUseCase
	tm     repository.TransactionManager
	dedup  DedupStore
	log    *zerolog.Logger
}

func NewReconcileUseCase(users repository.UserRepository, plans repository.PlanRepository, subs *SubscriptionUseCase, ledger *LedgerUseCase, tm repository.TransactionManager, dedup DedupStore, logger *zerolog.Logger) *ReconcileUseCase {
	l := logger.With().Str("component", "ReconcileUC").Logger()
	return &ReconcileUseCase{
		users:  users,
		plans:  plans,
		subs:   subs,
		ledger: ledger,
		tm:     tm,
		dedup:  dedup,
		log:    &l,
	}
}

// Process reconciles one notification. Unresolvable or mismatching
// notifications are recorded on the ledger and absorbed (no error, no
// retry); only storage failures are returned to the caller.
func (uc *ReconcileUseCase) Process(ctx context.Context, n *model.PaymentNotification) (Outcome, error) {
	defer logging.TraceDuration(uc.log, "ReconcileUC.Process")()

	res, err := uc.resolve(ctx, n)
	if err != nil {
		return OutcomeError, err
	}
	if res.Status != ResolutionFound {
		return OutcomeUnexpected, uc.recordUnexpected(ctx, n, res)
	}

	user, plan := res.User, res.Plan

	switch n.Kind {
	case model.NotifySignup, model.NotifyModify:
		err := uc.tm.WithUserTx(ctx, user.ID, func(ctx context.Context, tx repository.Tx) error {
			current, err := uc.subs.GetTx(ctx, tx, user.ID)
			if err == nil && current.Active && current.PlanID == plan.ID {
				// Replayed signup for the plan already held. The state
				// machine treats it as a no-op; the ledger still gets a row.
				return uc.ledger.Record(ctx, tx, LifecycleEvent{
					Kind:    model.EventActivated,
					UserID:  user.ID,
					PlanID:  &plan.ID,
					Comment: "signup replay for the current plan",
				})
			}
			if err != nil && !errors.Is(err, domain.ErrNoSubscription) {
				return err
			}
			_, err = uc.subs.SubscribeTx(ctx, tx, user.ID, plan.ID)
			return err
		})
		return outcomeOf(OutcomeApplied, err), err

	case model.NotifyPaymentSuccessful, model.NotifyRecurringPayment:
		return uc.applyPayment(ctx, n, user, plan)

	case model.NotifyPaymentFlagged:
		// Held for manual review; no state change.
		err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			return uc.ledger.Record(ctx, tx, LifecycleEvent{
				Kind:       model.EventPaymentFlagged,
				UserID:     user.ID,
				PlanID:     &plan.ID,
				PaymentRef: refPtr(n),
				Amount:     &n.AmountCents,
			})
		})
		return outcomeOf(OutcomeFlagged, err), err

	case model.NotifyCancel:
		outcome := OutcomeApplied
		err := uc.tm.WithUserTx(ctx, user.ID, func(ctx context.Context, tx repository.Tx) error {
			err := uc.subs.CancelTx(ctx, tx, user.ID)
			if errors.Is(err, domain.ErrNoSubscription) {
				outcome = OutcomeUnexpected
				return uc.ledger.Record(ctx, tx, unexpectedEntry(n, "cancel for user without subscription"))
			}
			return err
		})
		return outcomeOf(outcome, err), err

	case model.NotifyEndOfTerm:
		outcome := OutcomeApplied
		err := uc.tm.WithUserTx(ctx, user.ID, func(ctx context.Context, tx repository.Tx) error {
			err := uc.subs.RemoveTx(ctx, tx, user.ID)
			if errors.Is(err, domain.ErrNoSubscription) {
				outcome = OutcomeUnexpected
				return uc.ledger.Record(ctx, tx, unexpectedEntry(n, "end-of-term for user without subscription"))
			}
			return err
		})
		return outcomeOf(outcome, err), err

	default:
		err := uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			return uc.ledger.Record(ctx, tx, unexpectedEntry(n, fmt.Sprintf("unknown notification kind %q", n.Kind)))
		})
		return outcomeOf(OutcomeUnexpected, err), err
	}
}

// applyPayment handles successful and recurring payment notifications:
// extend-then-activate when the amount matches the plan price, a
// PaymentIncorrect entry with no state change otherwise. Duplicates keyed
// on the external reference extend at most once.
func (uc *ReconcileUseCase) applyPayment(ctx context.Context, n *model.PaymentNotification, user *model.User, plan *model.Plan) (Outcome, error) {
	if uc.dedup != nil && n.Ref != "" {
		fresh, err := uc.dedup.MarkSeen(ctx, n.Ref)
		if err != nil {
			// Dedup cache down: fall through to the ledger check.
			uc.log.Warn().Err(err).Str("ref", n.Ref).Msg("dedup store unavailable")
		} else if !fresh {
			// The mark is only a hint: it survives a transaction that
			// failed after marking, and the gateway redelivers exactly
			// those notifications. Short-circuit only when the ledger
			// confirms the payment was recorded.
			seen, err := uc.ledger.SeenPaymentRef(ctx, repository.NoTX, n.Ref)
			if err != nil {
				uc.log.Warn().Err(err).Str("ref", n.Ref).Msg("ledger dedup lookup failed")
			} else if seen {
				return OutcomeDuplicate, uc.recordDuplicate(ctx, n)
			}
		}
	}

	outcome := OutcomeApplied
	err := uc.tm.WithUserTx(ctx, user.ID, func(ctx context.Context, tx repository.Tx) error {
		if n.Ref != "" {
			seen, err := uc.ledger.SeenPaymentRef(ctx, tx, n.Ref)
			if err != nil {
				return err
			}
			if seen {
				outcome = OutcomeDuplicate
				return uc.ledger.Record(ctx, tx, unexpectedEntry(n, "duplicate payment notification"))
			}
		}

		sub, err := uc.subs.GetTx(ctx, tx, user.ID)
		if errors.Is(err, domain.ErrNoSubscription) {
			// Payment arriving before the signup notification: create the
			// record first, then run the amount check against it.
			if sub, err = uc.subs.SubscribeTx(ctx, tx, user.ID, plan.ID); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		current, err := uc.plans.FindByID(ctx, tx, sub.PlanID)
		if err != nil {
			return err
		}
		if n.AmountCents != current.PriceCents {
			outcome = OutcomeIncorrect
			uc.log.Warn().Str("user_id", user.ID).Int64("amount", n.AmountCents).Int64("expected", current.PriceCents).Msg("payment amount mismatch")
			return uc.ledger.Record(ctx, tx, LifecycleEvent{
				Kind:       model.EventPaymentIncorrect,
				UserID:     user.ID,
				PlanID:     &current.ID,
				PaymentRef: refPtr(n),
				Amount:     &n.AmountCents,
			})
		}

		if _, err := uc.subs.ExtendTx(ctx, tx, user.ID, nil); err != nil {
			return err
		}
		if err := uc.subs.ActivateTx(ctx, tx, user.ID); err != nil {
			return err
		}
		return uc.ledger.Record(ctx, tx, LifecycleEvent{
			Kind:       model.EventPayment,
			UserID:     user.ID,
			PlanID:     &current.ID,
			PaymentRef: refPtr(n),
			Amount:     &n.AmountCents,
		})
	})
	return outcomeOf(outcome, err), err
}

func (uc *ReconcileUseCase) resolve(ctx context.Context, n *model.PaymentNotification) (*Resolution, error) {
	user, err := uc.users.FindByID(ctx, repository.NoTX, n.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &Resolution{Status: ResolutionUnknownUser}, nil
		}
		return nil, err
	}
	plan, err := uc.plans.FindByID(ctx, repository.NoTX, n.PlanID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &Resolution{Status: ResolutionUnknownPlan, User: user}, nil
		}
		return nil, err
	}
	return &Resolution{Status: ResolutionFound, User: user, Plan: plan}, nil
}

func (uc *ReconcileUseCase) recordUnexpected(ctx context.Context, n *model.PaymentNotification, res *Resolution) error {
	comment := fmt.Sprintf("unknown user %q", n.UserID)
	if res.Status == ResolutionUnknownPlan {
		comment = fmt.Sprintf("unknown plan %q", n.PlanID)
	}
	uc.log.Warn().Str("kind", string(n.Kind)).Str("ref", n.Ref).Msg(comment)
	return uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return uc.ledger.Record(ctx, tx, unexpectedEntry(n, comment))
	})
}

func (uc *ReconcileUseCase) recordDuplicate(ctx context.Context, n *model.PaymentNotification) error {
	uc.log.Info().Str("ref", n.Ref).Msg("duplicate payment notification ignored")
	return uc.tm.WithTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return uc.ledger.Record(ctx, tx, unexpectedEntry(n, "duplicate payment notification"))
	})
}

func outcomeOf(ok Outcome, err error) Outcome {
	if err != nil {
		return OutcomeError
	}
	return ok
}

func unexpectedEntry(n *model.PaymentNotification, comment string) LifecycleEvent {
	ev := LifecycleEvent{
		Kind:       model.EventUnexpected,
		UserID:     n.UserID,
		PaymentRef: refPtr(n),
		Comment:    comment,
	}
	if n.AmountCents != 0 {
		amount := n.AmountCents
		ev.Amount = &amount
	}
	return ev
}

func refPtr(n *model.PaymentNotification) *string {
	if n.Ref == "" {
		return nil
	}
	ref := n.Ref
	return &ref
}
