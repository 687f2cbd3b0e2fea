// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
)

// LedgerUseCase owns the append-only audit trail. It doubles as the
// default lifecycle event listener: every state change lands here inside
// the transaction that caused it.
type LedgerUseCase struct {
	ledger repository.TransactionRepository
}

var _ EventListener = (*LedgerUseCase)(nil)

func NewLedgerUseCase(ledger repository.TransactionRepository) *LedgerUseCase {
	return &LedgerUseCase{ledger: ledger}
}

// HandleEvent appends one ledger entry for the lifecycle event, sharing
// the caller's transaction.
func (uc *LedgerUseCase) HandleEvent(ctx context.Context, tx repository.Tx, ev LifecycleEvent) error {
	return uc.ledger.Append(ctx, tx, uc.entry(ev))
}

// Record appends an entry for conditions that are not state transitions
// (unresolved or incorrect notifications). Reconciliation must never be
// silent, so these go through the same ledger.
func (uc *LedgerUseCase) Record(ctx context.Context, tx repository.Tx, ev LifecycleEvent) error {
	return uc.ledger.Append(ctx, tx, uc.entry(ev))
}

// SeenPaymentRef reports whether a payment for the given external
// reference was already recorded.
func (uc *LedgerUseCase) SeenPaymentRef(ctx context.Context, tx repository.Tx, ref string) (bool, error) {
	return uc.ledger.ExistsByPaymentRef(ctx, tx, ref, model.EventPayment)
}

// ListByUser returns the user's ledger entries, newest first.
func (uc *LedgerUseCase) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Transaction, error) {
	return uc.ledger.ListByUser(ctx, repository.NoTX, userID, limit)
}

// ListRecent returns the most recent entries across all users.
func (uc *LedgerUseCase) ListRecent(ctx context.Context, limit int) ([]*model.Transaction, error) {
	return uc.ledger.ListRecent(ctx, repository.NoTX, limit)
}

func (uc *LedgerUseCase) entry(ev LifecycleEvent) *model.Transaction {
	now := time.Now()
	return &model.Transaction{
		ID:         ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		Timestamp:  now,
		UserID:     ev.UserID,
		PlanID:     ev.PlanID,
		PaymentRef: ev.PaymentRef,
		Event:      ev.Kind,
		Amount:     ev.Amount,
		Comment:    ev.Comment,
	}
}
