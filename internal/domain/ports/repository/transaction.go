package repository

import (
	"context"

	"subscription-billing/internal/domain/model"
)

// TransactionRepository is the port for the append-only ledger.
// There is deliberately no update or delete.
type TransactionRepository interface {
	Append(ctx context.Context, tx Tx, t *model.Transaction) error
	// ListByUser returns entries newest-first.
	ListByUser(ctx context.Context, tx Tx, userID string, limit int) ([]*model.Transaction, error)
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.Transaction, error)
	// ExistsByPaymentRef reports whether an entry with the given external
	// payment reference and event was already appended. It is the
	// authoritative duplicate-notification check.
	ExistsByPaymentRef(ctx context.Context, tx Tx, ref string, event model.TransactionEvent) (bool, error)
}
