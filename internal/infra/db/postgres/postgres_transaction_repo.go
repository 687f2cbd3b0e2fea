package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
)

// Ensure transactionRepo implements repository.TransactionRepository
var _ repository.TransactionRepository = (*transactionRepo)(nil)

// transactionRepo persists the append-only ledger. There is no UPDATE or
// DELETE statement in this file on purpose.
type transactionRepo struct {
	pool *pgxpool.Pool
}

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const trColumns = `id, ts, user_id, plan_id, payment_ref, event, amount_cents, comment`

func (r *transactionRepo) Append(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (id, ts, user_id, plan_id, payment_ref, event, amount_cents, comment)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`

	_, err := execSQL(ctx, r.pool, tx, q, t.ID, t.Timestamp, t.UserID, t.PlanID, t.PaymentRef, string(t.Event), t.Amount, t.Comment)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Transaction, error) {
	const q = `SELECT ` + trColumns + ` FROM transactions WHERE user_id=$1 ORDER BY ts DESC, id DESC LIMIT $2;`
	return r.list(ctx, tx, q, userID, normLimit(limit))
}

func (r *transactionRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.Transaction, error) {
	const q = `SELECT ` + trColumns + ` FROM transactions ORDER BY ts DESC, id DESC LIMIT $1;`
	return r.list(ctx, tx, q, normLimit(limit))
}

func (r *transactionRepo) ExistsByPaymentRef(ctx context.Context, tx repository.Tx, ref string, event model.TransactionEvent) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM transactions WHERE payment_ref=$1 AND event=$2);`
	row, err := pickRow(ctx, r.pool, tx, q, ref, string(event))
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

func (r *transactionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Transaction, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()
	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	var event string
	if err := row.Scan(&t.ID, &t.Timestamp, &t.UserID, &t.PlanID, &t.PaymentRef, &event, &t.Amount, &t.Comment); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	t.Event = model.TransactionEvent(event)
	return t, nil
}

func normLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
