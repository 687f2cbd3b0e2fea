package repository

import (
	"context"
	"time"

	"subscription-billing/internal/domain/model"
)

// SubscriptionRepository is the port for the per-user subscription
// singleton. Save upserts on user id: replace-or-create, so two rows for
// one user are never visible, even transiently.
type SubscriptionRepository interface {
	Save(ctx context.Context, tx Tx, s *model.UserSubscription) error
	// FindByUser returns domain.ErrNoSubscription when the user holds no
	// subscription record.
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.UserSubscription, error)
	Delete(ctx context.Context, tx Tx, userID string) error
	// FindExpired lists subscriptions whose grace window has fully elapsed
	// as of the given day.
	FindExpired(ctx context.Context, tx Tx, asOf time.Time, graceDays int) ([]*model.UserSubscription, error)

	// --- Statistics read-only methods ---
	CountByPlan(ctx context.Context, tx Tx) (map[string]int, error)
	CountActive(ctx context.Context, tx Tx) (int, error)
}
