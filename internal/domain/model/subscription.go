package model

import (
	"time"
)

// UserSubscription is the single subscription record a user may hold.
// The operative status is derived from two orthogonal fields: Active and
// Expires. Effective access = Active && !Expired. A nil Expires means the
// subscription never expires (one-time plans after a payment).
type UserSubscription struct {
	UserID    string
	PlanID    string
	Expires   *time.Time
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewUserSubscription creates the subscription assigned when a user first
// subscribes to a plan. Expiry comes from the trial period when the plan
// has one, otherwise from the recurrence period.
func NewUserSubscription(userID string, plan *Plan, now time.Time) *UserSubscription {
	return &UserSubscription{
		UserID:    userID,
		PlanID:    plan.ID,
		Expires:   plan.InitialExpiry(now),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Expired reports whether more than graceDays have passed since the expiry
// date. A subscription with no expiry date never expires. The comparison is
// on calendar days: expires == today-graceDays is still within grace.
func (s *UserSubscription) Expired(today time.Time, graceDays int) bool {
	if s.Expires == nil {
		return false
	}
	deadline := dateOnly(*s.Expires).AddDate(0, 0, graceDays)
	return dateOnly(today).After(deadline)
}

// HasAccess reports effective access: active and not past the grace window.
func (s *UserSubscription) HasAccess(today time.Time, graceDays int) bool {
	return s.Active && !s.Expired(today, graceDays)
}

// ExtendByPlan moves the expiry forward by the plan's recurrence period,
// counted from the current expiry so that early or late renewals stay
// cumulative. One-time plans clear the expiry permanently.
func (s *UserSubscription) ExtendByPlan(plan *Plan) {
	if plan.IsOneTime() {
		s.Expires = nil
		return
	}
	base := time.Now()
	if s.Expires != nil {
		base = *s.Expires
	}
	e := ExtendDate(base, plan.RecurrencePeriod, plan.RecurrenceUnit)
	s.Expires = &e
}

// ExtendBy moves the expiry forward by an explicit duration (manual grace
// extensions). A never-expiring subscription stays never-expiring.
func (s *UserSubscription) ExtendBy(d time.Duration) {
	if s.Expires == nil {
		return
	}
	e := s.Expires.Add(d)
	s.Expires = &e
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
