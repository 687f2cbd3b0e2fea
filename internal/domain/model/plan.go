package model

import (
	"fmt"
	"time"

	"subscription-billing/internal/domain"
)

// TimeUnit is the calendar unit used for recurrence and trial periods.
type TimeUnit string

const (
	UnitNone  TimeUnit = ""
	UnitDay   TimeUnit = "day"
	UnitWeek  TimeUnit = "week"
	UnitMonth TimeUnit = "month"
	UnitYear  TimeUnit = "year"
)

// Average day counts per unit, used only for cross-plan price estimates
// (month and year lengths include leap years).
var unitDays = map[TimeUnit]float64{
	UnitDay:   1,
	UnitWeek:  7,
	UnitMonth: 30.4368,
	UnitYear:  365.2425,
}

func (u TimeUnit) Valid() bool {
	switch u {
	case UnitNone, UnitDay, UnitWeek, UnitMonth, UnitYear:
		return true
	}
	return false
}

// Plan is a subscription tier: price, recurrence, optional trial, and the
// permission identifiers granted while the subscription has effective access.
// PriceCents holds the price in integer minor units.
type Plan struct {
	ID               string
	Name             string
	Description      string
	PriceCents       int64
	TrialUnit        TimeUnit
	TrialPeriod      int
	RecurrenceUnit   TimeUnit // UnitNone means a one-time plan that never auto-extends
	RecurrencePeriod int
	Permissions      []string
	CreatedAt        time.Time
}

// NewPlan validates and constructs a plan.
func NewPlan(id, name string, priceCents int64, recurrenceUnit TimeUnit, recurrencePeriod int, trialUnit TimeUnit, trialPeriod int, permissions []string) (*Plan, error) {
	if id == "" || name == "" || priceCents < 0 || trialPeriod < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if !recurrenceUnit.Valid() || !trialUnit.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if recurrenceUnit != UnitNone && recurrencePeriod <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Plan{
		ID:               id,
		Name:             name,
		PriceCents:       priceCents,
		TrialUnit:        trialUnit,
		TrialPeriod:      trialPeriod,
		RecurrenceUnit:   recurrenceUnit,
		RecurrencePeriod: recurrencePeriod,
		Permissions:      permissions,
		CreatedAt:        time.Now(),
	}, nil
}

func (p *Plan) IsZero() bool    { return p == nil || p.ID == "" }
func (p *Plan) IsFree() bool    { return p.PriceCents == 0 }
func (p *Plan) IsOneTime() bool { return p.RecurrenceUnit == UnitNone }
func (p *Plan) HasTrial() bool  { return p.TrialPeriod > 0 }

// RecurrenceDays returns the recurrence cycle length as an estimated day
// count. One-time plans have no cycle and return 0.
func (p *Plan) RecurrenceDays() float64 {
	return float64(p.RecurrencePeriod) * unitDays[p.RecurrenceUnit]
}

// PricePerDay estimates the plan price per day, in minor units. It is used
// to compare plans during upgrades/downgrades and is never the amount
// charged externally. One-time plans return 0.
func (p *Plan) PricePerDay() float64 {
	days := p.RecurrenceDays()
	if days == 0 {
		return 0
	}
	return float64(p.PriceCents) / days
}

// InitialExpiry computes the expiry assigned at subscription creation: the
// trial period when the plan has one, the recurrence period otherwise.
// One-time plans without a trial never expire (nil).
func (p *Plan) InitialExpiry(now time.Time) *time.Time {
	if p.HasTrial() {
		e := ExtendDate(now, p.TrialPeriod, p.TrialUnit)
		return &e
	}
	if p.IsOneTime() {
		return nil
	}
	e := ExtendDate(now, p.RecurrencePeriod, p.RecurrenceUnit)
	return &e
}

// PricingDisplay renders a human-readable price line for listings.
func (p *Plan) PricingDisplay() string {
	if p.IsFree() {
		return "Free"
	}
	price := float64(p.PriceCents) / 100
	if p.IsOneTime() {
		return fmt.Sprintf("%.2f one-time fee", price)
	}
	if p.RecurrencePeriod == 1 {
		return fmt.Sprintf("%.2f / %s", price, p.RecurrenceUnit)
	}
	return fmt.Sprintf("%.2f / %d %ss", price, p.RecurrencePeriod, p.RecurrenceUnit)
}

// TrialDisplay renders the trial length for listings.
func (p *Plan) TrialDisplay() string {
	if !p.HasTrial() {
		return "No trial"
	}
	if p.TrialPeriod == 1 {
		return fmt.Sprintf("One %s", p.TrialUnit)
	}
	return fmt.Sprintf("%d %ss", p.TrialPeriod, p.TrialUnit)
}

// ExtendDate adds `period` calendar units to t. Calendar arithmetic is used
// so that month and year extensions land on the same day-of-month.
func ExtendDate(t time.Time, period int, unit TimeUnit) time.Time {
	switch unit {
	case UnitDay:
		return t.AddDate(0, 0, period)
	case UnitWeek:
		return t.AddDate(0, 0, 7*period)
	case UnitMonth:
		return t.AddDate(0, period, 0)
	case UnitYear:
		return t.AddDate(period, 0, 0)
	default:
		return t
	}
}
