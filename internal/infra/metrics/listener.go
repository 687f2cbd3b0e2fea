package metrics

import (
	"context"

	"subscription-billing/internal/domain/ports/repository"
	"subscription-billing/internal/usecase"
)

// Listener counts lifecycle events. Registered on the state machine next
// to the ledger, so the ledger_events_total counter mirrors the audit
// trail without the use cases knowing about prometheus.
type Listener struct{}

var _ usecase.EventListener = Listener{}

func (Listener) HandleEvent(_ context.Context, _ repository.Tx, ev usecase.LifecycleEvent) error {
	IncLedgerEvent(string(ev.Kind))
	return nil
}
