package model

import "time"

// TransactionEvent is the canonical taxonomy of ledger events.
type TransactionEvent string

const (
	EventSubscribed       TransactionEvent = "subscribed"
	EventPayment          TransactionEvent = "payment"
	EventPaymentIncorrect TransactionEvent = "payment_incorrect"
	EventPaymentFlagged   TransactionEvent = "payment_flagged"
	EventRecurred         TransactionEvent = "recurred"
	EventActivated        TransactionEvent = "activated"
	EventCancelled        TransactionEvent = "cancelled"
	EventRemoved          TransactionEvent = "removed"
	EventUnexpected       TransactionEvent = "unexpected"
)

// Transaction is one immutable ledger entry: the audit trail of every
// subscription lifecycle change. Plan, payment reference and amount are
// recorded by value/identifier only, so deleting a plan or user never
// touches history. Entries are never updated or deleted.
type Transaction struct {
	ID         string // ULID, sortable by creation time
	Timestamp  time.Time
	UserID     string
	PlanID     *string
	PaymentRef *string // opaque external gateway reference
	Event      TransactionEvent
	Amount     *int64 // minor units; nil when the event carries no amount
	Comment    string
}
