package model

// NotificationKind classifies inbound payment gateway notifications
// (PayPal IPN style). Delivery is at-least-once and possibly out of order;
// deduplication is the reconciliation engine's job.
type NotificationKind string

const (
	NotifyPaymentSuccessful NotificationKind = "payment_successful"
	NotifyPaymentFlagged    NotificationKind = "payment_flagged"
	NotifySignup            NotificationKind = "subscription_signup"
	NotifyModify            NotificationKind = "subscription_modify"
	NotifyCancel            NotificationKind = "subscription_cancel"
	NotifyEndOfTerm         NotificationKind = "subscription_eot"
	NotifyRecurringPayment  NotificationKind = "recurring_payment"
)

// PaymentNotification is one inbound event from the external gateway.
// UserID and PlanID are the gateway's echo of our identifiers and may not
// resolve; Ref is the gateway's opaque transaction reference used for
// dedup and audit linkage.
type PaymentNotification struct {
	Kind        NotificationKind
	UserID      string
	PlanID      string
	AmountCents int64
	Ref         string
}
