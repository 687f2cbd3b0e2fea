package web

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/infra/logging"
	"subscription-billing/internal/infra/metrics"
)

// parseIPN maps PayPal-IPN-style form fields onto a PaymentNotification:
// txn_type classifies subscription events, payment_status classifies
// payments, custom carries our user id, item_number our plan id, and
// txn_id the gateway reference. Returns nil when the post carries neither
// a recognizable txn_type nor payment_status.
func parseIPN(r *http.Request) *model.PaymentNotification {
	n := &model.PaymentNotification{
		UserID: r.PostFormValue("custom"),
		PlanID: r.PostFormValue("item_number"),
		Ref:    r.PostFormValue("txn_id"),
	}
	if gross := r.PostFormValue("mc_gross"); gross != "" {
		if f, err := strconv.ParseFloat(gross, 64); err == nil {
			n.AmountCents = int64(math.Round(f * 100))
		}
	}

	switch strings.ToLower(r.PostFormValue("txn_type")) {
	case "subscr_signup":
		n.Kind = model.NotifySignup
		return n
	case "subscr_modify":
		n.Kind = model.NotifyModify
		return n
	case "subscr_cancel":
		n.Kind = model.NotifyCancel
		return n
	case "subscr_eot":
		n.Kind = model.NotifyEndOfTerm
		return n
	case "subscr_payment":
		n.Kind = model.NotifyRecurringPayment
		return n
	}

	switch strings.ToLower(r.PostFormValue("payment_status")) {
	case "completed":
		n.Kind = model.NotifyPaymentSuccessful
		return n
	case "flagged", "pending":
		n.Kind = model.NotifyPaymentFlagged
		return n
	}
	return nil
}

// handleIPN ingests one gateway notification. The gateway retries on
// non-200, so the handler replies 200 even for notifications the engine
// absorbed as unexpected; only a storage failure earns a 500 and a retry.
func (s *Server) handleIPN(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	n := parseIPN(r)
	if n == nil {
		s.log.Warn().Str("txn_type", r.PostFormValue("txn_type")).Msg("unclassifiable notification")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx := logging.WithUserID(r.Context(), n.UserID)
	outcome, err := s.reconcileUC.Process(ctx, n)
	metrics.IncNotification(string(n.Kind), string(outcome))
	if err != nil {
		s.log.Error().Err(err).Str("kind", string(n.Kind)).Str("ref", n.Ref).Msg("reconciliation failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
