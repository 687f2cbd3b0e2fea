package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/infra/metrics"
)

// A struct to define the expected JSON request body for creating a plan.
type planCreateRequest struct {
	Name             string   `json:"name"`
	PriceCents       int64    `json:"price_cents"`
	RecurrenceUnit   string   `json:"recurrence_unit"`
	RecurrencePeriod int      `json:"recurrence_period"`
	TrialUnit        string   `json:"trial_unit"`
	TrialPeriod      int      `json:"trial_period"`
	Permissions      []string `json:"permissions"`
}

func (s *Server) handlePlanCreate(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan, err := s.planUC.Create(r.Context(), req.Name, req.PriceCents,
		model.TimeUnit(req.RecurrenceUnit), req.RecurrencePeriod,
		model.TimeUnit(req.TrialUnit), req.TrialPeriod, req.Permissions)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to create plan", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, planView(plan))
}

func (s *Server) handlePlanList(w http.ResponseWriter, r *http.Request) {
	plans, err := s.planUC.List(r.Context())
	if err != nil {
		http.Error(w, "Failed to list plans", http.StatusInternalServerError)
		return
	}
	views := make([]map[string]interface{}, 0, len(plans))
	for _, p := range plans {
		views = append(views, planView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handlePlanUpdate(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := s.planUC.Get(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Plan not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load plan", http.StatusInternalServerError)
		return
	}
	plan, err := model.NewPlan(id, req.Name, req.PriceCents,
		model.TimeUnit(req.RecurrenceUnit), req.RecurrencePeriod,
		model.TimeUnit(req.TrialUnit), req.TrialPeriod, req.Permissions)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.planUC.Update(r.Context(), plan); err != nil {
		http.Error(w, "Failed to update plan", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, planView(plan))
}

func (s *Server) handlePlanDelete(w http.ResponseWriter, r *http.Request) {
	err := s.planUC.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "Plan not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to delete plan", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAuthToken exchanges the shared admin secret for a short-lived
// bearer token.
func (s *Server) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Secret string `json:"secret"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if !s.auth.CheckSecret(req.Secret) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint()
	if err != nil {
		http.Error(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type userRegisterRequest struct {
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

func (s *Server) handleUserRegister(w http.ResponseWriter, r *http.Request) {
	var req userRegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	user, err := s.userUC.Register(r.Context(), req.Username, req.Permissions)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "username is required", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, userView(user))
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	user, err := s.userUC.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, userView(user))
}

func (s *Server) handleUserPermissions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	perms, err := s.accessUC.EffectivePermissions(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to resolve permissions", http.StatusInternalServerError)
		return
	}
	subscribed, err := s.accessUC.HasSubscription(r.Context(), userID)
	if err != nil {
		http.Error(w, "Failed to resolve permissions", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":          userID,
		"permissions":      perms,
		"has_subscription": subscribed,
	})
}

func (s *Server) handleUserSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subUC.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNoSubscription) {
		// Distinguishable miss: callers redirect to plan selection.
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no_subscription"})
		return
	}
	if err != nil {
		http.Error(w, "Failed to load subscription", http.StatusInternalServerError)
		return
	}
	view := map[string]interface{}{
		"user_id":    sub.UserID,
		"plan_id":    sub.PlanID,
		"active":     sub.Active,
		"has_access": sub.HasAccess(time.Now(), s.subUC.GraceDays()),
	}
	if sub.Expires != nil {
		view["expires"] = sub.Expires.Format("2006-01-02")
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleUserLedger(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.ledgerUC.ListByUser(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		http.Error(w, "Failed to load ledger", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ledgerViews(entries))
}

func (s *Server) handleLedgerRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.ledgerUC.ListRecent(r.Context(), limit)
	if err != nil {
		http.Error(w, "Failed to load ledger", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ledgerViews(entries))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	users, byPlan, active, err := s.statsUC.Totals(r.Context())
	if err != nil {
		http.Error(w, "Failed to get totals", http.StatusInternalServerError)
		return
	}
	total := 0
	for _, n := range byPlan {
		total += n
	}
	metrics.SetSubscriptionsTotal(active, total-active)
	writeJSON(w, http.StatusOK, struct {
		TotalUsers  int            `json:"total_users"`
		SubsByPlan  map[string]int `json:"subscriptions_by_plan"`
		ActiveSubs  int            `json:"active_subscriptions"`
		GeneratedAt time.Time      `json:"generated_at"`
	}{users, byPlan, active, time.Now()})
}

func userView(u *model.User) map[string]interface{} {
	return map[string]interface{}{
		"id":            u.ID,
		"username":      u.Username,
		"permissions":   u.Permissions,
		"registered_at": u.RegisteredAt,
	}
}

func planView(p *model.Plan) map[string]interface{} {
	return map[string]interface{}{
		"id":                p.ID,
		"name":              p.Name,
		"price_cents":       p.PriceCents,
		"pricing":           p.PricingDisplay(),
		"trial":             p.TrialDisplay(),
		"recurrence_unit":   string(p.RecurrenceUnit),
		"recurrence_period": p.RecurrencePeriod,
		"trial_unit":        string(p.TrialUnit),
		"trial_period":      p.TrialPeriod,
		"permissions":       p.Permissions,
	}
}

func ledgerViews(entries []*model.Transaction) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, t := range entries {
		v := map[string]interface{}{
			"id":        t.ID,
			"timestamp": t.Timestamp,
			"user_id":   t.UserID,
			"event":     string(t.Event),
			"comment":   t.Comment,
		}
		if t.PlanID != nil {
			v["plan_id"] = *t.PlanID
		}
		if t.PaymentRef != nil {
			v["payment_ref"] = *t.PaymentRef
		}
		if t.Amount != nil {
			v["amount_cents"] = *t.Amount
		}
		out = append(out, v)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
