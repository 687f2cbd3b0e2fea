//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"subscription-billing/internal/domain"
	"subscription-billing/internal/domain/model"
	"subscription-billing/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func strPtr(s string) *string  { return &s }
func int64Ptr(v int64) *int64  { return &v }
func timePtr(t time.Time) *time.Time { return &t }

// =============================
// Transaction manager
// =============================

// MockTxManager runs the callback immediately with NoTX. Per-user
// serialization is irrelevant in single-goroutine tests, but the calls are
// captured so tests can assert that a mutation went through a user-scoped
// transaction.
type MockTxManager struct {
	mu          sync.Mutex
	UserTxCalls []string // user IDs passed to WithUserTx, in order

	WithTxFunc     func(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error
	WithUserTxFunc func(ctx context.Context, userID string, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, fn)
	}
	return fn(ctx, repository.NoTX)
}

func (m *MockTxManager) WithUserTx(ctx context.Context, userID string, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	m.UserTxCalls = append(m.UserTxCalls, userID)
	m.mu.Unlock()
	if m.WithUserTxFunc != nil {
		return m.WithUserTxFunc(ctx, userID, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Repositories
// =============================

// ---- Mock PlanRepository ----

type MockPlanRepo struct {
	mu    sync.Mutex
	plans map[string]*model.Plan

	SaveFunc     func(ctx context.Context, tx repository.Tx, p *model.Plan) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error)
	ListAllFunc  func(ctx context.Context, tx repository.Tx) ([]*model.Plan, error)
	DeleteFunc   func(ctx context.Context, tx repository.Tx, id string) error
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{plans: make(map[string]*model.Plan)}
}

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriceCents != out[j].PriceCents {
			return out[i].PriceCents < out[j].PriceCents
		}
		if out[i].RecurrencePeriod != out[j].RecurrencePeriod {
			return out[i].RecurrencePeriod > out[j].RecurrencePeriod
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.plans, id)
	return nil
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.UserSubscription // keyed by user ID

	SaveFunc        func(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error
	FindByUserFunc  func(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error)
	DeleteFunc      func(ctx context.Context, tx repository.Tx, userID string) error
	FindExpiredFunc func(ctx context.Context, tx repository.Tx, asOf time.Time, graceDays int) ([]*model.UserSubscription, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: make(map[string]*model.UserSubscription)}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.UserSubscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.subs[s.UserID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[userID]
	if !ok {
		return nil, domain.ErrNoSubscription
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) Delete(ctx context.Context, tx repository.Tx, userID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[userID]; !ok {
		return domain.ErrNotFound
	}
	delete(m.subs, userID)
	return nil
}

func (m *MockSubscriptionRepo) FindExpired(ctx context.Context, tx repository.Tx, asOf time.Time, graceDays int) ([]*model.UserSubscription, error) {
	if m.FindExpiredFunc != nil {
		return m.FindExpiredFunc(ctx, tx, asOf, graceDays)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.UserSubscription
	for _, s := range m.subs {
		if s.Expired(asOf, graceDays) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *MockSubscriptionRepo) CountByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int)
	for _, s := range m.subs {
		out[s.PlanID]++
	}
	return out, nil
}

func (m *MockSubscriptionRepo) CountActive(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subs {
		if s.Active {
			n++
		}
	}
	return n, nil
}

// ---- Mock TransactionRepository (ledger) ----

type MockLedgerRepo struct {
	mu      sync.Mutex
	Entries []*model.Transaction

	AppendFunc func(ctx context.Context, tx repository.Tx, t *model.Transaction) error
}

var _ repository.TransactionRepository = (*MockLedgerRepo)(nil)

func NewMockLedgerRepo() *MockLedgerRepo { return &MockLedgerRepo{} }

func (m *MockLedgerRepo) Append(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.Entries = append(m.Entries, &cp)
	return nil
}

func (m *MockLedgerRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for i := len(m.Entries) - 1; i >= 0; i-- {
		if m.Entries[i].UserID == userID {
			cp := *m.Entries[i]
			out = append(out, &cp)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockLedgerRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for i := len(m.Entries) - 1; i >= 0; i-- {
		cp := *m.Entries[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockLedgerRepo) ExistsByPaymentRef(ctx context.Context, tx repository.Tx, ref string, event model.TransactionEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.Entries {
		if t.Event == event && t.PaymentRef != nil && *t.PaymentRef == ref {
			return true, nil
		}
	}
	return false, nil
}

// ByEvent filters captured entries by event kind.
func (m *MockLedgerRepo) ByEvent(event model.TransactionEvent) []*model.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.Entries {
		if t.Event == event {
			out = append(out, t)
		}
	}
	return out
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{users: make(map[string]*model.User)}
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

// ---- Mock DedupStore ----

type MockDedupStore struct {
	mu   sync.Mutex
	seen map[string]bool

	MarkSeenFunc func(ctx context.Context, ref string) (bool, error)
}

func NewMockDedupStore() *MockDedupStore {
	return &MockDedupStore{seen: make(map[string]bool)}
}

func (m *MockDedupStore) MarkSeen(ctx context.Context, ref string) (bool, error) {
	if m.MarkSeenFunc != nil {
		return m.MarkSeenFunc(ctx, ref)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen[ref] {
		return false, nil
	}
	m.seen[ref] = true
	return true, nil
}
