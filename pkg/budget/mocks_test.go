package budget

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

// MockStore is a testify mock over the Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Budgets(ctx context.Context) ([]BudgetInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BudgetInfo), args.Error(1)
}

func (m *MockStore) List(ctx context.Context, budgetID string, kind EntityKind) ([]Record, error) {
	args := m.Called(ctx, budgetID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockStore) Create(ctx context.Context, budgetID string, kind EntityKind, fields Record) (Record, error) {
	args := m.Called(ctx, budgetID, kind, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Record), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, kind EntityKind, id string, fields Record) (Record, error) {
	args := m.Called(ctx, kind, id, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Record), args.Error(1)
}

func (m *MockStore) Delete(ctx context.Context, kind EntityKind, id string) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

// fakeStore is an in-memory backend with failure injection and fetch
// gating, for scenario tests that need more behavior than a mock.
type fakeStore struct {
	mu      sync.Mutex
	budgets []BudgetInfo
	rows    map[EntityKind][]Record

	listErr     map[EntityKind]error
	createErr   func(kind EntityKind, fields Record) error
	listGate    func(budgetID string, kind EntityKind)
	listCalls   map[EntityKind]int
	createCalls int
}

func newFakeStore(budgets ...BudgetInfo) *fakeStore {
	return &fakeStore{
		budgets:   budgets,
		rows:      make(map[EntityKind][]Record),
		listErr:   make(map[EntityKind]error),
		listCalls: make(map[EntityKind]int),
	}
}

func (f *fakeStore) seed(budgetID string, kind EntityKind, recs ...Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		r := copyRec(rec)
		r["budget_id"] = budgetID
		if r["id"] == nil {
			r["id"] = uuid.NewString()
		}
		f.rows[kind] = append(f.rows[kind], r)
	}
}

func (f *fakeStore) Budgets(context.Context) ([]BudgetInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]BudgetInfo(nil), f.budgets...), nil
}

func (f *fakeStore) List(_ context.Context, budgetID string, kind EntityKind) ([]Record, error) {
	f.mu.Lock()
	gate := f.listGate
	err := f.listErr[kind]
	f.listCalls[kind]++
	f.mu.Unlock()

	if gate != nil {
		gate(budgetID, kind)
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Record
	for _, rec := range f.rows[kind] {
		if rec["budget_id"] == budgetID {
			out = append(out, copyRec(rec))
		}
	}
	return out, nil
}

func (f *fakeStore) Create(_ context.Context, budgetID string, kind EntityKind, fields Record) (Record, error) {
	f.mu.Lock()
	createErr := f.createErr
	f.mu.Unlock()

	if createErr != nil {
		if err := createErr(kind, fields); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Unique category names per budget, like the hosted store's constraint.
	if kind == KindCategories {
		name, _ := fields["name"].(string)
		for _, existing := range f.rows[kind] {
			existingName, _ := existing["name"].(string)
			if existing["budget_id"] == budgetID && strings.EqualFold(existingName, name) {
				return nil, types.NewStoreError(ErrKindConflict, "23505", "duplicate category name")
			}
		}
	}

	rec := copyRec(fields)
	rec["budget_id"] = budgetID
	if rec["id"] == nil {
		rec["id"] = uuid.NewString()
	}
	f.rows[kind] = append(f.rows[kind], rec)
	f.createCalls++
	return copyRec(rec), nil
}

func (f *fakeStore) Update(_ context.Context, kind EntityKind, id string, fields Record) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, rec := range f.rows[kind] {
		if rec["id"] == id {
			merged := copyRec(rec)
			for k, v := range fields {
				merged[k] = v
			}
			f.rows[kind][i] = merged
			return copyRec(merged), nil
		}
	}
	return nil, types.NewStoreError(ErrKindNotFound, "", "row not found")
}

func (f *fakeStore) Delete(_ context.Context, kind EntityKind, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.rows[kind]
	for i, rec := range rows {
		if rec["id"] == id {
			f.rows[kind] = append(rows[:i], rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) countByKind(kind EntityKind, budgetID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rec := range f.rows[kind] {
		if rec["budget_id"] == budgetID {
			n++
		}
	}
	return n
}

func copyRec(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// fakeRealtime adds a recording subscription surface to fakeStore.
type fakeRealtime struct {
	*fakeStore

	mu   sync.Mutex
	subs []*fakeSub
}

type fakeSub struct {
	topic  string
	kind   EntityKind
	fn     func(Event)
	closed bool
	rt     *fakeRealtime
}

func (s *fakeSub) Topic() string { return s.topic }

func (s *fakeSub) Unsubscribe() error {
	s.rt.mu.Lock()
	defer s.rt.mu.Unlock()
	s.closed = true
	return nil
}

func newFakeRealtime(budgets ...BudgetInfo) *fakeRealtime {
	return &fakeRealtime{fakeStore: newFakeStore(budgets...)}
}

func (f *fakeRealtime) Subscribe(budgetID string, kind EntityKind, fn func(Event)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{topic: "budget:" + budgetID + ":" + string(kind), kind: kind, fn: fn, rt: f}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeRealtime) SubscribeMembership(userID string, fn func(Event)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{topic: "membership:" + userID, kind: KindMembership, fn: fn, rt: f}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeRealtime) openSubs() []*fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	var open []*fakeSub
	for _, sub := range f.subs {
		if !sub.closed {
			open = append(open, sub)
		}
	}
	return open
}

// countingRenderer counts render signals.
type countingRenderer struct {
	mu sync.Mutex
	n  int
}

func (r *countingRenderer) Render() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.n++
}

func (r *countingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// recordingNotifier records every notification.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	severity []Severity
}

func (n *recordingNotifier) Notify(message string, severity Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
	n.severity = append(n.severity, severity)
}

func (n *recordingNotifier) bySeverity(s Severity) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for i, sev := range n.severity {
		if sev == s {
			out = append(out, n.messages[i])
		}
	}
	return out
}
