package types

import (
	"context"
	"net/http"
	"time"
)

// Record is one raw row as returned by a store backend: a flat mapping of
// column name to primitive value. Joined rows may appear as nested maps.
type Record map[string]interface{}

// EntityKind identifies one of the per-budget entity collections.
type EntityKind string

const (
	KindTransactions   EntityKind = "transactions"
	KindCategories     EntityKind = "categories"
	KindAccounts       EntityKind = "accounts"
	KindSavingsGoals   EntityKind = "savings_goals"
	KindFinancialGoals EntityKind = "financial_goals"
	KindDebts          EntityKind = "debts"
	KindRecurring      EntityKind = "recurring_transactions"

	// KindMembership is the budget membership table. It is delivered on its
	// own per-user channel rather than a per-budget one.
	KindMembership EntityKind = "budget_members"
)

// EntityKinds lists every collection fetched during a reconciliation pass.
var EntityKinds = []EntityKind{
	KindTransactions,
	KindCategories,
	KindAccounts,
	KindSavingsGoals,
	KindFinancialGoals,
	KindDebts,
	KindRecurring,
}

// ChangeType is the kind of row change carried by a realtime event.
type ChangeType string

const (
	ChangeInsert ChangeType = "insert"
	ChangeUpdate ChangeType = "update"
	ChangeDelete ChangeType = "delete"
)

// Event is one realtime change notification.
type Event struct {
	Kind   EntityKind
	Change ChangeType
	New    Record
	Old    Record

	// Actor is the display name of the collaborator who made the change,
	// when the backend provides it.
	Actor string
}

// BudgetInfo describes one budget the authenticated user can access.
type BudgetInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Shared  bool   `json:"shared"`
	OwnerID string `json:"owner_id"`
}

// Subscription is a handle to one active realtime channel.
type Subscription interface {
	// Topic returns the channel topic this handle is joined to.
	Topic() string

	// Unsubscribe leaves the channel. Safe to call more than once.
	Unsubscribe() error
}

// Store is the narrow CRUD surface the sync core requires from a backend.
// Errors are returned as values and classified via ErrorKind; see errors.go.
type Store interface {
	// Budgets lists the budgets visible to the authenticated user.
	Budgets(ctx context.Context) ([]BudgetInfo, error)

	// List returns every row of one collection for one budget.
	List(ctx context.Context, budgetID string, kind EntityKind) ([]Record, error)

	// Create inserts a row scoped to the given budget.
	Create(ctx context.Context, budgetID string, kind EntityKind, fields Record) (Record, error)

	// Update patches a row by id.
	Update(ctx context.Context, kind EntityKind, id string, fields Record) (Record, error)

	// Delete removes a row by id.
	Delete(ctx context.Context, kind EntityKind, id string) error
}

// RealtimeStore is the optional change-feed capability of a Store. Backends
// that cannot push changes (the local file store) simply do not implement it.
type RealtimeStore interface {
	Store

	// Subscribe opens a channel for one entity kind of one budget.
	Subscribe(budgetID string, kind EntityKind, fn func(Event)) (Subscription, error)

	// SubscribeMembership opens the per-user membership channel. It stays
	// open for the lifetime of the authenticated session.
	SubscribeMembership(userID string, fn func(Event)) (Subscription, error)
}

// Logger interface for logging
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxRetries int           `json:"maxRetries"`
	RetryWait  time.Duration `json:"retryWait"`
	MaxWait    time.Duration `json:"maxWait"`
}

// Hooks provides lifecycle hooks for requests
type Hooks struct {
	OnRequest  func(ctx context.Context, req *http.Request)
	OnResponse func(ctx context.Context, resp *http.Response, duration time.Duration)
	OnError    func(ctx context.Context, err error)
}
