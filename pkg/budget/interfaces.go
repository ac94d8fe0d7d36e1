package budget

import (
	"github.com/mfeltz/budgetboard-go/internal/types"
)

// The store-facing vocabulary lives in internal/types so backend
// implementations can share it; the aliases below are the public names.

// Record is one raw store row.
type Record = types.Record

// EntityKind identifies one per-budget collection.
type EntityKind = types.EntityKind

// ChangeType is the kind of change carried by a realtime event.
type ChangeType = types.ChangeType

// Event is one realtime change notification.
type Event = types.Event

// BudgetInfo describes one accessible budget.
type BudgetInfo = types.BudgetInfo

// Store is the narrow CRUD surface required from a backend.
type Store = types.Store

// RealtimeStore is a Store that can also push change notifications.
type RealtimeStore = types.RealtimeStore

// Subscription is a handle to one active realtime channel.
type Subscription = types.Subscription

// Logger is the key-value logger accepted in Options.
type Logger = types.Logger

const (
	KindTransactions   = types.KindTransactions
	KindCategories     = types.KindCategories
	KindAccounts       = types.KindAccounts
	KindSavingsGoals   = types.KindSavingsGoals
	KindFinancialGoals = types.KindFinancialGoals
	KindDebts          = types.KindDebts
	KindRecurring      = types.KindRecurring
	KindMembership     = types.KindMembership

	ChangeInsert = types.ChangeInsert
	ChangeUpdate = types.ChangeUpdate
	ChangeDelete = types.ChangeDelete
)

// Severity tags a user-facing notification.
type Severity string

const (
	SeverityUpdate        Severity = "update"
	SeverityError         Severity = "error"
	SeverityAccessRemoved Severity = "access_removed"
)

// Renderer is the external rendering layer. Render carries no payload; the
// renderer re-reads the active data store itself.
type Renderer interface {
	Render()
}

// Notifier surfaces short user-facing messages (toast equivalents).
type Notifier interface {
	Notify(message string, severity Severity)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func()

func (f RendererFunc) Render() { f() }

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(message string, severity Severity)

func (f NotifierFunc) Notify(message string, severity Severity) { f(message, severity) }
