package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

// Router receives realtime change notifications and keeps the active data
// store converging with the remote state.
//
// Transactions get a fast path: the event's row is transformed locally and
// patched straight into the store for sub-second feedback. Every event,
// transactions included, also schedules a debounced reconciliation; that
// authoritative pass is what corrects joined or derived fields the fast
// path cannot compute, and is the only correction mechanism for the other
// entity kinds.
type Router struct {
	data       *ActiveDataStore
	session    *SessionState
	reconciler *Reconciler
	renderer   Renderer
	notifier   Notifier
	log        types.Logger
	debounce   time.Duration

	// onAccessRevoked runs after the user's own membership row is deleted
	// for the currently selected budget.
	onAccessRevoked func(budgetID string)

	mu    sync.Mutex
	timer *time.Timer
}

// NewRouter wires an event router. renderer, notifier and onAccessRevoked
// may be nil; debounce of 0 uses the default quiet period.
func NewRouter(data *ActiveDataStore, session *SessionState, reconciler *Reconciler,
	renderer Renderer, notifier Notifier, log types.Logger,
	debounce time.Duration, onAccessRevoked func(budgetID string)) *Router {
	if log == nil {
		log = types.NopLogger{}
	}
	if debounce <= 0 {
		debounce = types.DefaultDebounce
	}
	return &Router{
		data:            data,
		session:         session,
		reconciler:      reconciler,
		renderer:        renderer,
		notifier:        notifier,
		log:             log,
		debounce:        debounce,
		onAccessRevoked: onAccessRevoked,
	}
}

// HandleEvent routes one realtime notification. Never panics; a delivery
// problem is logged and left for the next reconciliation to heal.
func (rt *Router) HandleEvent(ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			rt.log.Error("realtime event handling panicked", "kind", string(ev.Kind), "panic", rec)
		}
	}()

	if ev.Kind == KindMembership {
		rt.handleMembership(ev)
		return
	}

	budgetID := rt.session.CurrentBudget()
	if budgetID == "" {
		return
	}

	if ev.Kind == KindTransactions {
		rt.fastPath(ev)
	}

	rt.ScheduleReconcile()
	rt.notify(ev)
}

// ScheduleReconcile arms the debounced slow path. A pending timer is
// cancelled and rescheduled, so event bursts coalesce into one pass.
func (rt *Router) ScheduleReconcile() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.timer != nil {
		rt.timer.Stop()
	}
	rt.timer = time.AfterFunc(rt.debounce, func() {
		rt.mu.Lock()
		rt.timer = nil
		rt.mu.Unlock()

		budgetID := rt.session.CurrentBudget()
		if budgetID == "" {
			return
		}
		if err := rt.reconciler.Reconcile(context.Background(), budgetID); err != nil {
			rt.log.Warn("debounced reconcile failed", "budget", budgetID, "error", err)
		}
	})
}

// fastPath applies an optimistic in-place patch for a transaction event.
// The category fallback uses whatever the local snapshot already knows; no
// network round trip happens here.
func (rt *Router) fastPath(ev Event) {
	rec := ev.New
	if ev.Change == ChangeDelete {
		rec = ev.Old
	}
	if rec == nil {
		return
	}

	snap := rt.data.Get()
	txn := TransactionFromRecord(rec, FallbackCategoryID(snap.Categories))
	if txn.ID == "" {
		return
	}

	rt.data.PatchTransaction(ev.Change, txn)
	if rt.renderer != nil {
		rt.renderer.Render()
	}
}

// handleMembership reacts to changes on the user's own membership rows.
// Losing access to the selected budget deselects it and tells the user,
// but never logs the session out.
func (rt *Router) handleMembership(ev Event) {
	if ev.Change != ChangeDelete || ev.Old == nil {
		return
	}

	memberID := recString(ev.Old, "user_id")
	if memberID != rt.session.UserID() {
		return
	}

	budgetID := recString(ev.Old, "budget_id")
	if budgetID == "" {
		return
	}

	rt.session.MarkRevoked(budgetID)
	rt.log.Info("membership removed", "budget", budgetID)

	if rt.notifier != nil {
		rt.notifier.Notify("Your access to this budget was removed", SeverityAccessRemoved)
	}
	if rt.onAccessRevoked != nil {
		rt.onAccessRevoked(budgetID)
	}
}

func (rt *Router) notify(ev Event) {
	if rt.notifier == nil {
		return
	}

	noun := eventNoun(ev.Kind)
	var verb string
	switch ev.Change {
	case ChangeInsert:
		verb = "added"
	case ChangeUpdate:
		verb = "updated"
	case ChangeDelete:
		verb = "deleted"
	default:
		verb = "changed"
	}

	msg := fmt.Sprintf("%s %s", noun, verb)
	if ev.Actor != "" {
		msg = fmt.Sprintf("%s %s by %s", noun, verb, ev.Actor)
	}
	rt.notifier.Notify(msg, SeverityUpdate)
}

func eventNoun(kind EntityKind) string {
	switch kind {
	case KindTransactions:
		return "Transaction"
	case KindCategories:
		return "Category"
	case KindAccounts:
		return "Account"
	case KindSavingsGoals:
		return "Savings goal"
	case KindFinancialGoals:
		return "Goal"
	case KindDebts:
		return "Debt"
	case KindRecurring:
		return "Recurring transaction"
	default:
		return "Record"
	}
}
