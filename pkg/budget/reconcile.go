package budget

import (
	"context"
	"sync"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

// Reconciler performs full authoritative reloads of one budget's data from
// the store: fetch every collection, transform, seed default categories on
// first contact, and swap the results into the active data store in one
// atomic commit. Results of a pass that was superseded by a budget switch
// are discarded, never written.
type Reconciler struct {
	store    types.Store
	data     *ActiveDataStore
	session  *SessionState
	renderer Renderer
	log      types.Logger

	mu     sync.Mutex
	seeded map[string]bool
}

// NewReconciler wires a reconciler. renderer may be nil.
func NewReconciler(store types.Store, data *ActiveDataStore, session *SessionState, renderer Renderer, log types.Logger) *Reconciler {
	if log == nil {
		log = types.NopLogger{}
	}
	return &Reconciler{
		store:    store,
		data:     data,
		session:  session,
		renderer: renderer,
		log:      log,
		seeded:   make(map[string]bool),
	}
}

// Reconcile reloads every collection of the given budget. A single
// collection's fetch failure degrades to an empty collection for this pass;
// only total failure (every collection errored) propagates to the caller.
// The previous snapshot is never partially overwritten.
func (r *Reconciler) Reconcile(ctx context.Context, budgetID string) error {
	seq := r.session.BeginLoad()

	raw := make(map[EntityKind][]Record, len(types.EntityKinds))
	fetchErrs := make(map[EntityKind]error)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, kind := range types.EntityKinds {
		wg.Add(1)
		go func(kind EntityKind) {
			defer wg.Done()
			recs, err := r.store.List(ctx, budgetID, kind)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fetchErrs[kind] = err
				return
			}
			raw[kind] = recs
		}(kind)
	}
	wg.Wait()

	for kind, err := range fetchErrs {
		r.log.Warn("collection fetch failed, treating as empty for this pass",
			"budget", budgetID, "kind", string(kind), "error", err)
	}
	if len(fetchErrs) == len(types.EntityKinds) {
		err := errors.Errorf("budget %s: every collection fetch failed", budgetID)
		sentry.CaptureException(err)
		return err
	}

	catRecords := raw[KindCategories]
	if len(catRecords) == 0 && fetchErrs[KindCategories] == nil {
		catRecords = r.ensureDefaultCategories(ctx, budgetID)
	}

	categories := make([]Category, 0, len(catRecords))
	for _, rec := range catRecords {
		categories = append(categories, CategoryFromRecord(rec))
	}
	fallbackID := FallbackCategoryID(categories)

	transactions := make([]Transaction, 0, len(raw[KindTransactions]))
	for _, rec := range raw[KindTransactions] {
		transactions = append(transactions, TransactionFromRecord(rec, fallbackID))
	}

	accounts := make([]Account, 0, len(raw[KindAccounts]))
	for _, rec := range raw[KindAccounts] {
		accounts = append(accounts, AccountFromRecord(rec))
	}

	savingsGoals := make([]SavingsGoal, 0, len(raw[KindSavingsGoals]))
	for _, rec := range raw[KindSavingsGoals] {
		savingsGoals = append(savingsGoals, SavingsGoalFromRecord(rec))
	}

	financialGoals := make([]FinancialGoal, 0, len(raw[KindFinancialGoals]))
	for _, rec := range raw[KindFinancialGoals] {
		financialGoals = append(financialGoals, FinancialGoalFromRecord(rec))
	}

	debts := make([]Debt, 0, len(raw[KindDebts]))
	for _, rec := range raw[KindDebts] {
		debts = append(debts, DebtFromRecord(rec))
	}

	recurring := make([]RecurringTransaction, 0, len(raw[KindRecurring]))
	for _, rec := range raw[KindRecurring] {
		recurring = append(recurring, RecurringFromRecord(rec))
	}

	// Currency gate: a switch that happened while fetches were in flight
	// makes this pass a no-op. The network cost is already paid; the write
	// is what must be suppressed.
	if !r.session.IsCurrent(budgetID, seq) {
		r.log.Debug("reconcile superseded, discarding results", "budget", budgetID, "seq", seq)
		return nil
	}

	written := r.data.SetIfScope(budgetID, SnapshotPatch{
		Transactions:   &transactions,
		Categories:     &categories,
		Accounts:       &accounts,
		SavingsGoals:   &savingsGoals,
		FinancialGoals: &financialGoals,
		Debts:          &debts,
		Recurring:      &recurring,
	})
	if !written {
		r.log.Debug("reconcile scope changed before commit, discarding results", "budget", budgetID, "seq", seq)
		return nil
	}

	if r.renderer != nil {
		r.renderer.Render()
	}
	return nil
}

// ensureDefaultCategories creates the default category set for a budget the
// store reports as empty. Conflict responses mean another collaborator got
// there first; they are tolerated without retry, but not trusted either:
// the collection is re-fetched once afterwards. Seeding is attempted at
// most once per budget per process.
func (r *Reconciler) ensureDefaultCategories(ctx context.Context, budgetID string) []Record {
	r.mu.Lock()
	already := r.seeded[budgetID]
	r.seeded[budgetID] = true
	r.mu.Unlock()
	if already {
		return nil
	}

	conflicts := 0
	for i, tpl := range DefaultCategories {
		fields := tpl.fields()
		fields["sort_order"] = i
		if _, err := r.store.Create(ctx, budgetID, KindCategories, fields); err != nil {
			if IsConflict(err) {
				conflicts++
				continue
			}
			// Anything not positively classified as a conflict is a real
			// failure and gets surfaced in the log.
			r.log.Error("default category create failed", "budget", budgetID, "name", tpl.Name, "error", err)
		}
	}

	recs, err := r.store.List(ctx, budgetID, KindCategories)
	if err != nil {
		r.log.Warn("category re-fetch after seeding failed", "budget", budgetID, "error", err)
		return nil
	}
	if len(recs) > 0 {
		return recs
	}

	if conflicts > 0 {
		// Rows exist (creates conflicted) but the reader cannot see them.
		// Degrade to an in-memory default set so the UI stays usable.
		r.log.Warn("categories exist but are not visible to this user, using in-memory defaults",
			"budget", budgetID, "conflicts", conflicts)
		fallback := make([]Record, 0, len(DefaultCategories))
		for i, tpl := range DefaultCategories {
			fields := tpl.fields()
			fields["id"] = uuid.NewString()
			fields["sort_order"] = i
			fallback = append(fallback, fields)
		}
		return fallback
	}
	return nil
}
