package budget

import "sync"

// ActiveDataStore holds the currently selected budget's snapshot. Reads get
// a copy so an in-flight caller never observes a concurrent patch; writes
// replace whole collections under one lock acquisition, so a reader sees
// either all of a reconciliation pass's results or none of them.
type ActiveDataStore struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewActiveDataStore returns an empty, unscoped store.
func NewActiveDataStore() *ActiveDataStore {
	return &ActiveDataStore{}
}

// Get returns a copy of the current snapshot.
func (d *ActiveDataStore) Get() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return copySnapshot(d.snap)
}

// Scope returns the budget id the store is currently scoped to.
func (d *ActiveDataStore) Scope() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snap.BudgetID
}

// SwitchScope resets the store to an empty snapshot for the given budget.
// Callers must re-check currency before any Set that follows; a stale
// writer is fenced out by SetIfScope, not by this call.
func (d *ActiveDataStore) SwitchScope(budgetID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap = Snapshot{BudgetID: budgetID}
}

// Set shallow-merges the patch into the current snapshot. Each non-nil
// collection replaces the existing one wholesale.
func (d *ActiveDataStore) Set(p SnapshotPatch) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.apply(p)
}

// SetIfScope applies the patch only if the store is still scoped to
// budgetID. Returns false (and writes nothing) otherwise.
func (d *ActiveDataStore) SetIfScope(budgetID string, p SnapshotPatch) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.snap.BudgetID != budgetID {
		return false
	}
	d.apply(p)
	return true
}

// PatchTransaction applies one fast-path change to the transaction
// collection in place.
func (d *ActiveDataStore) PatchTransaction(change ChangeType, txn Transaction) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch change {
	case ChangeInsert:
		for _, existing := range d.snap.Transactions {
			if existing.ID == txn.ID {
				return
			}
		}
		d.snap.Transactions = append(d.snap.Transactions, txn)
	case ChangeUpdate:
		for i, existing := range d.snap.Transactions {
			if existing.ID == txn.ID {
				d.snap.Transactions[i] = txn
				return
			}
		}
		d.snap.Transactions = append(d.snap.Transactions, txn)
	case ChangeDelete:
		for i, existing := range d.snap.Transactions {
			if existing.ID == txn.ID {
				d.snap.Transactions = append(d.snap.Transactions[:i], d.snap.Transactions[i+1:]...)
				return
			}
		}
	}
}

func (d *ActiveDataStore) apply(p SnapshotPatch) {
	if p.Transactions != nil {
		d.snap.Transactions = *p.Transactions
	}
	if p.Categories != nil {
		d.snap.Categories = *p.Categories
	}
	if p.Accounts != nil {
		d.snap.Accounts = *p.Accounts
	}
	if p.SavingsGoals != nil {
		d.snap.SavingsGoals = *p.SavingsGoals
	}
	if p.FinancialGoals != nil {
		d.snap.FinancialGoals = *p.FinancialGoals
	}
	if p.Debts != nil {
		d.snap.Debts = *p.Debts
	}
	if p.Recurring != nil {
		d.snap.Recurring = *p.Recurring
	}
	if p.LastImportIDs != nil {
		d.snap.LastImportIDs = *p.LastImportIDs
	}
	if p.ActiveProfileID != nil {
		d.snap.ActiveProfileID = *p.ActiveProfileID
	}
}

func copySnapshot(s Snapshot) Snapshot {
	out := s
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	out.Categories = append([]Category(nil), s.Categories...)
	out.Accounts = append([]Account(nil), s.Accounts...)
	out.SavingsGoals = append([]SavingsGoal(nil), s.SavingsGoals...)
	out.FinancialGoals = append([]FinancialGoal(nil), s.FinancialGoals...)
	out.Debts = append([]Debt(nil), s.Debts...)
	out.Recurring = append([]RecurringTransaction(nil), s.Recurring...)
	out.LastImportIDs = append([]string(nil), s.LastImportIDs...)
	return out
}
