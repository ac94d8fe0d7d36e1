package budget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionFromRecord_ExplicitCategoryWins(t *testing.T) {
	rec := Record{
		"id":          "txn-1",
		"date":        "2025-03-14",
		"description": "Groceries",
		"amount":      82.5,
		"type":        "expense",
		"category_id": "cat-food",
		"categories":  map[string]interface{}{"id": "cat-joined"},
	}

	txn := TransactionFromRecord(rec, "cat-other")

	assert.Equal(t, "cat-food", txn.CategoryID)
	assert.Equal(t, "txn-1", txn.ID)
	assert.Equal(t, 82.5, txn.Amount)
	assert.Equal(t, TransactionExpense, txn.Type)
	assert.Equal(t, "2025-03-14", txn.Date.String())
}

func TestTransactionFromRecord_JoinedCategoryFallback(t *testing.T) {
	rec := Record{
		"id":         "txn-1",
		"amount":     10.0,
		"categories": map[string]interface{}{"id": "cat-joined", "name": "Food"},
	}

	txn := TransactionFromRecord(rec, "cat-other")
	assert.Equal(t, "cat-joined", txn.CategoryID)
}

func TestTransactionFromRecord_FallbackChainEndsAtOther(t *testing.T) {
	// A transaction whose category was deleted resolves to the fallback
	// category, never to empty, as long as one exists.
	rec := Record{"id": "txn-1", "amount": 10.0}

	txn := TransactionFromRecord(rec, "cat-other")
	assert.Equal(t, "cat-other", txn.CategoryID)

	orphan := TransactionFromRecord(rec, "")
	assert.Equal(t, "", orphan.CategoryID)
}

func TestTransactionFromRecord_NumericParsing(t *testing.T) {
	assert.Equal(t, 12.5, TransactionFromRecord(Record{"amount": "12.50"}, "").Amount)
	assert.Equal(t, 7.0, TransactionFromRecord(Record{"amount": 7}, "").Amount)
	assert.Equal(t, 0.0, TransactionFromRecord(Record{"amount": "not a number"}, "").Amount)
	assert.Equal(t, 0.0, TransactionFromRecord(Record{}, "").Amount)
}

func TestTransactionFromRecord_Defaults(t *testing.T) {
	txn := TransactionFromRecord(Record{"id": "txn-1", "type": "bogus"}, "")

	assert.Equal(t, TransactionExpense, txn.Type)
	assert.Equal(t, OriginManual, txn.Origin)

	imported := TransactionFromRecord(Record{"id": "txn-2", "origin": "import", "external_id": "bank-9"}, "")
	assert.Equal(t, OriginImport, imported.Origin)
	assert.Equal(t, "bank-9", imported.ExternalID)
}

func TestFallbackCategoryID(t *testing.T) {
	cats := []Category{
		{ID: "c1", Name: "Food"},
		{ID: "c2", Name: "Other"},
		{ID: "c3", Name: "Housing"},
	}
	assert.Equal(t, "c2", FallbackCategoryID(cats))

	// Substring match, case-insensitive
	cats = []Category{
		{ID: "c1", Name: "Food"},
		{ID: "c2", Name: "OTHER expenses"},
	}
	assert.Equal(t, "c2", FallbackCategoryID(cats))

	// No "other": first available
	cats = []Category{{ID: "c1", Name: "Food"}, {ID: "c2", Name: "Housing"}}
	assert.Equal(t, "c1", FallbackCategoryID(cats))

	assert.Equal(t, "", FallbackCategoryID(nil))
}

func TestCategoryFromRecord(t *testing.T) {
	cat := CategoryFromRecord(Record{
		"id":             "cat-1",
		"name":           "Food",
		"color":          "#f28e2b",
		"monthly_budget": "250.00",
		"sort_order":     2.0,
	})

	assert.Equal(t, Category{ID: "cat-1", Name: "Food", Color: "#f28e2b", MonthlyBudget: 250, SortOrder: 2}, cat)
}

func TestAccountFromRecord(t *testing.T) {
	acct := AccountFromRecord(Record{
		"id":           "acc-1",
		"name":         "Visa",
		"type":         "credit_card",
		"balance":      450.0,
		"credit_limit": 1000.0,
	})

	assert.Equal(t, AccountCreditCard, acct.Type)
	assert.Equal(t, 450.0, acct.Balance)
	assert.Equal(t, 1000.0, acct.CreditLimit)
}

func TestGoalAndDebtTransforms(t *testing.T) {
	sg := SavingsGoalFromRecord(Record{"id": "sg-1", "name": "Vacation", "target_amount": 3000.0, "current_amount": "750.25"})
	assert.Equal(t, 750.25, sg.CurrentAmount)

	fg := FinancialGoalFromRecord(Record{"id": "fg-1", "goal_type": "emergency_fund", "target_amount": 10000.0})
	assert.Equal(t, "emergency_fund", fg.GoalType)

	debt := DebtFromRecord(Record{"id": "d-1", "name": "Car loan", "balance": 8200.0, "interest_rate": 6.5})
	assert.Equal(t, 8200.0, debt.Balance)

	rec := RecurringFromRecord(Record{"id": "r-1", "description": "Rent", "amount": 1500.0, "frequency": "monthly", "next_date": "2025-04-01"})
	assert.Equal(t, "monthly", rec.Frequency)
	assert.Equal(t, "2025-04-01", rec.NextDate.String())
}
