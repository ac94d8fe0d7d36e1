package budget

import (
	"strconv"
	"strings"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

// Transformers map raw store rows to canonical entities. They are pure:
// no I/O, no mutation of the input record. Numeric columns may arrive as
// float64, int or decimal-as-text depending on the backend; anything that
// fails to parse becomes 0.

// TransactionFromRecord builds a Transaction from a raw row.
//
// The category reference resolves through a fallback chain: the row's own
// category_id, then the id of a joined category row if the backend returned
// one, then fallbackCategoryID (the current budget's "Other" category), then
// empty.
func TransactionFromRecord(rec Record, fallbackCategoryID string) Transaction {
	categoryID := recString(rec, "category_id")
	if categoryID == "" {
		if joined, ok := rec["categories"].(map[string]interface{}); ok {
			categoryID = recString(joined, "id")
		}
	}
	if categoryID == "" {
		categoryID = fallbackCategoryID
	}

	txnType := TransactionType(recString(rec, "type"))
	if txnType != TransactionIncome {
		txnType = TransactionExpense
	}

	origin := TransactionOrigin(recString(rec, "origin"))
	if origin != OriginImport {
		origin = OriginManual
	}

	return Transaction{
		ID:          recString(rec, "id"),
		Date:        ParseDate(recString(rec, "date")),
		Description: recString(rec, "description"),
		Amount:      recFloat(rec, "amount"),
		Type:        txnType,
		CategoryID:  categoryID,
		AccountID:   recString(rec, "account_id"),
		Merchant:    recString(rec, "merchant"),
		Note:        recString(rec, "note"),
		CreatedBy:   recString(rec, "created_by"),
		Origin:      origin,
		ExternalID:  recString(rec, "external_id"),
	}
}

// CategoryFromRecord builds a Category from a raw row.
func CategoryFromRecord(rec Record) Category {
	return Category{
		ID:            recString(rec, "id"),
		Name:          recString(rec, "name"),
		Color:         recString(rec, "color"),
		MonthlyBudget: recFloat(rec, "monthly_budget"),
		SortOrder:     recInt(rec, "sort_order"),
	}
}

// AccountFromRecord builds an Account from a raw row.
func AccountFromRecord(rec Record) Account {
	return Account{
		ID:          recString(rec, "id"),
		Name:        recString(rec, "name"),
		Type:        AccountType(recString(rec, "type")),
		Balance:     recFloat(rec, "balance"),
		CreditLimit: recFloat(rec, "credit_limit"),
	}
}

// SavingsGoalFromRecord builds a SavingsGoal from a raw row.
func SavingsGoalFromRecord(rec Record) SavingsGoal {
	return SavingsGoal{
		ID:            recString(rec, "id"),
		Name:          recString(rec, "name"),
		TargetAmount:  recFloat(rec, "target_amount"),
		CurrentAmount: recFloat(rec, "current_amount"),
		TargetDate:    ParseDate(recString(rec, "target_date")),
	}
}

// FinancialGoalFromRecord builds a FinancialGoal from a raw row.
func FinancialGoalFromRecord(rec Record) FinancialGoal {
	return FinancialGoal{
		ID:            recString(rec, "id"),
		Name:          recString(rec, "name"),
		GoalType:      recString(rec, "goal_type"),
		TargetAmount:  recFloat(rec, "target_amount"),
		CurrentAmount: recFloat(rec, "current_amount"),
		TargetDate:    ParseDate(recString(rec, "target_date")),
	}
}

// DebtFromRecord builds a Debt from a raw row.
func DebtFromRecord(rec Record) Debt {
	return Debt{
		ID:             recString(rec, "id"),
		Name:           recString(rec, "name"),
		Balance:        recFloat(rec, "balance"),
		OriginalAmount: recFloat(rec, "original_amount"),
		InterestRate:   recFloat(rec, "interest_rate"),
		MinimumPayment: recFloat(rec, "minimum_payment"),
	}
}

// RecurringFromRecord builds a RecurringTransaction from a raw row.
func RecurringFromRecord(rec Record) RecurringTransaction {
	txnType := TransactionType(recString(rec, "type"))
	if txnType != TransactionIncome {
		txnType = TransactionExpense
	}

	return RecurringTransaction{
		ID:          recString(rec, "id"),
		Description: recString(rec, "description"),
		Amount:      recFloat(rec, "amount"),
		Type:        txnType,
		CategoryID:  recString(rec, "category_id"),
		Frequency:   recString(rec, "frequency"),
		NextDate:    ParseDate(recString(rec, "next_date")),
	}
}

// FallbackCategoryID picks the category orphaned transactions re-point to:
// a category whose name is or contains "other" (case-insensitive), else the
// first category, else empty.
func FallbackCategoryID(categories []Category) string {
	for _, c := range categories {
		if strings.Contains(strings.ToLower(c.Name), "other") {
			return c.ID
		}
	}
	if len(categories) > 0 {
		return categories[0].ID
	}
	return ""
}

func recString(rec types.Record, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

// recFloat parses a numeric column, tolerating the text encoding Postgres
// uses for numeric/decimal columns. Unparseable values become 0.
func recFloat(rec types.Record, key string) float64 {
	switch v := rec[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func recInt(rec types.Record, key string) int {
	return int(recFloat(rec, key))
}
