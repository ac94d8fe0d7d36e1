package budget

import "github.com/shopspring/decimal"

// Utilization thresholds, in percent. Exposed so the rendering layer can
// share the same boundaries.
const (
	UtilizationMediumPct = 40.0
	UtilizationHighPct   = 70.0
)

// UtilizationLevel buckets a credit utilization percentage.
type UtilizationLevel string

const (
	UtilizationLow    UtilizationLevel = "low"
	UtilizationMedium UtilizationLevel = "medium"
	UtilizationHigh   UtilizationLevel = "high"
)

// Derived metrics are pure functions over a snapshot. Summation goes
// through decimal so the net worth identity holds exactly at minor-unit
// precision regardless of how many entries are involved.

// Assets sums the balances of checking, savings and investment accounts.
func Assets(s Snapshot) float64 {
	sum := decimal.Zero
	for _, a := range s.Accounts {
		switch a.Type {
		case AccountChecking, AccountSavings, AccountInvestment:
			sum = sum.Add(decimal.NewFromFloat(a.Balance))
		}
	}
	f, _ := sum.Float64()
	return f
}

// CreditCardDebt sums the balances owed on credit card accounts.
func CreditCardDebt(s Snapshot) float64 {
	sum := decimal.Zero
	for _, a := range s.Accounts {
		if a.Type == AccountCreditCard {
			sum = sum.Add(decimal.NewFromFloat(a.Balance))
		}
	}
	f, _ := sum.Float64()
	return f
}

// TotalDebt sums the current balance of every debt record.
func TotalDebt(s Snapshot) float64 {
	sum := decimal.Zero
	for _, d := range s.Debts {
		sum = sum.Add(decimal.NewFromFloat(d.Balance))
	}
	f, _ := sum.Float64()
	return f
}

// NetWorth is assets minus credit card debt minus total debt.
func NetWorth(s Snapshot) float64 {
	assets := decimal.Zero
	liabilities := decimal.Zero
	for _, a := range s.Accounts {
		switch a.Type {
		case AccountChecking, AccountSavings, AccountInvestment:
			assets = assets.Add(decimal.NewFromFloat(a.Balance))
		case AccountCreditCard:
			liabilities = liabilities.Add(decimal.NewFromFloat(a.Balance))
		}
	}
	for _, d := range s.Debts {
		liabilities = liabilities.Add(decimal.NewFromFloat(d.Balance))
	}
	f, _ := assets.Sub(liabilities).Float64()
	return f
}

// CreditUtilization returns balance over limit as a percentage, or 0 when
// the limit is zero or negative.
func CreditUtilization(a Account) float64 {
	if a.CreditLimit <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromFloat(a.Balance).
		Div(decimal.NewFromFloat(a.CreditLimit)).
		Mul(decimal.NewFromInt(100)).
		Float64()
	return pct
}

// UtilizationLevelFor buckets a utilization percentage.
func UtilizationLevelFor(pct float64) UtilizationLevel {
	switch {
	case pct < UtilizationMediumPct:
		return UtilizationLow
	case pct < UtilizationHighPct:
		return UtilizationMedium
	default:
		return UtilizationHigh
	}
}
