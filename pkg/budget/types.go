package budget

// TransactionType carries the sign of a transaction; amounts are stored
// non-negative.
type TransactionType string

const (
	TransactionIncome  TransactionType = "income"
	TransactionExpense TransactionType = "expense"
)

// TransactionOrigin records how a transaction entered the system.
type TransactionOrigin string

const (
	OriginManual TransactionOrigin = "manual"
	OriginImport TransactionOrigin = "import"
)

// AccountType classifies a linked account.
type AccountType string

const (
	AccountChecking   AccountType = "checking"
	AccountSavings    AccountType = "savings"
	AccountCreditCard AccountType = "credit_card"
	AccountInvestment AccountType = "investment"
)

// Transaction is one income or expense entry.
type Transaction struct {
	ID          string            `json:"id"`
	Date        Date              `json:"date"`
	Description string            `json:"description"`
	Amount      float64           `json:"amount"`
	Type        TransactionType   `json:"type"`
	CategoryID  string            `json:"categoryId,omitempty"`
	AccountID   string            `json:"accountId,omitempty"`
	Merchant    string            `json:"merchant,omitempty"`
	Note        string            `json:"note,omitempty"`
	CreatedBy   string            `json:"createdBy,omitempty"`
	Origin      TransactionOrigin `json:"origin"`

	// ExternalID is the bank-side id for imported transactions, used for
	// de-duplication on re-import.
	ExternalID string `json:"externalId,omitempty"`
}

// Category groups transactions. Name is unique per budget, case-insensitive.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Color string `json:"color,omitempty"`

	// MonthlyBudget of 0 means unlimited.
	MonthlyBudget float64 `json:"monthlyBudget"`
	SortOrder     int     `json:"sortOrder"`
}

// Account is a linked bank account or credit card. Balance is always
// non-negative; for credit cards it is the amount owed.
type Account struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    AccountType `json:"type"`
	Balance float64     `json:"balance"`

	// CreditLimit is required for credit_card accounts and must be absent
	// for every other type.
	CreditLimit float64 `json:"creditLimit,omitempty"`
}

// SavingsGoal tracks progress toward a savings target.
type SavingsGoal struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	TargetDate    Date    `json:"targetDate,omitempty"`
}

// FinancialGoal is a general goal with a type tag (e.g. "emergency_fund").
type FinancialGoal struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	GoalType      string  `json:"goalType,omitempty"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	TargetDate    Date    `json:"targetDate,omitempty"`
}

// Debt is an outstanding liability outside of credit cards.
type Debt struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Balance        float64 `json:"balance"`
	OriginalAmount float64 `json:"originalAmount,omitempty"`
	InterestRate   float64 `json:"interestRate,omitempty"`
	MinimumPayment float64 `json:"minimumPayment,omitempty"`
}

// RecurringTransaction is a bill or income that repeats on a schedule.
type RecurringTransaction struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	Type        TransactionType `json:"type"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Frequency   string          `json:"frequency"`
	NextDate    Date            `json:"nextDate,omitempty"`
}

// Snapshot is the full entity set of exactly one budget plus housekeeping
// fields. It is replaced wholesale on budget switch and patched between
// reconciliations.
type Snapshot struct {
	BudgetID string `json:"budgetId"`

	Transactions   []Transaction          `json:"transactions"`
	Categories     []Category             `json:"categories"`
	Accounts       []Account              `json:"accounts"`
	SavingsGoals   []SavingsGoal          `json:"savingsGoals"`
	FinancialGoals []FinancialGoal        `json:"financialGoals"`
	Debts          []Debt                 `json:"debts"`
	Recurring      []RecurringTransaction `json:"recurring"`

	// LastImportIDs holds the ids created by the most recent bulk import,
	// kept so the import can be undone.
	LastImportIDs   []string `json:"lastImportIds,omitempty"`
	ActiveProfileID string   `json:"activeProfileId,omitempty"`
}

// SnapshotPatch is a shallow-merge update for the active data store. A nil
// field leaves the corresponding collection untouched; a non-nil field
// replaces it wholesale.
type SnapshotPatch struct {
	Transactions   *[]Transaction
	Categories     *[]Category
	Accounts       *[]Account
	SavingsGoals   *[]SavingsGoal
	FinancialGoals *[]FinancialGoal
	Debts          *[]Debt
	Recurring      *[]RecurringTransaction

	LastImportIDs   *[]string
	ActiveProfileID *string
}
