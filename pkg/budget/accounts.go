package budget

import (
	"context"

	"github.com/pkg/errors"
)

// CreateAccountParams are the fields for a new account. CreditLimit must be
// set exactly when Type is credit_card.
type CreateAccountParams struct {
	Name        string
	Type        AccountType
	Balance     float64
	CreditLimit *float64
}

// UpdateAccountParams patches an account. Nil fields are unchanged.
type UpdateAccountParams struct {
	Name        *string
	Balance     *float64
	CreditLimit *float64
}

func validAccountType(t AccountType) bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCreditCard, AccountInvestment:
		return true
	}
	return false
}

func (p *CreateAccountParams) validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if !validAccountType(p.Type) {
		return &ValidationError{Field: "type", Message: "unknown account type", Value: p.Type}
	}
	if p.Balance < 0 {
		return &ValidationError{Field: "balance", Message: "must be non-negative", Value: p.Balance}
	}
	if p.Type == AccountCreditCard {
		if p.CreditLimit == nil || *p.CreditLimit <= 0 {
			return &ValidationError{Field: "creditLimit", Message: "required for credit card accounts"}
		}
	} else if p.CreditLimit != nil {
		return &ValidationError{Field: "creditLimit", Message: "only allowed for credit card accounts"}
	}
	return nil
}

// CreateAccount creates a linked account. The credit-limit invariant is
// enforced here, not left to the storage layer.
func (c *Client) CreateAccount(ctx context.Context, params *CreateAccountParams) (*Account, error) {
	budgetID := c.Session.CurrentBudget()
	if budgetID == "" {
		return nil, ErrNoBudgetSelected
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	fields := Record{
		"name":    params.Name,
		"type":    string(params.Type),
		"balance": params.Balance,
	}
	if params.CreditLimit != nil {
		fields["credit_limit"] = *params.CreditLimit
	}

	rec, err := c.store.Create(ctx, budgetID, KindAccounts, fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create account")
	}

	acct := AccountFromRecord(rec)
	c.router.ScheduleReconcile()
	return &acct, nil
}

// UpdateAccount patches an account by id, re-checking the credit-limit
// invariant against the account's type.
func (c *Client) UpdateAccount(ctx context.Context, accountID string, params *UpdateAccountParams) (*Account, error) {
	budgetID := c.Session.CurrentBudget()
	if budgetID == "" {
		return nil, ErrNoBudgetSelected
	}

	var current *Account
	for _, a := range c.Data.Get().Accounts {
		if a.ID == accountID {
			acct := a
			current = &acct
			break
		}
	}
	if current == nil {
		return nil, ErrNotFound
	}

	fields := Record{}
	if params.Name != nil {
		if *params.Name == "" {
			return nil, &ValidationError{Field: "name", Message: "must not be empty"}
		}
		fields["name"] = *params.Name
	}
	if params.Balance != nil {
		if *params.Balance < 0 {
			return nil, &ValidationError{Field: "balance", Message: "must be non-negative", Value: *params.Balance}
		}
		fields["balance"] = *params.Balance
	}
	if params.CreditLimit != nil {
		if current.Type != AccountCreditCard {
			return nil, &ValidationError{Field: "creditLimit", Message: "only allowed for credit card accounts"}
		}
		if *params.CreditLimit <= 0 {
			return nil, &ValidationError{Field: "creditLimit", Message: "must be positive", Value: *params.CreditLimit}
		}
		fields["credit_limit"] = *params.CreditLimit
	}

	rec, err := c.store.Update(ctx, KindAccounts, accountID, fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update account")
	}

	acct := AccountFromRecord(rec)
	c.router.ScheduleReconcile()
	return &acct, nil
}

// DeleteAccount removes an account. Its transactions keep existing; their
// account reference is nulled out, not deleted.
func (c *Client) DeleteAccount(ctx context.Context, accountID string) error {
	budgetID := c.Session.CurrentBudget()
	if budgetID == "" {
		return ErrNoBudgetSelected
	}

	for _, txn := range c.Data.Get().Transactions {
		if txn.AccountID != accountID {
			continue
		}
		if _, err := c.store.Update(ctx, KindTransactions, txn.ID, Record{"account_id": nil}); err != nil && !IsNotFound(err) {
			return errors.Wrap(err, "failed to detach transaction from account")
		}
	}

	if err := c.store.Delete(ctx, KindAccounts, accountID); err != nil {
		return errors.Wrap(err, "failed to delete account")
	}

	c.router.ScheduleReconcile()
	return nil
}
