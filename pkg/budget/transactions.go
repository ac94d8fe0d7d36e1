package budget

import (
	"context"

	"github.com/pkg/errors"
)

// CreateTransactionParams are the fields for a new transaction. Amount is
// always non-negative; the sign lives in Type.
type CreateTransactionParams struct {
	Date        Date
	Description string
	Amount      float64
	Type        TransactionType
	CategoryID  string
	AccountID   string
	Merchant    string
	Note        string
	ExternalID  string
}

// UpdateTransactionParams patches a transaction. Nil fields are unchanged.
type UpdateTransactionParams struct {
	Date        *Date
	Description *string
	Amount      *float64
	Type        *TransactionType
	CategoryID  *string
	AccountID   *string
	Merchant    *string
	Note        *string
}

func (p *CreateTransactionParams) validate() error {
	if p.Amount < 0 {
		return &ValidationError{Field: "amount", Message: "must be non-negative", Value: p.Amount}
	}
	if p.Type != TransactionIncome && p.Type != TransactionExpense {
		return &ValidationError{Field: "type", Message: "must be income or expense", Value: p.Type}
	}
	return nil
}

// CreateTransaction writes a new manual transaction to the store and
// patches it into the local snapshot optimistically.
func (c *Client) CreateTransaction(ctx context.Context, params *CreateTransactionParams) (*Transaction, error) {
	budgetID := c.Session.CurrentBudget()
	if budgetID == "" {
		return nil, ErrNoBudgetSelected
	}
	if err := params.validate(); err != nil {
		return nil, err
	}

	fields := Record{
		"date":        params.Date.String(),
		"description": params.Description,
		"amount":      params.Amount,
		"type":        string(params.Type),
		"origin":      string(OriginManual),
	}
	if params.CategoryID != "" {
		fields["category_id"] = params.CategoryID
	}
	if params.AccountID != "" {
		fields["account_id"] = params.AccountID
	}
	if params.Merchant != "" {
		fields["merchant"] = params.Merchant
	}
	if params.Note != "" {
		fields["note"] = params.Note
	}
	if params.ExternalID != "" {
		fields["external_id"] = params.ExternalID
		fields["origin"] = string(OriginImport)
	}
	if c.Session.UserID() != "" {
		fields["created_by"] = c.Session.UserID()
	}

	rec, err := c.store.Create(ctx, budgetID, KindTransactions, fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create transaction")
	}

	snap := c.Data.Get()
	txn := TransactionFromRecord(rec, FallbackCategoryID(snap.Categories))
	c.Data.PatchTransaction(ChangeInsert, txn)
	c.render()
	c.router.ScheduleReconcile()

	return &txn, nil
}

// UpdateTransaction patches a transaction by id.
func (c *Client) UpdateTransaction(ctx context.Context, transactionID string, params *UpdateTransactionParams) (*Transaction, error) {
	budgetID := c.Session.CurrentBudget()
	if budgetID == "" {
		return nil, ErrNoBudgetSelected
	}
	if params.Amount != nil && *params.Amount < 0 {
		return nil, &ValidationError{Field: "amount", Message: "must be non-negative", Value: *params.Amount}
	}

	fields := Record{}
	if params.Date != nil {
		fields["date"] = params.Date.String()
	}
	if params.Description != nil {
		fields["description"] = *params.Description
	}
	if params.Amount != nil {
		fields["amount"] = *params.Amount
	}
	if params.Type != nil {
		fields["type"] = string(*params.Type)
	}
	if params.CategoryID != nil {
		fields["category_id"] = *params.CategoryID
	}
	if params.AccountID != nil {
		fields["account_id"] = *params.AccountID
	}
	if params.Merchant != nil {
		fields["merchant"] = *params.Merchant
	}
	if params.Note != nil {
		fields["note"] = *params.Note
	}

	rec, err := c.store.Update(ctx, KindTransactions, transactionID, fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update transaction")
	}

	snap := c.Data.Get()
	txn := TransactionFromRecord(rec, FallbackCategoryID(snap.Categories))
	c.Data.PatchTransaction(ChangeUpdate, txn)
	c.render()
	c.router.ScheduleReconcile()

	return &txn, nil
}

// DeleteTransaction removes a transaction.
func (c *Client) DeleteTransaction(ctx context.Context, transactionID string) error {
	if c.Session.CurrentBudget() == "" {
		return ErrNoBudgetSelected
	}

	if err := c.store.Delete(ctx, KindTransactions, transactionID); err != nil {
		return errors.Wrap(err, "failed to delete transaction")
	}

	c.Data.PatchTransaction(ChangeDelete, Transaction{ID: transactionID})
	c.render()
	c.router.ScheduleReconcile()
	return nil
}

// ImportTransactions bulk-creates imported transactions, skipping any whose
// external id is already present in the current snapshot. The created ids
// are recorded in the snapshot so the batch can be undone.
func (c *Client) ImportTransactions(ctx context.Context, batch []CreateTransactionParams) (int, error) {
	budgetID := c.Session.CurrentBudget()
	if budgetID == "" {
		return 0, ErrNoBudgetSelected
	}

	seen := make(map[string]bool)
	for _, txn := range c.Data.Get().Transactions {
		if txn.ExternalID != "" {
			seen[txn.ExternalID] = true
		}
	}

	var createdIDs []string
	for i := range batch {
		params := &batch[i]
		if params.ExternalID != "" && seen[params.ExternalID] {
			continue
		}
		if params.ExternalID == "" {
			return len(createdIDs), &ValidationError{Field: "externalId", Message: "required for imported transactions"}
		}
		txn, err := c.CreateTransaction(ctx, params)
		if err != nil {
			return len(createdIDs), err
		}
		createdIDs = append(createdIDs, txn.ID)
		seen[params.ExternalID] = true
	}

	c.Data.Set(SnapshotPatch{LastImportIDs: &createdIDs})
	return len(createdIDs), nil
}

// UndoLastImport deletes every transaction created by the most recent
// import batch.
func (c *Client) UndoLastImport(ctx context.Context) error {
	if c.Session.CurrentBudget() == "" {
		return ErrNoBudgetSelected
	}

	ids := c.Data.Get().LastImportIDs
	for _, id := range ids {
		if err := c.DeleteTransaction(ctx, id); err != nil && !IsNotFound(err) {
			return err
		}
	}

	empty := []string{}
	c.Data.Set(SnapshotPatch{LastImportIDs: &empty})
	return nil
}

func (c *Client) render() {
	if c.options.Renderer != nil {
		c.options.Renderer.Render()
	}
}
