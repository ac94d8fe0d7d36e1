package budget

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// CreateCategoryParams are the fields for a new category.
type CreateCategoryParams struct {
	Name          string
	Color         string
	MonthlyBudget float64
	SortOrder     int
}

// UpdateCategoryParams patches a category. Nil fields are unchanged.
type UpdateCategoryParams struct {
	Name          *string
	Color         *string
	MonthlyBudget *float64
	SortOrder     *int
}

// CreateCategory creates a category. Names are unique per budget,
// case-insensitive; a local duplicate is rejected before the store is
// touched, and a store-side conflict is surfaced as-is.
func (c *Client) CreateCategory(ctx context.Context, params *CreateCategoryParams) (*Category, error) {
	budgetID := c.Session.CurrentBudget()
	if budgetID == "" {
		return nil, ErrNoBudgetSelected
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	if params.MonthlyBudget < 0 {
		return nil, &ValidationError{Field: "monthlyBudget", Message: "must be non-negative", Value: params.MonthlyBudget}
	}

	for _, existing := range c.Data.Get().Categories {
		if strings.EqualFold(existing.Name, params.Name) {
			return nil, &ValidationError{Field: "name", Message: "a category with this name already exists", Value: params.Name}
		}
	}

	rec, err := c.store.Create(ctx, budgetID, KindCategories, Record{
		"name":           params.Name,
		"color":          params.Color,
		"monthly_budget": params.MonthlyBudget,
		"sort_order":     params.SortOrder,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create category")
	}

	cat := CategoryFromRecord(rec)
	c.router.ScheduleReconcile()
	return &cat, nil
}

// UpdateCategory patches a category by id.
func (c *Client) UpdateCategory(ctx context.Context, categoryID string, params *UpdateCategoryParams) (*Category, error) {
	budgetID := c.Session.CurrentBudget()
	if budgetID == "" {
		return nil, ErrNoBudgetSelected
	}

	fields := Record{}
	if params.Name != nil {
		if strings.TrimSpace(*params.Name) == "" {
			return nil, &ValidationError{Field: "name", Message: "must not be empty"}
		}
		for _, existing := range c.Data.Get().Categories {
			if existing.ID != categoryID && strings.EqualFold(existing.Name, *params.Name) {
				return nil, &ValidationError{Field: "name", Message: "a category with this name already exists", Value: *params.Name}
			}
		}
		fields["name"] = *params.Name
	}
	if params.Color != nil {
		fields["color"] = *params.Color
	}
	if params.MonthlyBudget != nil {
		if *params.MonthlyBudget < 0 {
			return nil, &ValidationError{Field: "monthlyBudget", Message: "must be non-negative", Value: *params.MonthlyBudget}
		}
		fields["monthly_budget"] = *params.MonthlyBudget
	}
	if params.SortOrder != nil {
		fields["sort_order"] = *params.SortOrder
	}

	rec, err := c.store.Update(ctx, KindCategories, categoryID, fields)
	if err != nil {
		return nil, errors.Wrap(err, "failed to update category")
	}

	cat := CategoryFromRecord(rec)
	c.router.ScheduleReconcile()
	return &cat, nil
}

// DeleteCategory removes a category. The last remaining category cannot be
// deleted. Transactions pointing at the deleted category are re-pointed to
// the fallback category before the delete goes through.
func (c *Client) DeleteCategory(ctx context.Context, categoryID string) error {
	budgetID := c.Session.CurrentBudget()
	if budgetID == "" {
		return ErrNoBudgetSelected
	}

	snap := c.Data.Get()
	if len(snap.Categories) <= 1 {
		return &ValidationError{Field: "id", Message: "the last category cannot be deleted", Value: categoryID}
	}

	remaining := make([]Category, 0, len(snap.Categories)-1)
	for _, cat := range snap.Categories {
		if cat.ID != categoryID {
			remaining = append(remaining, cat)
		}
	}
	fallbackID := FallbackCategoryID(remaining)

	for _, txn := range snap.Transactions {
		if txn.CategoryID != categoryID {
			continue
		}
		if _, err := c.store.Update(ctx, KindTransactions, txn.ID, Record{"category_id": fallbackID}); err != nil && !IsNotFound(err) {
			return errors.Wrap(err, "failed to re-point transaction to fallback category")
		}
	}

	if err := c.store.Delete(ctx, KindCategories, categoryID); err != nil {
		return errors.Wrap(err, "failed to delete category")
	}

	c.router.ScheduleReconcile()
	return nil
}
