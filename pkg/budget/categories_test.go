package budget

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCategory_DuplicateNameRejected(t *testing.T) {
	store := newFakeRealtime(BudgetInfo{ID: "b1"})
	store.seed("b1", KindCategories, Record{"id": "c1", "name": "Food"})
	client := activatedClient(t, store, "b1")

	_, err := client.CreateCategory(context.Background(), &CreateCategoryParams{Name: "FOOD"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestCreateCategory_Success(t *testing.T) {
	store := newFakeRealtime(BudgetInfo{ID: "b1"})
	store.seed("b1", KindCategories, Record{"id": "c1", "name": "Other"})
	client := activatedClient(t, store, "b1")

	cat, err := client.CreateCategory(context.Background(), &CreateCategoryParams{
		Name:          "Food",
		Color:         "#f28e2b",
		MonthlyBudget: 250,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, cat.ID)
	assert.Equal(t, "Food", cat.Name)
}

func TestDeleteCategory_LastCategoryProtected(t *testing.T) {
	store := newFakeRealtime(BudgetInfo{ID: "b1"})
	store.seed("b1", KindCategories, Record{"id": "c1", "name": "Other"})
	client := activatedClient(t, store, "b1")

	err := client.DeleteCategory(context.Background(), "c1")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, store.countByKind(KindCategories, "b1"))
}

func TestDeleteCategory_RepointsTransactions(t *testing.T) {
	store := newFakeRealtime(BudgetInfo{ID: "b1"})
	store.seed("b1", KindCategories,
		Record{"id": "c-food", "name": "Food"},
		Record{"id": "c-other", "name": "Other"},
	)
	store.seed("b1", KindTransactions,
		Record{"id": "t1", "amount": 5.0, "category_id": "c-food"},
		Record{"id": "t2", "amount": 7.0, "category_id": "c-other"},
	)
	client := activatedClient(t, store, "b1")
	ctx := context.Background()

	require.NoError(t, client.DeleteCategory(ctx, "c-food"))

	recs, err := store.List(ctx, "b1", KindTransactions)
	require.NoError(t, err)
	for _, rec := range recs {
		assert.Equal(t, "c-other", rec["category_id"])
	}
	assert.Equal(t, 1, store.countByKind(KindCategories, "b1"))
}

func TestUpdateCategory_Validation(t *testing.T) {
	store := newFakeRealtime(BudgetInfo{ID: "b1"})
	store.seed("b1", KindCategories,
		Record{"id": "c1", "name": "Food"},
		Record{"id": "c2", "name": "Housing"},
	)
	client := activatedClient(t, store, "b1")
	ctx := context.Background()

	name := "housing"
	_, err := client.UpdateCategory(ctx, "c1", &UpdateCategoryParams{Name: &name})
	assert.Error(t, err)

	negative := -10.0
	_, err = client.UpdateCategory(ctx, "c1", &UpdateCategoryParams{MonthlyBudget: &negative})
	assert.Error(t, err)

	budgetAmount := 300.0
	cat, err := client.UpdateCategory(ctx, "c1", &UpdateCategoryParams{MonthlyBudget: &budgetAmount})
	require.NoError(t, err)
	assert.Equal(t, 300.0, cat.MonthlyBudget)
}
