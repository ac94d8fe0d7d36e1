package localdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "budget.json"))
	require.NoError(t, err)
	return db
}

func TestOpen_SeedsDefaultBudget(t *testing.T) {
	db := openTestDB(t)

	budgets, err := db.Budgets(context.Background())
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.Equal(t, DefaultBudgetName, budgets[0].Name)
	assert.False(t, budgets[0].Shared)
	assert.NotEmpty(t, budgets[0].ID)
}

func TestCRUDRoundtrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.Create(ctx, "b1", types.KindCategories, types.Record{"name": "Food", "color": "#f28e2b"})
	require.NoError(t, err)
	assert.NotEmpty(t, created["id"])
	assert.Equal(t, "b1", created["budget_id"])

	rows, err := db.List(ctx, "b1", types.KindCategories)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	// Rows for other budgets stay invisible
	rows, err = db.List(ctx, "b2", types.KindCategories)
	require.NoError(t, err)
	assert.Empty(t, rows)

	id, _ := created["id"].(string)
	updated, err := db.Update(ctx, types.KindCategories, id, types.Record{"name": "Groceries"})
	require.NoError(t, err)
	assert.Equal(t, "Groceries", updated["name"])
	assert.Equal(t, "#f28e2b", updated["color"])

	require.NoError(t, db.Delete(ctx, types.KindCategories, id))
	rows, err = db.List(ctx, "b1", types.KindCategories)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCreate_DuplicateCategoryNameConflicts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Create(ctx, "b1", types.KindCategories, types.Record{"name": "Food"})
	require.NoError(t, err)

	_, err = db.Create(ctx, "b1", types.KindCategories, types.Record{"name": "food"})
	assert.True(t, types.IsConflict(err))

	// Same name in a different budget is fine
	_, err = db.Create(ctx, "b2", types.KindCategories, types.Record{"name": "Food"})
	assert.NoError(t, err)
}

func TestCreate_DuplicateExternalIDConflicts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Create(ctx, "b1", types.KindTransactions, types.Record{"amount": 5.0, "external_id": "bank-1"})
	require.NoError(t, err)

	_, err = db.Create(ctx, "b1", types.KindTransactions, types.Record{"amount": 5.0, "external_id": "bank-1"})
	assert.True(t, types.IsConflict(err))

	// Transactions without an external id never collide
	_, err = db.Create(ctx, "b1", types.KindTransactions, types.Record{"amount": 5.0})
	require.NoError(t, err)
	_, err = db.Create(ctx, "b1", types.KindTransactions, types.Record{"amount": 5.0})
	assert.NoError(t, err)
}

func TestUpdate_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Update(context.Background(), types.KindCategories, "missing", types.Record{"name": "X"})
	assert.True(t, types.IsNotFound(err))
}

func TestUpdate_NilFieldClearsKey(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	created, err := db.Create(ctx, "b1", types.KindTransactions, types.Record{"amount": 5.0, "account_id": "a1"})
	require.NoError(t, err)

	id, _ := created["id"].(string)
	updated, err := db.Update(ctx, types.KindTransactions, id, types.Record{"account_id": nil})
	require.NoError(t, err)
	_, present := updated["account_id"]
	assert.False(t, present)
}

func TestDelete_MissingRowIsNoop(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.Delete(context.Background(), types.KindCategories, "missing"))
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.json")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.Create(ctx, "b1", types.KindCategories, types.Record{"name": "Food"})
	require.NoError(t, err)
	_, err = db.CreateBudget(ctx, "Side Project")
	require.NoError(t, err)

	reopened, err := Open(path)
	require.NoError(t, err)

	budgets, err := reopened.Budgets(ctx)
	require.NoError(t, err)
	assert.Len(t, budgets, 2)

	rows, err := reopened.List(ctx, "b1", types.KindCategories)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Food", rows[0]["name"])
}
