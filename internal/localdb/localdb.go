// Package localdb is the personal-budget backend: a file-backed JSON store
// implementing the same CRUD surface as the hosted one, without a change
// feed. A client running against it gets its consistency purely from
// reconciliation passes.
package localdb

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mfeltz/budgetboard-go/internal/types"
)

// DefaultBudgetName names the budget seeded into a fresh file.
const DefaultBudgetName = "My Budget"

type fileData struct {
	Budgets []types.BudgetInfo                  `json:"budgets"`
	Tables  map[types.EntityKind][]types.Record `json:"tables"`
}

// DB is a file-backed Store.
type DB struct {
	path string

	mu   sync.Mutex
	data fileData
}

// Open loads the store file, creating it with one personal budget if it
// does not exist yet.
func Open(path string) (*DB, error) {
	db := &DB{path: path}

	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &db.data); err != nil {
			return nil, errors.Wrapf(err, "corrupt store file %s", path)
		}
	case os.IsNotExist(err):
		db.data = fileData{
			Budgets: []types.BudgetInfo{{
				ID:     uuid.NewString(),
				Name:   DefaultBudgetName,
				Shared: false,
			}},
		}
		if err := db.persistLocked(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(err, "failed to read store file %s", path)
	}

	if db.data.Tables == nil {
		db.data.Tables = make(map[types.EntityKind][]types.Record)
	}
	return db, nil
}

// Budgets lists the budgets in the file.
func (db *DB) Budgets(_ context.Context) ([]types.BudgetInfo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]types.BudgetInfo(nil), db.data.Budgets...), nil
}

// List returns every row of one collection for one budget.
func (db *DB) List(_ context.Context, budgetID string, kind types.EntityKind) ([]types.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var out []types.Record
	for _, rec := range db.data.Tables[kind] {
		if str(rec["budget_id"]) == budgetID {
			out = append(out, copyRecord(rec))
		}
	}
	return out, nil
}

// Create inserts a row, enforcing the same uniqueness rules the hosted
// store enforces with constraints: category names are unique per budget
// (case-insensitive) and imported transactions are unique per external id.
func (db *DB) Create(_ context.Context, budgetID string, kind types.EntityKind, fields types.Record) (types.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	rec := copyRecord(fields)
	rec["budget_id"] = budgetID
	if str(rec["id"]) == "" {
		rec["id"] = uuid.NewString()
	}

	for _, existing := range db.data.Tables[kind] {
		if str(existing["budget_id"]) != budgetID {
			continue
		}
		if kind == types.KindCategories &&
			strings.EqualFold(str(existing["name"]), str(rec["name"])) {
			return nil, types.NewStoreError(types.ErrKindConflict, "23505",
				"duplicate category name")
		}
		if kind == types.KindTransactions && str(rec["external_id"]) != "" &&
			str(existing["external_id"]) == str(rec["external_id"]) {
			return nil, types.NewStoreError(types.ErrKindConflict, "23505",
				"duplicate external id")
		}
	}

	db.data.Tables[kind] = append(db.data.Tables[kind], rec)
	if err := db.persistLocked(); err != nil {
		return nil, err
	}
	return copyRecord(rec), nil
}

// Update patches a row by id.
func (db *DB) Update(_ context.Context, kind types.EntityKind, id string, fields types.Record) (types.Record, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for i, existing := range db.data.Tables[kind] {
		if str(existing["id"]) != id {
			continue
		}
		merged := copyRecord(existing)
		for k, v := range fields {
			if v == nil {
				delete(merged, k)
				continue
			}
			merged[k] = v
		}
		db.data.Tables[kind][i] = merged
		if err := db.persistLocked(); err != nil {
			return nil, err
		}
		return copyRecord(merged), nil
	}
	return nil, types.NewStoreError(types.ErrKindNotFound, "", "row not found")
}

// Delete removes a row by id. Deleting a missing row is not an error.
func (db *DB) Delete(_ context.Context, kind types.EntityKind, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	rows := db.data.Tables[kind]
	for i, existing := range rows {
		if str(existing["id"]) == id {
			db.data.Tables[kind] = append(rows[:i], rows[i+1:]...)
			return db.persistLocked()
		}
	}
	return nil
}

// CreateBudget adds a budget to the file.
func (db *DB) CreateBudget(_ context.Context, name string) (types.BudgetInfo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	info := types.BudgetInfo{ID: uuid.NewString(), Name: name}
	db.data.Budgets = append(db.data.Budgets, info)
	if err := db.persistLocked(); err != nil {
		return types.BudgetInfo{}, err
	}
	return info, nil
}

func (db *DB) persistLocked() error {
	buf, err := json.MarshalIndent(db.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode store file")
	}

	tmp := db.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(db.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create store directory")
	}
	if err := os.WriteFile(tmp, buf, 0o644); err != nil {
		return errors.Wrap(err, "failed to write store file")
	}
	return errors.Wrap(os.Rename(tmp, db.path), "failed to replace store file")
}

func copyRecord(rec types.Record) types.Record {
	out := make(types.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
