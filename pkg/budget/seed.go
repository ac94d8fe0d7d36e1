package budget

// CategoryTemplate is one default category created for a budget that has
// none yet.
type CategoryTemplate struct {
	Name  string
	Color string
}

// DefaultCategories is the seed set for a fresh budget. "Other" doubles as
// the fallback target for orphaned transactions.
var DefaultCategories = []CategoryTemplate{
	{Name: "Housing", Color: "#4e79a7"},
	{Name: "Food", Color: "#f28e2b"},
	{Name: "Transport", Color: "#59a14f"},
	{Name: "Utilities", Color: "#76b7b2"},
	{Name: "Entertainment", Color: "#e15759"},
	{Name: "Health", Color: "#af7aa1"},
	{Name: "Savings", Color: "#edc948"},
	{Name: "Other", Color: "#bab0ac"},
}

func (t CategoryTemplate) fields() Record {
	return Record{
		"name":  t.Name,
		"color": t.Color,
	}
}
