package quality

import (
	"log/slog"
	"strings"

	"retaildq/internal/dataset"
)

// Deduplicate removes rows whose tuple of values at keyColumns has
// already been seen, keeping the first occurrence in input order. The
// match is exact; there is no fuzzy matching. Returns the deduplicated
// table and the number of rows removed.
func Deduplicate(t *dataset.Table, keyColumns []string) (*dataset.Table, int) {
	if len(keyColumns) == 0 {
		return t.Clone(), 0
	}

	seen := make(map[string]struct{}, t.Len())
	out, removed := t.Filter(func(r dataset.Row) bool {
		key := dedupeKey(r, keyColumns)
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
		return true
	})

	if removed > 0 {
		slog.Info("Removed duplicate rows",
			slog.String("table", t.Name),
			slog.Any("key_columns", keyColumns),
			slog.Int("removed", removed))
	}
	return out, removed
}

// dedupeKey builds the comparison key for a row. Values are joined
// with an unlikely separator; key columns are fixed per entity so
// collisions require the separator inside the data itself.
func dedupeKey(r dataset.Row, keyColumns []string) string {
	parts := make([]string, len(keyColumns))
	for i, c := range keyColumns {
		parts[i] = r[c]
	}
	return strings.Join(parts, "\x1f")
}
