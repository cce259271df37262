package dataset

// Row holds one record as a column-name to raw-value map. All values
// are strings as read from CSV; typed interpretation happens in the
// quality and rules packages.
type Row map[string]string

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered entity table. Column order and row order are
// preserved across stages for reproducible output.
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given column set.
func New(name string, columns ...string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Name: name, Columns: cols}
}

// Empty creates a zero-row table used when a raw load fails
// structurally and the orchestrator substitutes for the entity.
func Empty(name string, columns ...string) *Table {
	return New(name, columns...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append adds a row, filling any column absent from the row with the
// empty string so every row exposes the full column set.
func (t *Table) Append(row Row) {
	r := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		r[c] = row[c]
	}
	t.Rows = append(t.Rows, r)
}

// HasColumn reports whether the table declares the given column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn declares a new column, initialized to the empty string on
// existing rows. Adding an existing column is a no-op.
func (t *Table) AddColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
	for _, r := range t.Rows {
		if _, ok := r[name]; !ok {
			r[name] = ""
		}
	}
}

// RequireColumns verifies that every listed column is declared,
// returning a structural error naming the first missing one.
func (t *Table) RequireColumns(columns ...string) error {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return missingColumn(t.Name, c)
		}
	}
	return nil
}

// Values returns the column values across all rows in row order.
func (t *Table) Values(column string) []string {
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, r[column])
	}
	return out
}

// ValueSet returns the distinct non-empty values of a column, used for
// dynamic foreign-key sets.
func (t *Table) ValueSet(column string) map[string]struct{} {
	set := make(map[string]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		if v := r[column]; v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New(t.Name, t.Columns...)
	out.Rows = make([]Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		out.Rows = append(out.Rows, r.Clone())
	}
	return out
}

// Filter returns a new table keeping rows for which keep returns true,
// preserving input order. The second result is the number of rows
// dropped.
func (t *Table) Filter(keep func(Row) bool) (*Table, int) {
	out := New(t.Name, t.Columns...)
	dropped := 0
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r.Clone())
		} else {
			dropped++
		}
	}
	return out, dropped
}
