package quality

import (
	"log/slog"

	"retaildq/internal/dataset"
)

// CorrectionOptions carries the sentinel values and deduplication keys
// applied by the entity correctors. Behavior is data-driven; the zero
// value is not usable, use DefaultCorrectionOptions.
type CorrectionOptions struct {
	CustomerNameDefault  string   `yaml:"customer_name_default"`
	CustomerEmailDefault string   `yaml:"customer_email_default"`
	ProductNameDefault   string   `yaml:"product_name_default"`
	CategoryDefault      string   `yaml:"category_default"`
	CustomerDedupeKeys   []string `yaml:"customer_dedupe_keys"`
	ProductDedupeKeys    []string `yaml:"product_dedupe_keys"`
}

// DefaultCorrectionOptions returns the standard sentinels and
// deduplication keys.
func DefaultCorrectionOptions() CorrectionOptions {
	return CorrectionOptions{
		CustomerNameDefault:  "Unnamed Customer",
		CustomerEmailDefault: "no-email@unknown",
		ProductNameDefault:   "Unnamed Product",
		CategoryDefault:      "Uncategorized",
		CustomerDedupeKeys:   []string{"id", "email"},
		ProductDedupeKeys:    []string{"id", "product_name"},
	}
}

// CorrectionStats summarizes what a corrector changed. The counts feed
// the audit log and the run report.
type CorrectionStats struct {
	Table             string         `json:"table"`
	RowsIn            int            `json:"rows_in"`
	RowsOut           int            `json:"rows_out"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	ValuesClamped     int            `json:"values_clamped"`
	ValuesDefaulted   int            `json:"values_defaulted"`
	DatesBlanked      int            `json:"dates_blanked"`
	ForeignKeyDrops   map[string]int `json:"foreign_key_drops,omitempty"`
}

// CorrectCustomers normalizes email, phone and the two date columns,
// removes duplicates on the configured key set and fills missing name
// and email with sentinels. Pure except for audit logging.
func CorrectCustomers(raw *dataset.Table, opts CorrectionOptions) (*dataset.Table, CorrectionStats, error) {
	stats := CorrectionStats{Table: raw.Name, RowsIn: raw.Len()}

	if err := raw.RequireColumns("id", "name", "email", "phone", "birth_date", "registration_date", "city", "state"); err != nil {
		return nil, stats, err
	}

	t := raw.Clone()
	for _, r := range t.Rows {
		r["email"] = NormalizeEmail(r["email"])
		r["phone"] = NormalizePhone(r["phone"])
		normalizeDateField(r, "birth_date", &stats)
		normalizeDateField(r, "registration_date", &stats)
	}

	t, removed := Deduplicate(t, opts.CustomerDedupeKeys)
	stats.DuplicatesRemoved = removed

	for _, r := range t.Rows {
		if r["name"] == "" {
			r["name"] = opts.CustomerNameDefault
			stats.ValuesDefaulted++
		}
		if r["email"] == "" {
			r["email"] = opts.CustomerEmailDefault
			stats.ValuesDefaulted++
		}
	}

	stats.RowsOut = t.Len()
	logCorrection(stats)
	return t, stats, nil
}

// CorrectProducts fills missing name and category with sentinels,
// clamps price and stock at zero, normalizes the creation date and
// removes duplicates on the configured key set.
func CorrectProducts(raw *dataset.Table, opts CorrectionOptions) (*dataset.Table, CorrectionStats, error) {
	stats := CorrectionStats{Table: raw.Name, RowsIn: raw.Len()}

	if err := raw.RequireColumns("id", "product_name", "category", "price", "stock", "creation_date"); err != nil {
		return nil, stats, err
	}

	t := raw.Clone()
	for _, r := range t.Rows {
		if r["product_name"] == "" {
			r["product_name"] = opts.ProductNameDefault
			stats.ValuesDefaulted++
		}
		if r["category"] == "" {
			r["category"] = opts.CategoryDefault
			stats.ValuesDefaulted++
		}
		clampField(r, "price", 0, false, &stats)
		clampField(r, "stock", 0, true, &stats)
		normalizeDateField(r, "creation_date", &stats)
	}

	t, removed := Deduplicate(t, opts.ProductDedupeKeys)
	stats.DuplicatesRemoved = removed

	stats.RowsOut = t.Len()
	logCorrection(stats)
	return t, stats, nil
}

// CorrectSales clamps quantity at one and unit price at zero, always
// recomputes total_value from the corrected pair, normalizes the sale
// date and drops rows whose customer or product reference does not
// exist in the already-corrected parent tables. Sales carry no
// deduplication key: repeated customer/product pairs are legitimate.
func CorrectSales(raw, customers, products *dataset.Table, _ CorrectionOptions) (*dataset.Table, CorrectionStats, error) {
	stats := CorrectionStats{Table: raw.Name, RowsIn: raw.Len(), ForeignKeyDrops: map[string]int{}}

	if err := raw.RequireColumns("id", "customer_id", "product_id", "quantity", "unit_price", "sale_date"); err != nil {
		return nil, stats, err
	}

	t := raw.Clone()
	t.AddColumn("total_value")
	for _, r := range t.Rows {
		clampField(r, "quantity", 1, true, &stats)
		clampField(r, "unit_price", 0, false, &stats)

		// total_value is never trusted from raw input.
		qty, _ := ParseFloat(r["quantity"])
		unit, _ := ParseFloat(r["unit_price"])
		r["total_value"] = FormatNumber(qty*unit, false)

		normalizeDateField(r, "sale_date", &stats)
	}

	customerIDs := customers.ValueSet("id")
	t, droppedCustomers := t.Filter(func(r dataset.Row) bool {
		_, ok := customerIDs[r["customer_id"]]
		return ok
	})
	stats.ForeignKeyDrops["customer_id"] = droppedCustomers

	productIDs := products.ValueSet("id")
	t, droppedProducts := t.Filter(func(r dataset.Row) bool {
		_, ok := productIDs[r["product_id"]]
		return ok
	})
	stats.ForeignKeyDrops["product_id"] = droppedProducts

	stats.RowsOut = t.Len()
	logCorrection(stats)
	return t, stats, nil
}

// CorrectLogistics normalizes the three date columns and drops rows
// whose sale reference does not exist in the corrected sales table.
func CorrectLogistics(raw, sales *dataset.Table, _ CorrectionOptions) (*dataset.Table, CorrectionStats, error) {
	stats := CorrectionStats{Table: raw.Name, RowsIn: raw.Len(), ForeignKeyDrops: map[string]int{}}

	if err := raw.RequireColumns("sale_id", "ship_date", "expected_delivery_date", "actual_delivery_date"); err != nil {
		return nil, stats, err
	}

	t := raw.Clone()
	for _, r := range t.Rows {
		normalizeDateField(r, "ship_date", &stats)
		normalizeDateField(r, "expected_delivery_date", &stats)
		normalizeDateField(r, "actual_delivery_date", &stats)
	}

	saleIDs := sales.ValueSet("id")
	t, dropped := t.Filter(func(r dataset.Row) bool {
		_, ok := saleIDs[r["sale_id"]]
		return ok
	})
	stats.ForeignKeyDrops["sale_id"] = dropped

	stats.RowsOut = t.Len()
	logCorrection(stats)
	return t, stats, nil
}

// normalizeDateField rewrites a date column in place, counting values
// that degrade to the empty sentinel.
func normalizeDateField(r dataset.Row, column string, stats *CorrectionStats) {
	normalized := NormalizeDate(r[column])
	if normalized == "" && r[column] != "" {
		stats.DatesBlanked++
	}
	r[column] = normalized
}

// clampField rewrites a numeric column in place. Unparseable values
// degrade to the minimum, a value-level defect that must never abort
// the run. Only genuine value changes are counted, canonical
// reformatting is not.
func clampField(r dataset.Row, column string, min float64, asInt bool, stats *CorrectionStats) {
	orig, ok := ParseFloat(r[column])
	clamped, err := ClampMin(r[column], min, asInt)
	if err != nil {
		r[column] = FormatNumber(min, asInt)
		stats.ValuesClamped++
		return
	}
	if ok && orig < min {
		stats.ValuesClamped++
	}
	r[column] = clamped
}

func logCorrection(stats CorrectionStats) {
	slog.Info("Correction completed",
		slog.String("table", stats.Table),
		slog.Int("rows_in", stats.RowsIn),
		slog.Int("rows_out", stats.RowsOut),
		slog.Int("duplicates_removed", stats.DuplicatesRemoved),
		slog.Int("values_clamped", stats.ValuesClamped),
		slog.Int("values_defaulted", stats.ValuesDefaulted),
		slog.Int("dates_blanked", stats.DatesBlanked),
		slog.Any("foreign_key_drops", stats.ForeignKeyDrops))
}
