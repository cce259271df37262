package quality

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"retaildq/internal/dataset"
)

// emailValidPattern is the strict validity check used for the
// email_valid quality flag. Deliberately stricter than the lossy
// normalization applied during correction.
var emailValidPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// Coordinates is a geocoding result.
type Coordinates struct {
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

// Geocoder resolves a city name to coordinates. Implementations never
// fail; unknown cities resolve to the origin (0, 0).
type Geocoder interface {
	Locate(city string) Coordinates
}

// StaticGeocoder is a fixed city-to-coordinates lookup table.
type StaticGeocoder map[string]Coordinates

// Locate implements Geocoder. Unknown cities map to (0, 0).
func (g StaticGeocoder) Locate(city string) Coordinates {
	return g[city]
}

// CategoryRule assigns a label when any keyword matches the product
// name. Rules are evaluated in order; the first match wins.
type CategoryRule struct {
	Keywords []string `yaml:"keywords"`
	Label    string   `yaml:"label"`
}

// EnrichmentOptions configures the per-entity enrichers.
type EnrichmentOptions struct {
	CategoryRules    []CategoryRule `yaml:"category_rules"`
	CategoryFallback string         `yaml:"category_fallback"`

	// Now is the clock used for age computation. Nil means time.Now.
	Now func() time.Time `yaml:"-"`
}

// DefaultEnrichmentOptions returns the standard categorization rules.
func DefaultEnrichmentOptions() EnrichmentOptions {
	return EnrichmentOptions{
		CategoryRules: []CategoryRule{
			{Keywords: []string{"smartphone"}, Label: "Electronics"},
			{Keywords: []string{"notebook", "laptop"}, Label: "Computers"},
			{Keywords: []string{"mouse", "keyboard"}, Label: "Accessories"},
		},
		CategoryFallback: "Other",
	}
}

func (o EnrichmentOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// EnrichCustomers appends latitude/longitude from the geocoder, the
// integer age derived from birth_date, and the email_valid and
// name_filled quality flags. Operates on an already-corrected table
// and never feeds back into correction.
func EnrichCustomers(t *dataset.Table, geo Geocoder, opts EnrichmentOptions) *dataset.Table {
	out := t.Clone()
	out.AddColumn("latitude")
	out.AddColumn("longitude")
	out.AddColumn("age")
	out.AddColumn("email_valid")
	out.AddColumn("name_filled")

	for _, r := range out.Rows {
		coords := geo.Locate(r["city"])
		r["latitude"] = FormatNumber(coords.Latitude, false)
		r["longitude"] = FormatNumber(coords.Longitude, false)
		r["age"] = strconv.Itoa(ageFrom(r["birth_date"], opts.now()))
		r["email_valid"] = strconv.FormatBool(emailValidPattern.MatchString(r["email"]))
		r["name_filled"] = strconv.FormatBool(r["name"] != "")
	}

	logEnrichment(out.Name, out.Len(), []string{"latitude", "longitude", "age", "email_valid", "name_filled"})
	return out
}

// EnrichProducts appends category_auto from the ordered keyword rules.
func EnrichProducts(t *dataset.Table, opts EnrichmentOptions) *dataset.Table {
	out := t.Clone()
	out.AddColumn("category_auto")

	for _, r := range out.Rows {
		r["category_auto"] = Categorize(r["product_name"], opts)
	}

	logEnrichment(out.Name, out.Len(), []string{"category_auto"})
	return out
}

// EnrichLogistics appends delivery_days, the whole-day difference
// between actual delivery and shipping. When either date is the empty
// sentinel the result stays empty: "missing" must never be confused
// with "delivered same day".
func EnrichLogistics(t *dataset.Table) *dataset.Table {
	out := t.Clone()
	out.AddColumn("delivery_days")

	for _, r := range out.Rows {
		r["delivery_days"] = deliveryDays(r["ship_date"], r["actual_delivery_date"])
	}

	logEnrichment(out.Name, out.Len(), []string{"delivery_days"})
	return out
}

// Categorize assigns the first matching rule label, falling back to
// the configured default. Matching is case-insensitive substring.
func Categorize(productName string, opts EnrichmentOptions) string {
	name := strings.ToLower(productName)
	for _, rule := range opts.CategoryRules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(name, strings.ToLower(kw)) {
				return rule.Label
			}
		}
	}
	return opts.CategoryFallback
}

// ageFrom computes completed years between an ISO birth date and now,
// floored at zero for future or invalid dates.
func ageFrom(birthDate string, now time.Time) int {
	born, ok := ParseDate(birthDate)
	if !ok {
		return 0
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// deliveryDays returns the whole-day span between two ISO dates, or
// the empty sentinel when either side is missing or unparseable.
func deliveryDays(shipDate, actualDate string) string {
	ship, ok := ParseDate(shipDate)
	if !ok {
		return ""
	}
	actual, ok := ParseDate(actualDate)
	if !ok {
		return ""
	}
	return strconv.Itoa(int(actual.Sub(ship).Hours() / 24))
}

func logEnrichment(table string, rows int, columns []string) {
	slog.Info("Enrichment completed",
		slog.String("table", table),
		slog.Int("rows", rows),
		slog.Any("columns_added", columns))
}
