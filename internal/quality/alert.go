package quality

import (
	"fmt"
	"log/slog"

	"retaildq/internal/dataset"
)

// AlertThresholds holds the maximum tolerated defect ratios per check.
// A ratio strictly above its threshold raises an alert.
type AlertThresholds struct {
	CustomerInvalidEmail   float64 `yaml:"customer_invalid_email"`
	CustomerMissingName    float64 `yaml:"customer_missing_name"`
	ProductNegativePrice   float64 `yaml:"product_negative_price"`
	ProductMissingCategory float64 `yaml:"product_missing_category"`
	SaleQuantityBelowOne   float64 `yaml:"sale_quantity_below_one"`
	SaleNegativeTotal      float64 `yaml:"sale_negative_total"`
}

// DefaultAlertThresholds returns the standard thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		CustomerInvalidEmail:   0.02,
		CustomerMissingName:    0.02,
		ProductNegativePrice:   0.01,
		ProductMissingCategory: 0.02,
		SaleQuantityBelowOne:   0.01,
		SaleNegativeTotal:      0.01,
	}
}

// VerifyCustomerAlerts evaluates the customer checks in fixed order.
// An empty table yields ratio zero and is alert-free, never an error.
func VerifyCustomerAlerts(t *dataset.Table, th AlertThresholds) []string {
	var alerts []string
	if ratio(t, func(r dataset.Row) bool { return !emailValidPattern.MatchString(r["email"]) }) > th.CustomerInvalidEmail {
		alerts = append(alerts, fmt.Sprintf("Alert: more than %s of customer emails are invalid", percent(th.CustomerInvalidEmail)))
	}
	if ratio(t, func(r dataset.Row) bool { return r["name"] == "" }) > th.CustomerMissingName {
		alerts = append(alerts, fmt.Sprintf("Alert: more than %s of customers have no name", percent(th.CustomerMissingName)))
	}
	return alerts
}

// VerifyProductAlerts evaluates the product checks in fixed order.
func VerifyProductAlerts(t *dataset.Table, th AlertThresholds) []string {
	var alerts []string
	if ratio(t, func(r dataset.Row) bool { return numericBelow(r["price"], 0) }) > th.ProductNegativePrice {
		alerts = append(alerts, "Alert: products with negative price detected")
	}
	if ratio(t, func(r dataset.Row) bool { return r["category"] == "" }) > th.ProductMissingCategory {
		alerts = append(alerts, fmt.Sprintf("Alert: more than %s of products have no category", percent(th.ProductMissingCategory)))
	}
	return alerts
}

// VerifySaleAlerts evaluates the sales checks in fixed order.
func VerifySaleAlerts(t *dataset.Table, th AlertThresholds) []string {
	var alerts []string
	if ratio(t, func(r dataset.Row) bool { return numericBelow(r["quantity"], 1) }) > th.SaleQuantityBelowOne {
		alerts = append(alerts, "Alert: sales with zero or negative quantity detected")
	}
	if ratio(t, func(r dataset.Row) bool { return numericBelow(r["total_value"], 0) }) > th.SaleNegativeTotal {
		alerts = append(alerts, "Alert: sales with negative total value detected")
	}
	return alerts
}

// VerifyAlerts runs every check over the corrected tables and returns
// the alert messages in check order. Checks are independent; a firing
// check never suppresses another.
func VerifyAlerts(customers, products, sales *dataset.Table, th AlertThresholds) []string {
	alerts := VerifyCustomerAlerts(customers, th)
	alerts = append(alerts, VerifyProductAlerts(products, th)...)
	alerts = append(alerts, VerifySaleAlerts(sales, th)...)

	slog.Info("Alert checks completed", slog.Int("alerts", len(alerts)))
	return alerts
}

// ratio returns the fraction of rows matching the predicate. Empty
// tables report zero so partial data stays alert-free.
func ratio(t *dataset.Table, match func(dataset.Row) bool) float64 {
	if t.Len() == 0 {
		return 0
	}
	n := 0
	for _, r := range t.Rows {
		if match(r) {
			n++
		}
	}
	return float64(n) / float64(t.Len())
}

// numericBelow reports whether the value parses and is strictly below
// the limit. Unparseable values do not match; they are handled by the
// correction layer, not the alert layer.
func numericBelow(v string, limit float64) bool {
	f, ok := ParseFloat(v)
	return ok && f < limit
}

func percent(f float64) string {
	return fmt.Sprintf("%g%%", f*100)
}
