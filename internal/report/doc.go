// Package report models the persisted outcome of a pipeline run: the
// per-table correction statistics, rule-set validation results and
// threshold alerts. Reports are stored as JSON documents and can be
// exported as Excel workbooks for review.
package report
