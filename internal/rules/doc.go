// Package rules implements the rule-validator boundary: named
// expectation suites, declared as configuration, evaluated over entity
// tables.
//
// The pipeline depends only on the Validator interface; Engine is the
// built-in evaluator. Supported checks: not_null, unique, regex with a
// tolerated-failure fraction, numeric range, date range, closeness of
// a stored value to a recomputed product within an absolute tolerance,
// and membership in a static or dynamically computed set (such as the
// valid foreign keys of a parent table). Validation outcomes never
// block correction or enrichment.
package rules
