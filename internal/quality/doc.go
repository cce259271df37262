// Package quality implements the correction, enrichment and alerting
// core of the retail data-quality pipeline.
//
// Correctors are pure functions from a raw table (plus the corrected
// parent tables an entity depends on) to a corrected table and its
// correction statistics. Value-level defects degrade to sentinels or
// clamps and never abort a run; only a structurally missing required
// column is fatal, and only for the affected table. Enrichers derive
// additive columns from corrected tables. The alert engine evaluates
// aggregate defect ratios against configurable thresholds.
package quality
