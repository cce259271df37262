// Package pipeline orchestrates a data-quality run over the four
// retail entity tables: ingest, correction, enrichment, rule
// validation, threshold alerting and report persistence.
//
// Steps declare dependencies and execute sequentially in topological
// order; correction runs parents before children so referential
// filtering always sees corrected parent tables. An unreadable input
// degrades to an empty table rather than aborting the run, and every
// destructive correction leaves a count in the append-only audit
// trail.
package pipeline
