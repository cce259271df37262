package pipeline

import (
	"sync"
	"time"

	"retaildq/internal/dataset"
	"retaildq/internal/quality"
	"retaildq/internal/rules"
)

// Entity table names, in processing order. Parents come before
// children so referential filtering sees corrected parents.
const (
	TableCustomers = "customers"
	TableProducts  = "products"
	TableSales     = "sales"
	TableLogistics = "logistics"
)

// EntityOrder is the canonical processing order of the four tables.
var EntityOrder = []string{TableCustomers, TableProducts, TableSales, TableLogistics}

// RunState is the shared state of one pipeline run. Steps read and
// write tables and accumulate statistics through it.
type RunState struct {
	mu sync.RWMutex

	RunID     string
	StartedAt time.Time

	tables     map[string]*dataset.Table
	stats      []quality.CorrectionStats
	validation []rules.Result
	alerts     []string
	steps      map[string]*StepState

	audit *Audit
}

// NewRunState creates an empty run state.
func NewRunState(runID string, audit *Audit) *RunState {
	return &RunState{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		tables:    make(map[string]*dataset.Table),
		steps:     make(map[string]*StepState),
		audit:     audit,
	}
}

// SetTable stores the current version of a table.
func (s *RunState) SetTable(t *dataset.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[t.Name] = t
}

// Table returns the current version of the named table, or nil.
func (s *RunState) Table(name string) *dataset.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[name]
}

// AddStats appends per-table correction statistics.
func (s *RunState) AddStats(st quality.CorrectionStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = append(s.stats, st)
}

// Stats returns the accumulated correction statistics.
func (s *RunState) Stats() []quality.CorrectionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]quality.CorrectionStats, len(s.stats))
	copy(out, s.stats)
	return out
}

// AddValidation appends a rule-set result.
func (s *RunState) AddValidation(r rules.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validation = append(s.validation, r)
}

// Validation returns the accumulated rule-set results.
func (s *RunState) Validation() []rules.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]rules.Result, len(s.validation))
	copy(out, s.validation)
	return out
}

// SetAlerts records the threshold alerts for the run.
func (s *RunState) SetAlerts(alerts []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
}

// Alerts returns the recorded threshold alerts.
func (s *RunState) Alerts() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// StepState returns the state record for a step, creating it on first
// use.
func (s *RunState) StepState(id, name string) *StepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.steps[id]; ok {
		return st
	}
	st := NewStepState(id, name)
	s.steps[id] = st
	return st
}

// Audit returns the run's audit trail, never nil.
func (s *RunState) Audit() *Audit {
	if s.audit == nil {
		return NopAudit()
	}
	return s.audit
}
