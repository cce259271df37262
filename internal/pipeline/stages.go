package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"retaildq/internal/dataset"
	pipeerrors "retaildq/internal/errors"
	"retaildq/internal/quality"
	"retaildq/internal/report"
	"retaildq/internal/rules"
)

// entityColumns defines the expected schema per raw CSV. A table that
// cannot be read, or that fails its schema checks during correction,
// is substituted with an empty table of this shape so downstream steps
// keep running.
var entityColumns = map[string][]string{
	TableCustomers: {"id", "name", "email", "phone", "birth_date", "registration_date", "city", "state"},
	TableProducts:  {"id", "product_name", "category", "price", "stock", "creation_date"},
	TableSales:     {"id", "customer_id", "product_id", "quantity", "unit_price", "total_value", "sale_date"},
	TableLogistics: {"sale_id", "ship_date", "expected_delivery_date", "actual_delivery_date"},
}

// LoadStep reads the four raw entity CSVs into the run state. A file
// that is missing or unreadable degrades to an empty table; the run
// continues without that entity's rows.
type LoadStep struct {
	rawDir string
	logger *slog.Logger
}

// NewLoadStep creates the ingest step reading from rawDir.
func NewLoadStep(rawDir string, logger *slog.Logger) *LoadStep {
	return &LoadStep{rawDir: rawDir, logger: logger}
}

func (s *LoadStep) ID() string             { return StepIDLoad }
func (s *LoadStep) Name() string           { return "Ingest" }
func (s *LoadStep) Dependencies() []string { return nil }

func (s *LoadStep) Execute(ctx context.Context, state *RunState) error {
	for _, name := range EntityOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(s.rawDir, name+".csv")
		t, err := dataset.Load(path, name)
		if err != nil {
			if !pipeerrors.IsStructural(err) {
				return err
			}
			s.logger.Warn("Table unreadable, substituting empty table",
				slog.String("table", name),
				slog.String("path", path),
				slog.Any("error", err))
			state.Audit().Record(AuditEventLoadFailed, name, 0, err.Error())
			t = dataset.Empty(name, entityColumns[name]...)
		}
		s.logger.Info("Table loaded",
			slog.String("table", name),
			slog.Int("rows", t.Len()))
		state.SetTable(t)
	}
	return nil
}

// CorrectStep runs the entity correctors in dependency order: parents
// first, then sales against corrected parents, then logistics against
// corrected sales. Corrected tables are persisted to the processed
// directory.
type CorrectStep struct {
	opts         quality.CorrectionOptions
	processedDir string
	logger       *slog.Logger
}

// NewCorrectStep creates the correction step.
func NewCorrectStep(opts quality.CorrectionOptions, processedDir string, logger *slog.Logger) *CorrectStep {
	return &CorrectStep{opts: opts, processedDir: processedDir, logger: logger}
}

func (s *CorrectStep) ID() string             { return StepIDCorrect }
func (s *CorrectStep) Name() string           { return "Correction" }
func (s *CorrectStep) Dependencies() []string { return []string{StepIDLoad} }

func (s *CorrectStep) Execute(ctx context.Context, state *RunState) error {
	customers, err := s.correct(state, TableCustomers, func() (*dataset.Table, quality.CorrectionStats, error) {
		return quality.CorrectCustomers(state.Table(TableCustomers), s.opts)
	})
	if err != nil {
		return err
	}

	products, err := s.correct(state, TableProducts, func() (*dataset.Table, quality.CorrectionStats, error) {
		return quality.CorrectProducts(state.Table(TableProducts), s.opts)
	})
	if err != nil {
		return err
	}

	sales, err := s.correct(state, TableSales, func() (*dataset.Table, quality.CorrectionStats, error) {
		return quality.CorrectSales(state.Table(TableSales), customers, products, s.opts)
	})
	if err != nil {
		return err
	}

	if _, err := s.correct(state, TableLogistics, func() (*dataset.Table, quality.CorrectionStats, error) {
		return quality.CorrectLogistics(state.Table(TableLogistics), sales, s.opts)
	}); err != nil {
		return err
	}

	return ctx.Err()
}

// correct runs one entity's corrector. A structural failure (missing
// required column) is fatal for that table only: an empty table of the
// expected shape is substituted, the failure is audited and the run
// continues with the remaining entities.
func (s *CorrectStep) correct(state *RunState, name string, fn func() (*dataset.Table, quality.CorrectionStats, error)) (*dataset.Table, error) {
	t, stats, err := fn()
	if err != nil {
		if !pipeerrors.IsStructural(err) {
			return nil, err
		}
		s.logger.Warn("Table failed schema checks, substituting empty table",
			slog.String("table", name),
			slog.Any("error", err))
		state.Audit().Record(AuditEventSchemaInvalid, name, 0, err.Error())

		rowsIn := 0
		if raw := state.Table(name); raw != nil {
			rowsIn = raw.Len()
		}
		t = dataset.Empty(name, entityColumns[name]...)
		stats = quality.CorrectionStats{Table: name, RowsIn: rowsIn}
	}
	s.finish(state, t, stats)
	return t, nil
}

// finish records a corrected table: state, stats, audit counts and the
// persisted CSV.
func (s *CorrectStep) finish(state *RunState, t *dataset.Table, stats quality.CorrectionStats) {
	state.SetTable(t)
	state.AddStats(stats)

	audit := state.Audit()
	audit.Record(AuditEventDuplicateRemove, stats.Table, stats.DuplicatesRemoved, "")
	audit.Record(AuditEventValueClamped, stats.Table, stats.ValuesClamped, "")
	audit.Record(AuditEventValueDefaulted, stats.Table, stats.ValuesDefaulted, "")
	audit.Record(AuditEventDateBlanked, stats.Table, stats.DatesBlanked, "")
	for column, dropped := range stats.ForeignKeyDrops {
		audit.Record(AuditEventOrphanDropped, stats.Table, dropped, column)
	}

	path := filepath.Join(s.processedDir, stats.Table+"_corrected.csv")
	if err := dataset.Store(t, path); err != nil {
		s.logger.Error("Failed to persist corrected table",
			slog.String("table", stats.Table),
			slog.Any("error", err))
	}
}

// EnrichStep derives computed columns on the corrected tables and
// persists the enriched CSVs. Sales have no derived columns.
type EnrichStep struct {
	opts         quality.EnrichmentOptions
	geo          quality.Geocoder
	processedDir string
	logger       *slog.Logger
}

// NewEnrichStep creates the enrichment step.
func NewEnrichStep(opts quality.EnrichmentOptions, geo quality.Geocoder, processedDir string, logger *slog.Logger) *EnrichStep {
	return &EnrichStep{opts: opts, geo: geo, processedDir: processedDir, logger: logger}
}

func (s *EnrichStep) ID() string             { return StepIDEnrich }
func (s *EnrichStep) Name() string           { return "Enrichment" }
func (s *EnrichStep) Dependencies() []string { return []string{StepIDCorrect} }

func (s *EnrichStep) Execute(ctx context.Context, state *RunState) error {
	enriched := map[string]*dataset.Table{
		TableCustomers: quality.EnrichCustomers(state.Table(TableCustomers), s.geo, s.opts),
		TableProducts:  quality.EnrichProducts(state.Table(TableProducts), s.opts),
		TableLogistics: quality.EnrichLogistics(state.Table(TableLogistics)),
	}

	for name, t := range enriched {
		path := filepath.Join(s.processedDir, name+"_enriched.csv")
		if err := dataset.Store(t, path); err != nil {
			s.logger.Error("Failed to persist enriched table",
				slog.String("table", name),
				slog.Any("error", err))
		}
	}
	return ctx.Err()
}

// ValidateStep submits each corrected table to its rule set. Failing
// rules are recorded, never fatal; a misconfigured rule set is.
type ValidateStep struct {
	validator rules.Validator
	engine    *rules.Engine
	logger    *slog.Logger
}

// NewValidateStep creates the validation step around the given engine.
func NewValidateStep(engine *rules.Engine, logger *slog.Logger) *ValidateStep {
	return &ValidateStep{validator: engine, engine: engine, logger: logger}
}

func (s *ValidateStep) ID() string             { return StepIDValidate }
func (s *ValidateStep) Name() string           { return "Validation" }
func (s *ValidateStep) Dependencies() []string { return []string{StepIDCorrect} }

func (s *ValidateStep) Execute(ctx context.Context, state *RunState) error {
	// Register the corrected tables so in_set rules resolve foreign
	// keys against post-correction data.
	for _, name := range EntityOrder {
		if t := state.Table(name); t != nil {
			s.engine.RegisterReference(t)
		}
	}

	for _, name := range EntityOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := state.Table(name)
		if t == nil {
			continue
		}
		result, err := s.validator.SubmitBatch(t, name+"_suite")
		if err != nil {
			return err
		}
		state.AddValidation(result)
	}
	return nil
}

// AlertStep evaluates the residual-defect thresholds over the
// corrected tables.
type AlertStep struct {
	thresholds quality.AlertThresholds
	logger     *slog.Logger
}

// NewAlertStep creates the alerting step.
func NewAlertStep(thresholds quality.AlertThresholds, logger *slog.Logger) *AlertStep {
	return &AlertStep{thresholds: thresholds, logger: logger}
}

func (s *AlertStep) ID() string             { return StepIDAlerts }
func (s *AlertStep) Name() string           { return "Alerting" }
func (s *AlertStep) Dependencies() []string { return []string{StepIDCorrect} }

func (s *AlertStep) Execute(ctx context.Context, state *RunState) error {
	alerts := quality.VerifyAlerts(
		state.Table(TableCustomers),
		state.Table(TableProducts),
		state.Table(TableSales),
		s.thresholds,
	)
	state.SetAlerts(alerts)
	for _, a := range alerts {
		s.logger.Warn("Quality alert", slog.String("alert", a))
		state.Audit().Record(AuditEventAlertRaised, "", 0, a)
	}
	return ctx.Err()
}

// ReportStep assembles the run report, stores it as JSON and exports
// the Excel workbook.
type ReportStep struct {
	store      *report.Store
	qualityDir string
	logger     *slog.Logger
}

// NewReportStep creates the reporting step.
func NewReportStep(store *report.Store, qualityDir string, logger *slog.Logger) *ReportStep {
	return &ReportStep{store: store, qualityDir: qualityDir, logger: logger}
}

func (s *ReportStep) ID() string   { return StepIDReport }
func (s *ReportStep) Name() string { return "Reporting" }
func (s *ReportStep) Dependencies() []string {
	return []string{StepIDEnrich, StepIDValidate, StepIDAlerts}
}

func (s *ReportStep) Execute(ctx context.Context, state *RunState) error {
	r := &report.RunReport{
		RunID:      state.RunID,
		StartedAt:  state.StartedAt,
		Tables:     state.Stats(),
		Validation: state.Validation(),
		Alerts:     state.Alerts(),
	}
	r.Finish()
	if _, err := s.store.Save(r); err != nil {
		return err
	}

	workbook := filepath.Join(s.qualityDir, fmt.Sprintf("report-%s.xlsx", state.RunID))
	if err := report.WriteWorkbook(r, workbook); err != nil {
		s.logger.Error("Failed to export workbook", slog.Any("error", err))
	}
	return ctx.Err()
}
