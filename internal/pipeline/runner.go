package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"retaildq/internal/config"
	"retaildq/internal/infrastructure"
	"retaildq/internal/report"
	"retaildq/internal/rules"
)

// Runner wires configuration into a ready-to-execute pipeline.
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewRunner creates a runner. Metrics may be nil.
func NewRunner(cfg *config.Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{cfg: cfg, logger: logger, metrics: metrics}
}

// Execute performs one full run: directory setup, step registration
// and sequential execution. It returns the persisted run report.
func (r *Runner) Execute(ctx context.Context) (*report.RunReport, error) {
	paths := r.cfg.Paths
	if err := paths.EnsureDirectories(); err != nil {
		return nil, err
	}

	suites, err := r.loadSuites()
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	audit, closeAudit, err := OpenAudit(paths.AuditFile(), runID)
	if err != nil {
		return nil, err
	}
	defer closeAudit()

	state := NewRunState(runID, audit)
	engine := rules.NewEngine(suites, r.logger)
	store := report.NewStore(paths.Quality(), r.logger)

	registry := NewRegistry()
	steps := []Step{
		NewLoadStep(paths.Raw(), r.logger),
		NewCorrectStep(r.cfg.Pipeline.Correction, paths.Processed(), r.logger),
		NewEnrichStep(r.cfg.Pipeline.Enrichment.Options(), r.cfg.Pipeline.Enrichment.Geocoder(), paths.Processed(), r.logger),
		NewValidateStep(engine, r.logger),
		NewAlertStep(r.cfg.Pipeline.Thresholds, r.logger),
		NewReportStep(store, paths.Quality(), r.logger),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}

	return NewManager(registry, r.logger, r.metrics).Run(ctx, state)
}

// loadSuites reads the configured rule-set file, or falls back to the
// built-in suites.
func (r *Runner) loadSuites() (map[string][]rules.Rule, error) {
	path := r.cfg.Paths.RuleSetsFile
	if path == "" {
		return rules.DefaultSuites(), nil
	}
	return rules.LoadSuitesFile(path)
}
