package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	pipeerrors "retaildq/internal/errors"
	"retaildq/internal/infrastructure"
	"retaildq/internal/report"
)

// Manager executes the registered steps of a run in dependency order.
type Manager struct {
	registry *Registry
	logger   *slog.Logger
	metrics  *infrastructure.PipelineMetrics
}

// NewManager creates a manager over the registry. Metrics may be nil.
func NewManager(registry *Registry, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		logger:   logger.With(slog.String("component", "pipeline")),
		metrics:  metrics,
	}
}

// Run executes all steps sequentially and returns the run report
// assembled from the final state. The first failing step aborts the
// run.
func (m *Manager) Run(ctx context.Context, state *RunState) (*report.RunReport, error) {
	order, err := m.registry.ExecutionOrder()
	if err != nil {
		return nil, err
	}

	m.logger.Info("Run started",
		slog.String("run_id", state.RunID),
		slog.Any("steps", order))
	start := time.Now()

	for _, id := range order {
		step, err := m.registry.Get(id)
		if err != nil {
			return nil, err
		}
		if err := m.runStep(ctx, step, state); err != nil {
			m.recordRun(ctx, start, "failed")
			return nil, err
		}
	}

	m.recordRun(ctx, start, "completed")
	m.recordOutcome(ctx, state)

	r := &report.RunReport{
		RunID:      state.RunID,
		StartedAt:  state.StartedAt,
		Tables:     state.Stats(),
		Validation: state.Validation(),
		Alerts:     state.Alerts(),
	}
	r.Finish()

	m.logger.Info("Run finished",
		slog.String("run_id", state.RunID),
		slog.Duration("duration", time.Since(start)),
		slog.Int("alerts", len(r.Alerts)),
		slog.Bool("clean", r.Clean()))
	return r, nil
}

// runStep executes one step with state bookkeeping.
func (m *Manager) runStep(ctx context.Context, step Step, state *RunState) error {
	st := state.StepState(step.ID(), step.Name())
	st.Start()
	m.logger.Info("Step started",
		slog.String("run_id", state.RunID),
		slog.String("step", step.ID()))

	if err := step.Execute(ctx, state); err != nil {
		st.Fail(err)
		m.logger.Error("Step failed",
			slog.String("run_id", state.RunID),
			slog.String("step", step.ID()),
			slog.Any("error", err))
		return pipeerrors.New(pipeerrors.CodeOf(err), "pipeline.runStep",
			fmt.Errorf("step %s: %w", step.ID(), err))
	}

	st.Complete()
	m.logger.Info("Step completed",
		slog.String("run_id", state.RunID),
		slog.String("step", step.ID()),
		slog.Duration("duration", st.Duration()))
	return nil
}

func (m *Manager) recordRun(ctx context.Context, start time.Time, status string) {
	if m.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.metrics.RunsTotal.Add(ctx, 1, attrs)
	m.metrics.RunDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}

// recordOutcome publishes the per-table row and correction counters
// and the alert counter for a completed run.
func (m *Manager) recordOutcome(ctx context.Context, state *RunState) {
	if m.metrics == nil {
		return
	}
	for _, st := range state.Stats() {
		attrs := metric.WithAttributes(attribute.String("table", st.Table))
		m.metrics.RowsProcessed.Add(ctx, int64(st.RowsIn), attrs)

		corrections := st.DuplicatesRemoved + st.ValuesClamped + st.ValuesDefaulted + st.DatesBlanked
		for _, dropped := range st.ForeignKeyDrops {
			corrections += dropped
		}
		m.metrics.CorrectionsApplied.Add(ctx, int64(corrections), attrs)
	}
	m.metrics.AlertsRaised.Add(ctx, int64(len(state.Alerts())))
}
