package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	pipeerrors "retaildq/internal/errors"
	"retaildq/internal/quality"
	"retaildq/internal/rules"
)

// ErrNoReports indicates the store holds no completed runs yet.
var ErrNoReports = errors.New("no reports available")

// RunReport is the persisted outcome of one pipeline run.
type RunReport struct {
	RunID      string                    `json:"run_id"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Tables     []quality.CorrectionStats `json:"tables"`
	Validation []rules.Result            `json:"validation"`
	Alerts     []string                  `json:"alerts"`
}

// Finish stamps the completion time.
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Duration returns the elapsed run time.
func (r *RunReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Clean reports whether the run produced no alerts and every rule set
// passed.
func (r *RunReport) Clean() bool {
	if len(r.Alerts) > 0 {
		return false
	}
	for _, v := range r.Validation {
		if !v.Passed {
			return false
		}
	}
	return true
}

// Store persists run reports as JSON documents in a directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// NewStore creates a report store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger.With(slog.String("component", "report"))}
}

// Save writes the report as report-<run id>.json and returns the path.
func (s *Store) Save(r *RunReport) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", pipeerrors.New(pipeerrors.CodeInternal, "report.Save",
			fmt.Errorf("cannot create %s: %w", s.dir, err))
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", pipeerrors.New(pipeerrors.CodeInternal, "report.Save", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("report-%s.json", r.RunID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", pipeerrors.New(pipeerrors.CodeInternal, "report.Save",
			fmt.Errorf("cannot write %s: %w", path, err))
	}

	s.logger.Info("Run report saved",
		slog.String("run_id", r.RunID),
		slog.String("path", path),
		slog.Int("alerts", len(r.Alerts)))
	return path, nil
}

// List returns all stored reports, most recent first. Unreadable
// documents are skipped with a warning rather than failing the
// listing.
func (s *Store) List() ([]*RunReport, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "report-*.json"))
	if err != nil {
		return nil, pipeerrors.New(pipeerrors.CodeInternal, "report.List", err)
	}

	reports := make([]*RunReport, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Skipping unreadable report", slog.String("path", path), slog.Any("error", err))
			continue
		}
		var r RunReport
		if err := json.Unmarshal(data, &r); err != nil {
			s.logger.Warn("Skipping malformed report", slog.String("path", path), slog.Any("error", err))
			continue
		}
		reports = append(reports, &r)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})
	return reports, nil
}

// Latest returns the most recent report, or ErrNoReports.
func (s *Store) Latest() (*RunReport, error) {
	reports, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, ErrNoReports
	}
	return reports[0], nil
}

// Get returns the report with the given run ID, or ErrNoReports.
func (s *Store) Get(runID string) (*RunReport, error) {
	reports, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, r := range reports {
		if r.RunID == runID {
			return r, nil
		}
	}
	return nil, ErrNoReports
}
