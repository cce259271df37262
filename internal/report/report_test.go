package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retaildq/internal/quality"
	"retaildq/internal/rules"
)

func sampleReport() *RunReport {
	r := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	r.Tables = []quality.CorrectionStats{
		{Table: "customers", RowsIn: 100, RowsOut: 98, DuplicatesRemoved: 2},
		{Table: "sales", RowsIn: 50, RowsOut: 49, ForeignKeyDrops: map[string]int{"customer_id": 1}},
	}
	r.Validation = []rules.Result{
		{RuleSet: "customers_suite", Passed: true},
		{RuleSet: "sales_suite", Passed: false, Violations: []rules.Violation{
			{RuleID: "range:quantity", Failed: 3, Checked: 49, Mostly: 1},
		}},
	}
	r.Alerts = []string{"3 of 49 sales have quantity below 1 (6.12%)"}
	r.Finish()
	return r
}

func TestRunReport_Clean(t *testing.T) {
	r := &RunReport{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	r.Finish()
	assert.True(t, r.Clean())

	r.Alerts = []string{"something"}
	assert.False(t, r.Clean())

	r.Alerts = nil
	r.Validation = []rules.Result{{RuleSet: "s", Passed: false}}
	assert.False(t, r.Clean())
}

func TestStore_SaveAndLatest(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	first := sampleReport()
	first.StartedAt = time.Now().UTC().Add(-time.Hour)
	_, err := store.Save(first)
	require.NoError(t, err)

	second := sampleReport()
	path, err := store.Save(second)
	require.NoError(t, err)
	assert.FileExists(t, path)

	latest, err := store.Latest()
	require.NoError(t, err)
	assert.Equal(t, second.RunID, latest.RunID)

	reports, err := store.List()
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, second.RunID, reports[0].RunID, "most recent first")
	assert.Equal(t, first.RunID, reports[1].RunID)
}

func TestStore_Get(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	r := sampleReport()
	_, err := store.Save(r)
	require.NoError(t, err)

	got, err := store.Get(r.RunID)
	require.NoError(t, err)
	assert.Equal(t, r.Alerts, got.Alerts)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, ErrNoReports)
}

func TestStore_LatestEmpty(t *testing.T) {
	store := NewStore(t.TempDir(), nil)

	_, err := store.Latest()
	assert.ErrorIs(t, err, ErrNoReports)
}

func TestStore_ListSkipsMalformed(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, nil)

	_, err := store.Save(sampleReport())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report-junk.json"), []byte("{not json"), 0o644))

	reports, err := store.List()
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestWriteWorkbook(t *testing.T) {
	r := sampleReport()
	path := filepath.Join(t.TempDir(), "report.xlsx")

	require.NoError(t, WriteWorkbook(r, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Tables", "Validation", "Alerts"}, f.GetSheetList())

	runID, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, r.RunID, runID)

	table, err := f.GetCellValue("Tables", "A2")
	require.NoError(t, err)
	assert.Equal(t, "customers", table)

	rule, err := f.GetCellValue("Validation", "C3")
	require.NoError(t, err)
	assert.Equal(t, "range:quantity", rule)

	alert, err := f.GetCellValue("Alerts", "A1")
	require.NoError(t, err)
	assert.Contains(t, alert, "quantity below 1")
}
