package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	pipeerrors "retaildq/internal/errors"
)

// WriteWorkbook exports the report as an Excel workbook with Summary,
// Tables, Validation and Alerts sheets.
func WriteWorkbook(r *RunReport, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	summary := "Summary"
	f.SetSheetName(f.GetSheetName(0), summary)
	summaryRows := [][]interface{}{
		{"Run ID", r.RunID},
		{"Started", r.StartedAt.Format("2006-01-02 15:04:05")},
		{"Finished", r.FinishedAt.Format("2006-01-02 15:04:05")},
		{"Duration", r.Duration().String()},
		{"Alerts", len(r.Alerts)},
		{"Clean", r.Clean()},
	}
	for i, row := range summaryRows {
		if err := f.SetSheetRow(summary, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return pipeerrors.New(pipeerrors.CodeInternal, "report.WriteWorkbook", err)
		}
	}

	tables := "Tables"
	if _, err := f.NewSheet(tables); err != nil {
		return pipeerrors.New(pipeerrors.CodeInternal, "report.WriteWorkbook", err)
	}
	header := []interface{}{"Table", "Rows In", "Rows Out", "Duplicates Removed",
		"Values Clamped", "Values Defaulted", "Dates Blanked", "FK Drops"}
	f.SetSheetRow(tables, "A1", &header)
	for i, st := range r.Tables {
		fkDrops := 0
		for _, n := range st.ForeignKeyDrops {
			fkDrops += n
		}
		row := []interface{}{st.Table, st.RowsIn, st.RowsOut, st.DuplicatesRemoved,
			st.ValuesClamped, st.ValuesDefaulted, st.DatesBlanked, fkDrops}
		f.SetSheetRow(tables, fmt.Sprintf("A%d", i+2), &row)
	}

	validation := "Validation"
	if _, err := f.NewSheet(validation); err != nil {
		return pipeerrors.New(pipeerrors.CodeInternal, "report.WriteWorkbook", err)
	}
	vHeader := []interface{}{"Rule Set", "Passed", "Rule", "Failed", "Checked", "Mostly"}
	f.SetSheetRow(validation, "A1", &vHeader)
	line := 2
	for _, result := range r.Validation {
		if len(result.Violations) == 0 {
			row := []interface{}{result.RuleSet, result.Passed, "", "", "", ""}
			f.SetSheetRow(validation, fmt.Sprintf("A%d", line), &row)
			line++
			continue
		}
		for _, v := range result.Violations {
			row := []interface{}{result.RuleSet, result.Passed, v.RuleID, v.Failed, v.Checked, v.Mostly}
			f.SetSheetRow(validation, fmt.Sprintf("A%d", line), &row)
			line++
		}
	}

	alerts := "Alerts"
	if _, err := f.NewSheet(alerts); err != nil {
		return pipeerrors.New(pipeerrors.CodeInternal, "report.WriteWorkbook", err)
	}
	for i, a := range r.Alerts {
		row := []interface{}{a}
		f.SetSheetRow(alerts, fmt.Sprintf("A%d", i+1), &row)
	}

	if err := f.SaveAs(path); err != nil {
		return pipeerrors.New(pipeerrors.CodeInternal, "report.WriteWorkbook",
			fmt.Errorf("cannot save %s: %w", path, err))
	}
	return nil
}
