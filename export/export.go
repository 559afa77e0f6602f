// Package export writes ranked records and remediation plans as XLSX
// workbooks.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/docremedy/feedback"
	"github.com/brunobiangulo/docremedy/report"
)

const (
	recordsSheet = "Documents"
	planSheet    = "Remediation"
)

// RecordsXLSX returns a workbook with one row per record, in the given order.
func RecordsXLSX(records []report.Record) ([]byte, error) {
	headers := []string{"Name", "URL", "Total Issues", "Critical Issues", "Score (%)", "Context"}
	rows := make([][]any, len(records))
	for i, r := range records {
		rows[i] = []any{r.Name, r.URL, r.TotalIssues, r.CriticalIssues, r.Score, r.IssueContext()}
	}
	return writeSheet(recordsSheet, headers, rows, map[string]float64{
		"A": 36, "B": 48, "C": 14, "D": 16, "E": 12, "F": 60,
	})
}

// PlanXLSX returns a workbook listing the parsed issues of one document.
func PlanXLSX(docName string, issues []feedback.Issue) ([]byte, error) {
	headers := []string{"Document", "Issue", "Title", "Description", "Solution"}
	rows := make([][]any, len(issues))
	for i, is := range issues {
		rows[i] = []any{docName, is.Number, is.Title, is.Description, is.Solution}
	}
	return writeSheet(planSheet, headers, rows, map[string]float64{
		"A": 32, "B": 8, "C": 36, "D": 60, "E": 60,
	})
}

func writeSheet(sheet string, headers []string, rows [][]any, widths map[string]float64) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", i+2, err)
		}
	}

	for col, w := range widths {
		_ = f.SetColWidth(sheet, col, col, w)
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("xlsx panes: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
