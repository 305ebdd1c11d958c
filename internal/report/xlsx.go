package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"pymetrics/internal/assessment"
)

// WriteXLSX exports an assessment as a two-sheet workbook: trait scores and
// the underlying metric set. Rows follow sorted dimension and metric order.
func (g *Generator) WriteXLSX(path string, result *assessment.Result) error {
	f := excelize.NewFile()

	traitSheet := "Traits"
	if err := f.SetSheetName("Sheet1", traitSheet); err != nil {
		return err
	}

	traitHeaders := []string{"dimension", "score", "confidence", "reliability", "renormalization", "interpretation"}
	if err := writeRow(f, traitSheet, 1, traitHeaders); err != nil {
		return err
	}
	row := 2
	for _, dim := range result.Profile.Dimensions() {
		s := result.Profile.Scores[dim]
		values := []string{
			string(dim),
			fmt.Sprintf("%.4f", s.Score),
			fmt.Sprintf("%.4f", s.Confidence),
			fmt.Sprintf("%.2f", s.Reliability),
			fmt.Sprintf("%.4f", s.Renormalization),
			s.Interpretation,
		}
		if err := writeRow(f, traitSheet, row, values); err != nil {
			return err
		}
		row++
	}

	metricSheet := "Metrics"
	if _, err := f.NewSheet(metricSheet); err != nil {
		return err
	}
	metricHeaders := []string{"name", "value", "quality", "sample_size", "schema_version"}
	if err := writeRow(f, metricSheet, 1, metricHeaders); err != nil {
		return err
	}
	row = 2
	for _, name := range result.Metrics.Names() {
		m := result.Metrics.Metrics[name]
		values := []string{
			m.Name,
			fmt.Sprintf("%.6f", m.Value),
			fmt.Sprintf("%.4f", m.Quality),
			fmt.Sprintf("%d", m.SampleSize),
			m.SchemaVersion,
		}
		if err := writeRow(f, metricSheet, row, values); err != nil {
			return err
		}
		row++
	}

	return f.SaveAs(path)
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
