package workbook

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"attendx/pkg/contracts/domain"
)

const (
	// StatisticsSheet lists (label, text, count) for one file.
	StatisticsSheet = "Statistics"
	// TransitionsSheet lists the detected transition events of one file.
	TransitionsSheet = "Transitions"
	// ArtifactSuffix is appended to the input stem to name its artifact.
	ArtifactSuffix = "_with_counts"
)

// ArtifactPath returns the output path for an input file, e.g.
// outbox/7A_v12_with_counts.xlsx.
func ArtifactPath(outDir, source string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, stem+ArtifactSuffix+".xlsx")
}

// WriteArtifact copies the source workbook to dest with the per-row count
// columns, a Statistics sheet with a bar chart and a Transitions sheet.
func WriteArtifact(source, dest string, layout Layout, result domain.FileResult) error {
	f, err := excelize.OpenFile(source)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := result.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}

	if err := writeCounts(f, sheet, layout, result.Tallies); err != nil {
		return fmt.Errorf("write counts: %w", err)
	}
	if err := writeStatistics(f, result.TextStats); err != nil {
		return fmt.Errorf("write statistics: %w", err)
	}
	if err := writeTransitions(f, result.Transitions); err != nil {
		return fmt.Errorf("write transitions: %w", err)
	}

	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return SaveAtomic(f, dest)
}

func writeCounts(f *excelize.File, sheet string, layout Layout, tallies []domain.RowTally) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, label := range layout.Labels {
		cell, err := excelize.CoordinatesToCellName(layout.OutputCol+i, layout.HeaderRow)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, label.Title()); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
			return err
		}
	}

	for _, t := range tallies {
		if !t.ShouldWrite() {
			continue
		}
		values := make([]interface{}, 0, len(layout.Labels))
		for _, label := range layout.Labels {
			values = append(values, t.Count(label))
		}
		cell, err := excelize.CoordinatesToCellName(layout.OutputCol, t.Row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// resetSheet drops a sheet left by an earlier run and creates it empty.
func resetSheet(f *excelize.File, sheet string) error {
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		if err := f.DeleteSheet(sheet); err != nil {
			return err
		}
	}
	_, err := f.NewSheet(sheet)
	return err
}

func writeStatistics(f *excelize.File, stats []domain.TextStatistic) error {
	if err := resetSheet(f, StatisticsSheet); err != nil {
		return err
	}
	header := []interface{}{"Label", "Text", "Count"}
	if err := f.SetSheetRow(StatisticsSheet, "A1", &header); err != nil {
		return err
	}
	for i, s := range stats {
		values := []interface{}{s.Label.Title(), s.Text, s.Count}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(StatisticsSheet, cell, &values); err != nil {
			return err
		}
	}

	if len(stats) < 2 {
		return nil
	}
	last := len(stats) + 1
	return f.AddChart(StatisticsSheet, "E2", &excelize.Chart{
		Type: excelize.Bar,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$C$1", StatisticsSheet),
			Categories: fmt.Sprintf("%s!$B$2:$B$%d", StatisticsSheet, last),
			Values:     fmt.Sprintf("%s!$C$2:$C$%d", StatisticsSheet, last),
		}},
		Title:     []excelize.RichTextRun{{Text: "Count per text"}},
		Dimension: excelize.ChartDimension{Width: 640, Height: 320},
	})
}

func writeTransitions(f *excelize.File, events []domain.TransitionEvent) error {
	if err := resetSheet(f, TransitionsSheet); err != nil {
		return err
	}
	header := []interface{}{"Row", "Student", "Day", "From", "To"}
	if err := f.SetSheetRow(TransitionsSheet, "A1", &header); err != nil {
		return err
	}
	for i, e := range events {
		values := []interface{}{e.Row, e.Student, e.Day, e.Kind.From.Title(), e.Kind.To.Title()}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(TransitionsSheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}
